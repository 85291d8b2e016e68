package controller

import (
	"exam_portal_backend/internal/examsession"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	Exams *service.ExamService
}

func NewExamController(exams *service.ExamService) *ExamController {
	return &ExamController{Exams: exams}
}

// Start godoc
// @Summary 开始考试
// @Description 为当前用户创建考试会话，已有的进行中会话会被放弃
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Param   examId path string true "考试ID"
// @Success 201 {object} util.Response{data=examsession.View}
// @Failure 403 {object} util.Response "试用已过期"
// @Failure 422 {object} util.Response "该科目暂无题目"
// @Router /api/exams/{examId}/start [post]
func (c *ExamController) Start(ctx *gin.Context) {
	user := util.GetCurrentUser(ctx)
	view, err := c.Exams.StartExam(ctx.Request.Context(), user.ID, ctx.Param("examId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// Current godoc
// @Summary 当前进行中的考试
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=examsession.View}
// @Failure 404 {object} util.Response
// @Router /api/sessions/current [get]
func (c *ExamController) Current(ctx *gin.Context) {
	sess, err := c.Exams.Current(util.GetCurrentUser(ctx).ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, sess.Snapshot())
}

// swagger:model AnswerRequest
type AnswerRequest struct {
	Option *int `json:"option" binding:"required"`
}

// Answer godoc
// @Summary 选择答案
// @Description 为当前题目选择选项，重复选择会覆盖
// @Tags 考试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   body body AnswerRequest true "选项下标(0起)"
// @Success 200 {object} util.Response{data=examsession.View}
// @Router /api/sessions/{id}/answer [post]
func (c *ExamController) Answer(ctx *gin.Context) {
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.reply(ctx)(c.Exams.SelectAnswer(util.GetCurrentUser(ctx).ID, ctx.Param("id"), *req.Option))
}

// Mark godoc
// @Summary 标记/取消标记当前题目
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=examsession.View}
// @Router /api/sessions/{id}/mark [post]
func (c *ExamController) Mark(ctx *gin.Context) {
	c.reply(ctx)(c.Exams.ToggleMark(util.GetCurrentUser(ctx).ID, ctx.Param("id")))
}

// Next godoc
// @Summary 下一题
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=examsession.View}
// @Router /api/sessions/{id}/next [post]
func (c *ExamController) Next(ctx *gin.Context) {
	c.reply(ctx)(c.Exams.Next(util.GetCurrentUser(ctx).ID, ctx.Param("id")))
}

// Previous godoc
// @Summary 上一题
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=examsession.View}
// @Router /api/sessions/{id}/previous [post]
func (c *ExamController) Previous(ctx *gin.Context) {
	c.reply(ctx)(c.Exams.Previous(util.GetCurrentUser(ctx).ID, ctx.Param("id")))
}

// swagger:model JumpRequest
type JumpRequest struct {
	Index *int `json:"index" binding:"required"`
}

// Jump godoc
// @Summary 跳转到指定题目
// @Tags 考试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   body body JumpRequest true "题目下标(0起)"
// @Success 200 {object} util.Response{data=examsession.View}
// @Router /api/sessions/{id}/jump [post]
func (c *ExamController) Jump(ctx *gin.Context) {
	var req JumpRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.reply(ctx)(c.Exams.JumpTo(util.GetCurrentUser(ctx).ID, ctx.Param("id"), *req.Index))
}

func (c *ExamController) reply(ctx *gin.Context) func(examsession.View, error) {
	return func(view examsession.View, err error) {
		if err != nil {
			respondError(ctx, err)
			return
		}
		util.Success(ctx, view)
	}
}

// SubmitPrompt godoc
// @Summary 交卷确认信息
// @Description 返回未作答题数，needsConfirm 为 true 时前端需二次确认
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=examsession.SubmitPrompt}
// @Router /api/sessions/{id}/submit-prompt [get]
func (c *ExamController) SubmitPrompt(ctx *gin.Context) {
	prompt, err := c.Exams.RequestSubmit(util.GetCurrentUser(ctx).ID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, prompt)
}

// Submit godoc
// @Summary 交卷
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Failure 409 {object} util.Response "会话已结束"
// @Router /api/sessions/{id}/submit [post]
func (c *ExamController) Submit(ctx *gin.Context) {
	res, err := c.Exams.Submit(ctx.Request.Context(), util.GetCurrentUser(ctx).ID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// Abandon godoc
// @Summary 放弃考试
// @Description 离开考试，不保存任何作答
// @Tags 考试
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/sessions/{id} [delete]
func (c *ExamController) Abandon(ctx *gin.Context) {
	if err := c.Exams.Abandon(util.GetCurrentUser(ctx).ID, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Result godoc
// @Summary 考试结果
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "答卷ID"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id}/result [get]
func (c *ExamController) Result(ctx *gin.Context) {
	res, err := c.Exams.Result(ctx.Request.Context(), util.GetCurrentUser(ctx).ID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
