package controller

import (
	"io"
	"strings"

	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const maxBulkImportSize = 2 << 20

type ContentController struct {
	Content *service.ContentService
}

func NewContentController(content *service.ContentService) *ContentController {
	return &ContentController{Content: content}
}

// Subjects godoc
// @Summary 科目列表
// @Tags 内容
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Subject}
// @Router /api/subjects [get]
func (c *ContentController) Subjects(ctx *gin.Context) {
	util.Success(ctx, c.Content.Subjects())
}

// SubjectExams godoc
// @Summary 科目下的考试
// @Tags 内容
// @Produce  json
// @Param   id path string true "科目ID"
// @Success 200 {object} util.Response{data=[]model.Exam}
// @Failure 404 {object} util.Response
// @Router /api/subjects/{id}/exams [get]
func (c *ContentController) SubjectExams(ctx *gin.Context) {
	exams, err := c.Content.Exams(ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, exams)
}

// ListQuestions godoc
// @Summary 题库列表（管理员）
// @Tags 题库管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   subjectId query string false "科目ID"
// @Param   topic query string false "知识点"
// @Param   difficulty query string false "难度"
// @Param   q query string false "题干关键字"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/questions [get]
func (c *ContentController) ListQuestions(ctx *gin.Context) {
	filter := service.QuestionFilter{
		SubjectID:  ctx.Query("subjectId"),
		Topic:      ctx.Query("topic"),
		Difficulty: model.Difficulty(strings.ToLower(ctx.Query("difficulty"))),
		Query:      ctx.Query("q"),
	}
	qs, err := c.Content.ListQuestions(ctx.Request.Context(), filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	limit := util.ParseIntDefault(ctx.Query("limit"), 20)
	util.Success(ctx, util.Paginate(qs, page, limit))
}

// GetQuestion godoc
// @Summary 题目详情（管理员）
// @Tags 题库管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "题目ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [get]
func (c *ContentController) GetQuestion(ctx *gin.Context) {
	q, err := c.Content.Question(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// CreateQuestion godoc
// @Summary 新增题目
// @Description points 为空时默认 10 分
// @Tags 题库管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.QuestionInput true "题目"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Router /api/admin/questions [post]
func (c *ContentController) CreateQuestion(ctx *gin.Context) {
	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.Content.AddQuestion(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// UpdateQuestion godoc
// @Summary 修改题目
// @Description 只修改请求中出现的字段
// @Tags 题库管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "题目ID"
// @Param   body body model.QuestionPatch true "修改内容"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [put]
func (c *ContentController) UpdateQuestion(ctx *gin.Context) {
	var patch model.QuestionPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.Content.UpdateQuestion(ctx.Request.Context(), ctx.Param("id"), patch)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 题库管理
// @Security ApiKeyAuth
// @Param   id path string true "题目ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [delete]
func (c *ContentController) DeleteQuestion(ctx *gin.Context) {
	if err := c.Content.DeleteQuestion(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// BulkImport godoc
// @Summary 批量导入题目
// @Description 纯文本，每行一题: Subject|Topic|Difficulty|Question|Opt1|Opt2|Opt3|Opt4|CorrectIndex(1起)|Explanation
// @Tags 题库管理
// @Accept  plain
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.ImportReport}
// @Router /api/admin/questions/bulk [post]
func (c *ContentController) BulkImport(ctx *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxBulkImportSize))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	report, err := c.Content.BulkImport(ctx.Request.Context(), string(body))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, report)
}
