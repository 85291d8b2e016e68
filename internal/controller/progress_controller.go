package controller

import (
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Progress *service.ProgressService
}

func NewProgressController(progress *service.ProgressService) *ProgressController {
	return &ProgressController{Progress: progress}
}

// Overview godoc
// @Summary 学习概览
// @Description 总体进度、考试次数、平均分、学习时长及各科进度
// @Tags 进度
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.ProgressOverview}
// @Router /api/me/progress [get]
func (c *ProgressController) Overview(ctx *gin.Context) {
	ov, err := c.Progress.Overview(ctx.Request.Context(), util.GetCurrentUser(ctx).ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, ov)
}

// SubjectProgress godoc
// @Summary 单科进度
// @Tags 进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   subjectId path string true "科目ID"
// @Success 200 {object} util.Response{data=object}
// @Router /api/me/progress/{subjectId} [get]
func (c *ProgressController) SubjectProgress(ctx *gin.Context) {
	p, err := c.Progress.SubjectProgress(ctx.Request.Context(), util.GetCurrentUser(ctx).ID, ctx.Param("subjectId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"subjectId": ctx.Param("subjectId"), "progress": p})
}

// History godoc
// @Summary 考试记录
// @Tags 进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/me/history [get]
func (c *ProgressController) History(ctx *gin.Context) {
	attempts, err := c.Progress.ExamHistory(ctx.Request.Context(), util.GetCurrentUser(ctx).ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	limit := util.ParseIntDefault(ctx.Query("limit"), 20)
	util.Success(ctx, util.Paginate(attempts, page, limit))
}

// Recent godoc
// @Summary 最近活动
// @Tags 进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   n query int false "条数，默认5"
// @Success 200 {object} util.Response{data=[]service.Activity}
// @Router /api/me/recent [get]
func (c *ProgressController) Recent(ctx *gin.Context) {
	n := util.ParseIntDefault(ctx.Query("n"), service.DefaultRecentActivity)
	items, err := c.Progress.RecentActivity(ctx.Request.Context(), util.GetCurrentUser(ctx).ID, n)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, items)
}
