package controller

import (
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PracticeController struct {
	Practice *service.PracticeService
}

func NewPracticeController(practice *service.PracticeService) *PracticeController {
	return &PracticeController{Practice: practice}
}

// Questions godoc
// @Summary 练习题目
// @Description 不含答案的题目列表
// @Tags 练习
// @Produce  json
// @Security ApiKeyAuth
// @Param   subjectId path string true "科目ID"
// @Success 200 {object} util.Response{data=[]model.PublicQuestion}
// @Router /api/practice/{subjectId}/questions [get]
func (c *PracticeController) Questions(ctx *gin.Context) {
	qs, err := c.Practice.Questions(ctx.Request.Context(), ctx.Param("subjectId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, qs)
}

// swagger:model CheckRequest
type CheckRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Option     *int   `json:"option" binding:"required"`
}

// Check godoc
// @Summary 检查练习答案
// @Tags 练习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CheckRequest true "题目与选项"
// @Success 200 {object} util.Response{data=service.PracticeFeedback}
// @Router /api/practice/check [post]
func (c *PracticeController) Check(ctx *gin.Context) {
	var req CheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	fb, err := c.Practice.Check(ctx.Request.Context(), req.QuestionID, *req.Option)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, fb)
}
