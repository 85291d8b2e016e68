package controller

import (
	"net/http"

	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/kvstore"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	Store kvstore.Store
}

func NewHealthController(store kvstore.Store) *HealthController {
	return &HealthController{Store: store}
}

// @Summary 健康检查
// @Description 检查服务状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	if err := c.Store.Ping(ctx.Request.Context()); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"store": "up",
		},
	})
}
