package controller

import (
	"time"

	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Entitlement *service.EntitlementService
	Admin       *service.AdminService
}

func NewAdminController(entitlement *service.EntitlementService, admin *service.AdminService) *AdminController {
	return &AdminController{Entitlement: entitlement, Admin: admin}
}

// Users godoc
// @Summary 用户列表
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   role query string false "角色"
// @Param   status query string false "状态 trial|paid|expired"
// @Param   paymentStatus query string false "付款状态"
// @Param   q query string false "姓名或邮箱"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/users [get]
func (c *AdminController) Users(ctx *gin.Context) {
	users, err := c.Entitlement.ListUsers(ctx.Request.Context(), service.UserFilter{
		Role:          model.UserRole(ctx.Query("role")),
		Status:        model.UserStatus(ctx.Query("status")),
		PaymentStatus: model.PaymentStatus(ctx.Query("paymentStatus")),
		Query:         ctx.Query("q"),
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	limit := util.ParseIntDefault(ctx.Query("limit"), 20)
	util.Success(ctx, util.Paginate(users, page, limit))
}

// UpdateUserRequest 管理员手动调整用户状态，字段为空表示不修改
// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	Status         *model.UserStatus    `json:"status"`
	PaymentStatus  *model.PaymentStatus `json:"paymentStatus"`
	TrialStartDate *time.Time           `json:"trialStartDate"`
	TrialEndDate   *time.Time           `json:"trialEndDate"`
}

func (r UpdateUserRequest) commands() []model.UserCommand {
	var cmds []model.UserCommand
	if r.Status != nil {
		cmds = append(cmds, model.SetStatus{Status: *r.Status})
	}
	if r.PaymentStatus != nil {
		cmds = append(cmds, model.SetPaymentStatus{PaymentStatus: *r.PaymentStatus})
	}
	if r.TrialStartDate != nil || r.TrialEndDate != nil {
		cmd := model.SetTrialDates{}
		if r.TrialStartDate != nil {
			cmd.Start = *r.TrialStartDate
		}
		if r.TrialEndDate != nil {
			cmd.End = *r.TrialEndDate
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// UpdateUser godoc
// @Summary 修改用户状态
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "用户ID"
// @Param   body body UpdateUserRequest true "修改内容"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Router /api/admin/users/{id} [patch]
func (c *AdminController) UpdateUser(ctx *gin.Context) {
	var req UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	cmds := req.commands()
	if len(cmds) == 0 {
		util.BadRequest(ctx, "nothing to update")
		return
	}
	user, err := c.Entitlement.Apply(ctx.Request.Context(), ctx.Param("id"), cmds...)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user.Sanitized())
}

// PendingPayments godoc
// @Summary 待审核付款
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.User}
// @Router /api/admin/payments/pending [get]
func (c *AdminController) PendingPayments(ctx *gin.Context) {
	users, err := c.Entitlement.PendingPayments(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// swagger:model ReviewPaymentRequest
type ReviewPaymentRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// ReviewPayment godoc
// @Summary 审核付款
// @Description 通过后用户变为付费用户；拒绝后用户变为过期状态
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "用户ID"
// @Param   body body ReviewPaymentRequest true "审核结果"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 409 {object} util.Response "没有待审核的付款"
// @Router /api/admin/payments/{id}/review [post]
func (c *AdminController) ReviewPayment(ctx *gin.Context) {
	var req ReviewPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.Entitlement.ReviewPayment(ctx.Request.Context(), ctx.Param("id"), *req.Approve)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user.Sanitized())
}

// Stats godoc
// @Summary 平台统计
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.PlatformStats}
// @Router /api/admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	st, err := c.Admin.Stats(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, st)
}
