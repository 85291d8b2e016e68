package controller

import (
	"net/http"

	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Entitlement *service.EntitlementService
}

func NewAuthController(entitlement *service.EntitlementService) *AuthController {
	return &AuthController{Entitlement: entitlement}
}

// RegisterRequest defines model for registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register godoc
// @Summary 注册新用户
// @Description 创建学生账号并开始试用期
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body RegisterRequest true "用户注册信息"
// @Success 201 {object} util.Response{data=object} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.Entitlement.Register(ctx.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}

	token, err := util.GenerateJWT(user, c.Entitlement.Cfg.JWT.Secret, c.Entitlement.Cfg.JWT.ExpireTime)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"user": user.Sanitized(), "token": token})
}

// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
}

// Login godoc
// @Summary 用户登录
// @Description 登录并返回JWT，同时检查试用期是否到期
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录信息"
// @Success 200 {object} util.Response{data=object}
// @Failure 401 {object} util.Response "密码错误"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, token, err := c.Entitlement.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"user": user.Sanitized(), "token": token})
}

// Logout godoc
// @Summary 退出登录
// @Tags 认证
// @Produce  json
// @Success 200 {object} util.Response
// @Router /api/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	if err := c.Entitlement.Logout(ctx.Request.Context()); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Me godoc
// @Summary 当前用户
// @Description 返回当前用户及试用剩余时间
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	user := util.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, gin.H{
		"user":                  user.Sanitized(),
		"hasAccess":             user.HasAccess(),
		"trialRemainingSeconds": int64(user.TrialRemaining(c.Entitlement.Now()).Seconds()),
	})
}

// SubmitPayment godoc
// @Summary 提交付款凭证
// @Description 上传付款截图(multipart字段 receipt)或填写转账流水号(reference)，进入人工审核
// @Tags 用户
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   receipt formData file false "付款凭证"
// @Param   reference formData string false "转账流水号"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Router /api/me/payment [post]
func (c *AuthController) SubmitPayment(ctx *gin.Context) {
	user := util.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	sub := service.PaymentSubmission{Reference: ctx.PostForm("reference")}

	fileHeader, err := ctx.FormFile("receipt")
	if err != nil && err != http.ErrMissingFile {
		util.BadRequest(ctx, err.Error())
		return
	}
	if fileHeader != nil {
		if fileHeader.Size > util.MaxReceiptSize {
			util.BadRequest(ctx, "receipt exceeds 5MB")
			return
		}
		if !util.HasAllowedExtension(fileHeader.Filename, util.AllowedReceiptExtensions) {
			util.BadRequest(ctx, "unsupported receipt file type")
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		defer file.Close()

		mimeType, err := util.ValidateMimeType(file, util.AllowedReceiptTypes)
		if err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
		if _, err := file.Seek(0, 0); err != nil {
			util.LogInternalError(ctx, err)
			return
		}

		sub.Receipt = &service.Receipt{
			Filename:    fileHeader.Filename,
			ContentType: mimeType,
			Size:        fileHeader.Size,
			Body:        file,
		}
	}

	updated, err := c.Entitlement.SubmitPayment(ctx.Request.Context(), user.ID, sub)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, updated.Sanitized())
}
