package app

import (
	"exam_portal_backend/docs"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/middleware"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, a.services.entitlement))
	{
		a.registerAccountRoutes(authGroup, c)

		// 试用期结束且未付费的学生不能考试或练习
		gated := authGroup.Group("")
		gated.Use(middleware.EntitlementMiddleware())
		a.registerStudyRoutes(gated, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.POST("/logout", c.auth.Logout)

		public.GET("/subjects", c.content.Subjects)
		public.GET("/subjects/:id/exams", c.content.SubjectExams)
	}
}

func (a *App) registerAccountRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/me", c.auth.Me)
	rg.POST("/me/payment", c.auth.SubmitPayment)

	// 学习进度
	rg.GET("/me/progress", c.progress.Overview)
	rg.GET("/me/progress/:subjectId", c.progress.SubjectProgress)
	rg.GET("/me/history", c.progress.History)
	rg.GET("/me/recent", c.progress.Recent)

	// 历史成绩在试用期结束后仍可查看
	rg.GET("/attempts/:id/result", c.exam.Result)
}

func (a *App) registerStudyRoutes(rg *gin.RouterGroup, c *controllers) {
	// 练习模式
	rg.GET("/practice/:subjectId/questions", c.practice.Questions)
	rg.POST("/practice/check", c.practice.Check)

	// 考试
	rg.POST("/exams/:examId/start", c.exam.Start)

	sessions := rg.Group("/sessions")
	{
		sessions.GET("/current", c.exam.Current)
		sessions.POST("/:id/answer", c.exam.Answer)
		sessions.POST("/:id/mark", c.exam.Mark)
		sessions.POST("/:id/next", c.exam.Next)
		sessions.POST("/:id/previous", c.exam.Previous)
		sessions.POST("/:id/jump", c.exam.Jump)
		sessions.GET("/:id/submit-prompt", c.exam.SubmitPrompt)
		sessions.POST("/:id/submit", c.exam.Submit)
		sessions.DELETE("/:id", c.exam.Abandon)
		sessions.GET("/:id/stream", c.exam.Stream)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg, a.services.entitlement), middleware.RoleMiddleware(model.Admin))
	{
		// 题库管理
		admin.GET("/questions", c.content.ListQuestions)
		admin.GET("/questions/:id", c.content.GetQuestion)
		admin.POST("/questions", c.content.CreateQuestion)
		admin.POST("/questions/bulk", c.content.BulkImport)
		admin.PUT("/questions/:id", c.content.UpdateQuestion)
		admin.DELETE("/questions/:id", c.content.DeleteQuestion)

		// 用户与付款审核
		admin.GET("/users", c.admin.Users)
		admin.PATCH("/users/:id", c.admin.UpdateUser)
		admin.GET("/payments/pending", c.admin.PendingPayments)
		admin.POST("/payments/:id/review", c.admin.ReviewPayment)

		admin.GET("/stats", c.admin.Stats)
	}
}
