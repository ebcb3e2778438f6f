package moderation

import (
	"socialhub/internal/domain/moderation/handler"
	"socialhub/internal/domain/moderation/repository"
	"socialhub/internal/domain/moderation/service"
	notificationService "socialhub/internal/domain/notification/service"
	userModel "socialhub/internal/domain/user/model"
	userRepo "socialhub/internal/domain/user/repository"
	userService "socialhub/internal/domain/user/service"
	"socialhub/internal/pkg/middleware"
	"socialhub/internal/pkg/registry"
)

// ModerationModule 举报、警告、封禁
type ModerationModule struct{}

func init() {
	registry.Register(&ModerationModule{})
}

func (m *ModerationModule) Name() string {
	return "moderation"
}

func (m *ModerationModule) Priority() int {
	return 30
}

func (m *ModerationModule) Init(ctx *registry.ModuleContext) error {
	roles := userService.NewRoleResolver(userRepo.NewUserRepository(ctx.DB))
	svc := service.NewModerationService(
		repository.NewModerationRepository(ctx.DB),
		roles,
		notificationService.NewPublisher(ctx.Pusher),
		userService.NewProfileCache(ctx.Cache),
	)
	h := handler.NewModerationHandler(svc)

	ctx.Router.POST("/reports", ctx.Auth, middleware.RequireActive(roles), h.SubmitReport)

	admin := ctx.Router.Group("/admin")
	admin.Use(ctx.Auth, middleware.RequireRole(roles, userModel.RoleModerator, userModel.RoleAdmin))
	{
		admin.GET("/reports", h.ListReports)
		admin.POST("/reports/:id/dismiss", h.DismissReport)
		admin.POST("/reports/:id/resolve", h.ResolveReport)
		admin.GET("/reported-users", h.ReportedUsers)
		admin.GET("/dashboard", h.Dashboard)

		admin.POST("/users/:id/warnings", h.IssueWarning)
		admin.GET("/users/:id/warnings", h.ListWarnings)
		admin.POST("/users/:id/suspend", h.SuspendUser)
		admin.POST("/users/:id/unsuspend", h.UnsuspendUser)
		admin.DELETE("/users/:id", middleware.RequireRole(roles, userModel.RoleAdmin), h.DeleteUser)
	}
	return nil
}
