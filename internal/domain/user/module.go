package user

import (
	"socialhub/internal/domain/user/handler"
	"socialhub/internal/domain/user/repository"
	"socialhub/internal/domain/user/service"
	"socialhub/internal/pkg/config"
	"socialhub/internal/pkg/middleware"
	"socialhub/internal/pkg/otp"
	"socialhub/internal/pkg/registry"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 用户模块优先级最高，因为其他模块依赖它
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	otpService := otp.NewOTPService(ctx.Redis, config.GlobalConfig.App.TestOTPCode)
	userService := service.NewCachedUserService(
		service.NewUserService(userRepo, otpService),
		service.NewProfileCache(ctx.Cache),
	)
	userHandler := handler.NewUserHandler(userService)

	// 2. 路由注册
	setupRoutes(ctx, userHandler, service.NewRoleResolver(userRepo))

	return nil
}

func setupRoutes(ctx *registry.ModuleContext, h *handler.UserHandler, roles middleware.RoleResolver) {
	// 公开路由
	authGroup := ctx.Router.Group("/auth")
	{
		authGroup.POST("/otp", h.SendOTP)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
	}

	// 受保护的路由
	userGroup := ctx.Router.Group("/users")
	userGroup.Use(ctx.Auth)
	{
		userGroup.GET("", h.GetUsers)
		userGroup.GET("/:id", h.GetUser)
		userGroup.PUT("/me", middleware.RequireActive(roles), h.UpdateProfile)
	}
}
