package social

import (
	notificationService "socialhub/internal/domain/notification/service"
	"socialhub/internal/domain/social/handler"
	"socialhub/internal/domain/social/repository"
	"socialhub/internal/domain/social/service"
	userRepo "socialhub/internal/domain/user/repository"
	userService "socialhub/internal/domain/user/service"
	"socialhub/internal/pkg/middleware"
	"socialhub/internal/pkg/registry"
)

// SocialModule 关注关系模块
type SocialModule struct{}

func init() {
	registry.Register(&SocialModule{})
}

func (m *SocialModule) Name() string {
	return "social"
}

func (m *SocialModule) Priority() int {
	return 10
}

func (m *SocialModule) Init(ctx *registry.ModuleContext) error {
	svc := service.NewSocialService(
		repository.NewFollowRepository(ctx.DB),
		notificationService.NewPublisher(ctx.Pusher),
		userService.NewProfileCache(ctx.Cache),
	)
	h := handler.NewSocialHandler(svc)
	roles := userService.NewRoleResolver(userRepo.NewUserRepository(ctx.DB))

	g := ctx.Router.Group("/users/:id")
	g.Use(ctx.Auth)
	{
		g.GET("/followers", h.Followers)
		g.GET("/following", h.Following)
		g.GET("/follow", h.Status)
		g.POST("/follow", middleware.RequireActive(roles), h.Follow)
		g.DELETE("/follow", middleware.RequireActive(roles), h.Unfollow)
	}
	return nil
}
