package engagement

import (
	"socialhub/internal/domain/engagement/handler"
	"socialhub/internal/domain/engagement/repository"
	"socialhub/internal/domain/engagement/service"
	notificationService "socialhub/internal/domain/notification/service"
	userRepo "socialhub/internal/domain/user/repository"
	userService "socialhub/internal/domain/user/service"
	"socialhub/internal/pkg/middleware"
	"socialhub/internal/pkg/registry"
)

// EngagementModule 帖子、点赞、评论
type EngagementModule struct{}

func init() {
	registry.Register(&EngagementModule{})
}

func (m *EngagementModule) Name() string {
	return "engagement"
}

func (m *EngagementModule) Priority() int {
	return 20
}

func (m *EngagementModule) Init(ctx *registry.ModuleContext) error {
	svc := service.NewEngagementService(
		repository.NewEngagementRepository(ctx.DB),
		notificationService.NewPublisher(ctx.Pusher),
	)
	h := handler.NewEngagementHandler(svc)
	active := middleware.RequireActive(userService.NewRoleResolver(userRepo.NewUserRepository(ctx.DB)))

	posts := ctx.Router.Group("/posts")
	posts.Use(ctx.Auth)
	{
		posts.POST("", active, h.CreatePost)
		posts.GET("/feed", h.Feed)
		posts.GET("/:id", h.GetPost)
		posts.PUT("/:id", active, h.UpdatePost)
		posts.DELETE("/:id", active, h.DeletePost)
		posts.POST("/:id/like", active, h.ToggleLike)
		posts.GET("/:id/likes", h.Likers)
		posts.GET("/:id/comments", h.Comments)
		posts.POST("/:id/comments", active, h.AddComment)
	}

	ctx.Router.DELETE("/comments/:id", ctx.Auth, active, h.DeleteComment)
	ctx.Router.GET("/users/:id/posts", ctx.Auth, h.UserPosts)
	return nil
}
