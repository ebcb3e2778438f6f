package notification

import (
	"socialhub/internal/domain/notification/handler"
	"socialhub/internal/domain/notification/repository"
	"socialhub/internal/domain/notification/service"
	"socialhub/internal/pkg/registry"
)

// NotificationModule 通知模块
type NotificationModule struct{}

func init() {
	registry.Register(&NotificationModule{})
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) Priority() int {
	return 5
}

func (m *NotificationModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewNotificationRepository(ctx.DB)
	h := handler.NewNotificationHandler(service.NewNotificationService(repo))

	g := ctx.Router.Group("/notifications")
	g.Use(ctx.Auth)
	{
		g.GET("", h.List)
		g.GET("/unread-count", h.UnreadCount)
		g.POST("/read", h.MarkRead)
	}
	return nil
}
