package service

import (
	"socialhub/internal/domain/notification/model"
	"socialhub/internal/pkg/worker"
)

// Publisher 事务提交后把通知交给推送通道
type Publisher interface {
	Publish(notifications ...*model.Notification)
}

type pushPublisher struct {
	pool *worker.WorkerPool
}

// NewPublisher pool 为 nil 时不推送
func NewPublisher(pool *worker.WorkerPool) Publisher {
	if pool == nil {
		return NopPublisher{}
	}
	return &pushPublisher{pool: pool}
}

func (p *pushPublisher) Publish(notifications ...*model.Notification) {
	for _, n := range notifications {
		if n == nil {
			continue
		}
		ext := map[string]string{
			"notificationId": n.ID,
			"type":           n.Type,
			"actorId":        n.ActorID,
		}
		if n.PostID != nil {
			ext["postId"] = *n.PostID
		}
		if n.CommentID != nil {
			ext["commentId"] = *n.CommentID
		}
		p.pool.AddTask(worker.PushTask{
			RecipientID: n.RecipientID,
			Title:       n.Type,
			Body:        n.Message(),
			Ext:         ext,
		})
	}
}

// NopPublisher 丢弃所有通知
type NopPublisher struct{}

func (NopPublisher) Publish(...*model.Notification) {}
