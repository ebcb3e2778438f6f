package worker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []string
}

func (s *recordingSender) PushToAccount(accountID, title, body string, ext map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("push gateway timeout")
	}
	s.sent = append(s.sent, accountID)
	return nil
}

func (s *recordingSender) snapshot() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]string(nil), s.sent...)
}

func TestWorkerPool(t *testing.T) {
	t.Run("Delivers tasks", func(t *testing.T) {
		sender := &recordingSender{}
		p := NewWorkerPool(sender, 2, 16, 3)
		p.Start()
		defer p.Stop()

		assert.True(t, p.AddTask(PushTask{RecipientID: "u1", Title: "New follower"}))
		assert.True(t, p.AddTask(PushTask{RecipientID: "u2", Title: "New like"}))

		assert.Eventually(t, func() bool {
			_, sent := sender.snapshot()
			return len(sent) == 2
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("Retries failed pushes", func(t *testing.T) {
		sender := &recordingSender{failures: 2}
		p := NewWorkerPool(sender, 1, 16, 3)
		p.retryDelay = time.Millisecond
		p.Start()
		defer p.Stop()

		p.AddTask(PushTask{RecipientID: "u1"})

		assert.Eventually(t, func() bool {
			calls, sent := sender.snapshot()
			return calls == 3 && len(sent) == 1
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("Gives up after max retries", func(t *testing.T) {
		sender := &recordingSender{failures: 100}
		p := NewWorkerPool(sender, 1, 16, 2)
		p.retryDelay = time.Millisecond
		p.Start()
		defer p.Stop()

		p.AddTask(PushTask{RecipientID: "u1"})

		assert.Eventually(t, func() bool {
			calls, _ := sender.snapshot()
			return calls == 3
		}, time.Second, 5*time.Millisecond)

		time.Sleep(20 * time.Millisecond)
		calls, sent := sender.snapshot()
		assert.Equal(t, 3, calls)
		assert.Empty(t, sent)
	})

	t.Run("Rejects tasks after stop", func(t *testing.T) {
		p := NewWorkerPool(&recordingSender{}, 1, 4, 1)
		p.Start()
		p.Stop()
		assert.False(t, p.AddTask(PushTask{RecipientID: "u1"}))
	})
}
