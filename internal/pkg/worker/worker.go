package worker

import (
	"sync"
	"time"

	"socialhub/internal/pkg/push"
	"socialhub/pkg/logger"
	"socialhub/pkg/metrics"

	"go.uber.org/zap"
)

// PushTask 一条待推送的通知
type PushTask struct {
	RecipientID string
	Title       string
	Body        string
	Ext         map[string]string
	Retry       int // 重试次数
}

// WorkerPool 通知推送协程池：主队列 + 重试队列，超过重试次数写入死信日志
type WorkerPool struct {
	TaskQueue  chan PushTask
	RetryQueue chan PushTask // 重试队列
	Sender     push.Sender
	WorkerNum  int
	MaxRetry   int // 最大重试次数

	retryDelay time.Duration
	quit       chan struct{}
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

func NewWorkerPool(sender push.Sender, workerNum int, bufferSize int, maxRetry int) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	if bufferSize < 2 {
		bufferSize = 2
	}
	return &WorkerPool{
		TaskQueue:  make(chan PushTask, bufferSize),
		RetryQueue: make(chan PushTask, bufferSize/2),
		Sender:     sender,
		WorkerNum:  workerNum,
		MaxRetry:   maxRetry,
		retryDelay: time.Second,
		quit:       make(chan struct{}),
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	logger.Log.Info("push worker pool started", zap.Int("workers", p.WorkerNum))
}

// Stop 停止接收任务，处理完主队列中剩余的任务后返回
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.wg.Wait()
		logger.Log.Info("push worker pool stopped")
	})
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.TaskQueue:
			p.handle(id, task)
		case <-p.quit:
			// 退出前清空主队列
			for {
				select {
				case task := <-p.TaskQueue:
					p.handle(id, task)
				default:
					return
				}
			}
		}
	}
}

func (p *WorkerPool) handle(id int, task PushTask) {
	defer metrics.GetGlobalCollector().SetPushQueueDepth(len(p.TaskQueue))

	err := p.Sender.PushToAccount(task.RecipientID, task.Title, task.Body, task.Ext)
	if err == nil {
		metrics.GetGlobalCollector().RecordPush("sent")
		return
	}

	logger.Log.Warn("push failed",
		zap.Int("worker", id),
		zap.String("recipient", task.RecipientID),
		zap.Int("retry", task.Retry),
		zap.Error(err),
	)

	if task.Retry >= p.MaxRetry {
		p.logFailedTask(task, err)
		return
	}

	task.Retry++
	select {
	case <-p.quit:
		p.logFailedTask(task, err)
		return
	default:
	}

	select {
	case p.RetryQueue <- task:
		metrics.GetGlobalCollector().RecordPush("retried")
	default:
		p.logFailedTask(task, err)
	}
}

func (p *WorkerPool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			select {
			case <-p.quit:
				p.logFailedTask(task, nil)
				return
			case <-time.After(time.Duration(task.Retry) * p.retryDelay):
			}

			select {
			case p.TaskQueue <- task:
			default:
				p.logFailedTask(task, nil)
			}
		}
	}
}

func (p *WorkerPool) logFailedTask(task PushTask, err error) {
	metrics.GetGlobalCollector().RecordPush("dropped")
	logger.Log.Error("[DeadLetter] push dropped",
		zap.String("recipient", task.RecipientID),
		zap.String("title", task.Title),
		zap.Int("retry", task.Retry),
		zap.Error(err),
	)
}

// AddTask 非阻塞入队，队列已满或已停止时丢弃
func (p *WorkerPool) AddTask(task PushTask) bool {
	select {
	case <-p.quit:
		p.logFailedTask(task, nil)
		return false
	default:
	}

	select {
	case p.TaskQueue <- task:
		metrics.GetGlobalCollector().SetPushQueueDepth(len(p.TaskQueue))
		return true
	default:
		p.logFailedTask(task, nil)
		return false
	}
}
