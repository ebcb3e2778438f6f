package push

import (
	"encoding/json"
	"fmt"

	"socialhub/internal/pkg/config"
	"socialhub/pkg/logger"

	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/push"
	"go.uber.org/zap"
)

// Sender 推送通道，账号即用户 ID
type Sender interface {
	PushToAccount(accountID string, title, body string, extParameters map[string]string) error
}

type AliyunPushService struct {
	client *push.Client
	appKey int64
}

// ErrPushNotConfigured 未配置推送凭据
var ErrPushNotConfigured = fmt.Errorf("push config is missing")

func NewAliyunPushService(cfg config.PushConfig) (*AliyunPushService, error) {
	if cfg.AccessKeyID == "" || cfg.AppKey == 0 {
		return nil, ErrPushNotConfigured
	}

	client, err := push.NewClientWithAccessKey(
		cfg.RegionID,
		cfg.AccessKeyID,
		cfg.AccessKeySecret,
	)
	if err != nil {
		return nil, err
	}

	return &AliyunPushService{
		client: client,
		appKey: cfg.AppKey,
	}, nil
}

func (s *AliyunPushService) PushToAccount(accountID string, title, body string, extParameters map[string]string) error {
	request := push.CreatePushRequest()
	request.AppKey = requests.NewInteger(int(s.appKey))
	request.Target = "ACCOUNT"
	request.TargetValue = accountID
	request.Title = title
	request.Body = body
	request.DeviceType = "ALL"  // iOS & Android
	request.PushType = "NOTICE" // 通知

	if len(extParameters) > 0 {
		extJSON, err := json.Marshal(extParameters)
		if err != nil {
			return err
		}
		request.AndroidExtParameters = string(extJSON)
		request.IOSExtParameters = string(extJSON)
	}

	resp, err := s.client.Push(request)
	if err != nil {
		return fmt.Errorf("aliyun push to %s: %w", accountID, err)
	}
	logger.Log.Debug("push sent", zap.String("account", accountID), zap.String("message_id", resp.MessageId))
	return nil
}

// LogSender 未配置推送时使用，只记录日志
type LogSender struct{}

func (LogSender) PushToAccount(accountID string, title, body string, extParameters map[string]string) error {
	logger.Log.Info("push (log only)",
		zap.String("account", accountID),
		zap.String("title", title),
		zap.String("body", body),
		zap.Any("ext", extParameters),
	)
	return nil
}

// NewSender 按配置创建推送通道，缺少配置时降级为 LogSender
func NewSender(cfg config.PushConfig) Sender {
	s, err := NewAliyunPushService(cfg)
	if err != nil {
		logger.Log.Warn("aliyun push disabled, falling back to log sender", zap.Error(err))
		return LogSender{}
	}
	return s
}
