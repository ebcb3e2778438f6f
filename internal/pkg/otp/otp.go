package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"socialhub/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	codeTTL      = 5 * time.Minute
	resendWindow = time.Minute
)

// ErrTooFrequent 发送过于频繁
var ErrTooFrequent = errors.New("please wait before sending again")

type OTPService interface {
	Send(ctx context.Context, phone string) (string, error)
	Verify(ctx context.Context, phone, code string) bool
}

type otpService struct {
	rdb *redis.Client
	// fixedCode 非空时固定验证码，仅用于开发/测试环境
	fixedCode string
}

func NewOTPService(rdb *redis.Client, fixedCode string) OTPService {
	return &otpService{rdb: rdb, fixedCode: fixedCode}
}

func key(phone string) string {
	return fmt.Sprintf("otp:%s", phone)
}

// Send 生成验证码存入 Redis (5 分钟有效)，1 分钟内不可重复发送。
// 短信通道未接入，验证码写入日志。
func (s *otpService) Send(ctx context.Context, phone string) (string, error) {
	ttl, err := s.rdb.TTL(ctx, key(phone)).Result()
	if err == nil && ttl > codeTTL-resendWindow {
		return "", ErrTooFrequent
	}

	code := s.fixedCode
	if code == "" {
		if code, err = randomCode(); err != nil {
			return "", err
		}
	}

	if err := s.rdb.Set(ctx, key(phone), code, codeTTL).Err(); err != nil {
		return "", err
	}

	logger.Log.Info("otp issued", zap.String("phone", phone), zap.String("code", code))
	return code, nil
}

// Verify 验证成功后立即删除，防止重放
func (s *otpService) Verify(ctx context.Context, phone, code string) bool {
	val, err := s.rdb.Get(ctx, key(phone)).Result()
	if err != nil || val != code {
		return false
	}
	// 并发验证同一验证码时只有一个请求能删除成功
	n, err := s.rdb.Del(ctx, key(phone)).Result()
	return err == nil && n == 1
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
