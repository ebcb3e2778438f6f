package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialhub/internal/domain/user/model"
	"socialhub/pkg/cache"
	"socialhub/pkg/logger"

	"go.uber.org/zap"
)

// 缓存键常量
const (
	UserCacheKeyPrefix = "user:"
	UserCacheTTL       = time.Minute * 10
)

// ProfileCache 用户资料缓存。计数器、角色、资料的任何变更都需要调用 Invalidate。
type ProfileCache struct {
	cache cache.CacheService
}

func NewProfileCache(c cache.CacheService) *ProfileCache {
	return &ProfileCache{cache: c}
}

func (p *ProfileCache) key(id string) string {
	return fmt.Sprintf("%s%s", UserCacheKeyPrefix, id)
}

// Invalidate 清除用户缓存，失败只记录日志
func (p *ProfileCache) Invalidate(ctx context.Context, ids ...string) {
	if p == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = p.key(id)
	}
	if err := p.cache.Delete(ctx, keys...); err != nil {
		logger.Log.Warn("failed to invalidate user cache", zap.Strings("user_ids", ids), zap.Error(err))
	}
}

// CachedUserService 带缓存的用户服务，只缓存 GetUser
type CachedUserService struct {
	UserService
	profiles *ProfileCache
}

// NewCachedUserService 创建带缓存的用户服务
func NewCachedUserService(inner UserService, profiles *ProfileCache) UserService {
	return &CachedUserService{UserService: inner, profiles: profiles}
}

// GetUser 获取单个用户（带缓存）
func (s *CachedUserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := s.profiles.cache.Get(ctx, s.profiles.key(id), &user)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Log.Warn("user cache read failed", zap.String("user_id", id), zap.Error(err))
	}

	u, err := s.UserService.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.cache.Set(ctx, s.profiles.key(id), u, UserCacheTTL); err != nil {
		logger.Log.Warn("failed to cache user", zap.String("user_id", id), zap.Error(err))
	}
	return u, nil
}

// UpdateProfile 更新资料（带缓存失效）
func (s *CachedUserService) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*model.User, error) {
	u, err := s.UserService.UpdateProfile(ctx, id, in)
	s.profiles.Invalidate(ctx, id)
	return u, err
}
