package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"socialhub/internal/domain/user/model"
	"socialhub/internal/domain/user/repository"
	"socialhub/internal/pkg/otp"
	"socialhub/pkg/apperror"
	"socialhub/pkg/logger"
	"socialhub/pkg/security"
	"socialhub/pkg/utils"

	"go.uber.org/zap"
)

// ErrInvalidCode 验证码错误或已过期
var ErrInvalidCode = apperror.New(apperror.InvalidArgument, "invalid verification code")

// RegisterInput 注册参数
type RegisterInput struct {
	PhoneNumber string
	Code        string
	Username    string
	Email       string
	Gender      string
}

// ProfileUpdate 资料更新参数，nil 表示不修改
type ProfileUpdate struct {
	Username        *string
	PhoneNumber     *string
	Gender          *string
	Bio             *string
	ProfileImageRef *string
}

// LoginResult 登录结果
type LoginResult struct {
	Token    string      `json:"token"`
	ExpireAt *time.Time  `json:"expireAt"`
	User     *model.User `json:"user"`
}

// UserService 用户服务接口
type UserService interface {
	SendOTP(ctx context.Context, phone string) error
	Login(ctx context.Context, phone, code string) (*LoginResult, error)
	Register(ctx context.Context, in RegisterInput) (*LoginResult, error)
	GetUsers(ctx context.Context, page, limit int) ([]model.User, int64, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*model.User, error)
	ResolveRole(ctx context.Context, id string) (string, error)
	FindIDByPhone(ctx context.Context, phone string) (string, error)
}

// userService 实现
type userService struct {
	repo repository.UserRepository
	otp  otp.OTPService
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository, otp otp.OTPService) UserService {
	return &userService{repo: repo, otp: otp}
}

var phoneValidator = security.NewPhoneValidator(true, "")

func (s *userService) SendOTP(ctx context.Context, phone string) error {
	phone = phoneValidator.Sanitize(phone)
	if err := phoneValidator.Validate(phone); err != nil {
		return apperror.Wrap(apperror.InvalidArgument, err, "invalid phone number")
	}
	if _, err := s.otp.Send(ctx, phone); err != nil {
		if errors.Is(err, otp.ErrTooFrequent) {
			return apperror.Wrap(apperror.PreconditionFailed, err, "otp recently sent")
		}
		return apperror.Wrap(apperror.Unavailable, err, "send otp")
	}
	return nil
}

// Login 手机号 + 验证码登录。已封禁用户仍可登录，写操作在路由层拦截。
func (s *userService) Login(ctx context.Context, phone, code string) (*LoginResult, error) {
	phone = phoneValidator.Sanitize(phone)

	user, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !s.otp.Verify(ctx, phone, code) {
		return nil, ErrInvalidCode
	}
	return issueToken(user)
}

// Register 验证码校验通过后创建用户，角色为 user
func (s *userService) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	cleaned, result := security.NewValidatorSet().
		AddRule("phoneNumber", phoneValidator).
		AddRule("username", security.NewUsernameValidator()).
		AddRule("email", security.NewEmailValidator(true)).
		AddRule("gender", security.NewStringValidator(0, 16, false)).
		Validate(map[string]string{
			"phoneNumber": in.PhoneNumber,
			"username":    in.Username,
			"email":       in.Email,
			"gender":      in.Gender,
		})
	if !result.Valid {
		return nil, apperror.New(apperror.InvalidArgument, result.Error())
	}

	if !s.otp.Verify(ctx, cleaned["phoneNumber"], in.Code) {
		return nil, ErrInvalidCode
	}

	user := &model.User{
		Username:    cleaned["username"],
		Email:       cleaned["email"],
		PhoneNumber: cleaned["phoneNumber"],
		Gender:      cleaned["gender"],
		Role:        model.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Log.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return issueToken(user)
}

func issueToken(user *model.User) (*LoginResult, error) {
	token, expireAt, err := utils.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpireAt: expireAt, User: user}, nil
}

// GetUsers 获取用户列表（分页）
func (s *userService) GetUsers(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	offset, limit := utils.Offset(page, limit)
	return s.repo.GetList(ctx, offset, limit)
}

// GetUser 获取单个用户
func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile 更新资料，email 不可修改
func (s *userService) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*model.User, error) {
	values := map[string]string{}
	set := security.NewValidatorSet()
	if in.Username != nil {
		values["username"] = *in.Username
		set.AddRule("username", security.NewUsernameValidator())
	}
	if in.PhoneNumber != nil {
		values["phone_number"] = *in.PhoneNumber
		set.AddRule("phone_number", phoneValidator)
	}
	if in.Gender != nil {
		values["gender"] = *in.Gender
		set.AddRule("gender", security.NewStringValidator(0, 16, false))
	}
	if in.Bio != nil {
		values["bio"] = *in.Bio
		set.AddRule("bio", security.NewStringValidator(0, 500, false))
	}
	if in.ProfileImageRef != nil {
		values["profile_image_ref"] = strings.TrimSpace(*in.ProfileImageRef)
	}

	cleaned, result := set.Validate(values)
	if !result.Valid {
		return nil, apperror.New(apperror.InvalidArgument, result.Error())
	}

	fields := make(map[string]interface{}, len(values))
	for k, v := range values {
		if c, ok := cleaned[k]; ok {
			v = c
		}
		fields[k] = v
	}
	if len(fields) == 0 {
		return s.repo.GetByID(ctx, id)
	}

	if err := s.repo.UpdateProfile(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// ResolveRole 读取用户当前角色，不经过缓存
func (s *userService) ResolveRole(ctx context.Context, id string) (string, error) {
	return s.repo.GetRole(ctx, id)
}

// FindIDByPhone 供外部身份令牌映射到本系统用户
func (s *userService) FindIDByPhone(ctx context.Context, phone string) (string, error) {
	user, err := s.repo.GetByPhone(ctx, phoneValidator.Sanitize(phone))
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// RoleResolver 直接基于仓库的角色解析，供其他模块的路由使用
type RoleResolver struct {
	repo repository.UserRepository
}

func NewRoleResolver(repo repository.UserRepository) *RoleResolver {
	return &RoleResolver{repo: repo}
}

func (r *RoleResolver) ResolveRole(ctx context.Context, id string) (string, error) {
	return r.repo.GetRole(ctx, id)
}
