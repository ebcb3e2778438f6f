package handler

import (
	"errors"
	"net/http"

	"socialhub/internal/domain/user/service"
	"socialhub/internal/pkg/middleware"
	"socialhub/pkg/response"
	"socialhub/pkg/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// SendOTPInput 发送验证码输入
type SendOTPInput struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// LoginInput 登录输入
type LoginInput struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

// RegisterInput 注册输入
type RegisterInput struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Gender      string `json:"gender"`
}

// UpdateProfileInput 资料更新输入，email 不可修改
type UpdateProfileInput struct {
	Username        *string `json:"username"`
	PhoneNumber     *string `json:"phoneNumber"`
	Gender          *string `json:"gender"`
	Bio             *string `json:"bio"`
	ProfileImageRef *string `json:"profileImageRef"`
}

// SendOTP 发送验证码
// @Summary 发送登录验证码
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body SendOTPInput true "手机号"
// @Success 200 {object} response.Response
// @Router /auth/otp [post]
func (h *UserHandler) SendOTP(c *gin.Context) {
	var input SendOTPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	if err := h.service.SendOTP(c.Request.Context(), input.PhoneNumber); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// Login 验证码登录
// @Summary 手机号验证码登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body LoginInput true "登录信息"
// @Success 200 {object} response.Response{data=service.LoginResult}
// @Router /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), input.PhoneNumber, input.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, err.Error())
			return
		}
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// Register 注册
// @Summary 注册新用户
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body RegisterInput true "注册信息"
// @Success 200 {object} response.Response{data=service.LoginResult}
// @Router /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.Register(c.Request.Context(), service.RegisterInput{
		PhoneNumber: input.PhoneNumber,
		Code:        input.Code,
		Username:    input.Username,
		Email:       input.Email,
		Gender:      input.Gender,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, err.Error())
			return
		}
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// GetUsers 用户列表
// @Summary 用户列表
// @Tags User
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /users [get]
func (h *UserHandler) GetUsers(c *gin.Context) {
	var p utils.Pagination
	_ = c.ShouldBindQuery(&p)
	p.Normalize()

	users, total, err := h.service.GetUsers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	for i := range users {
		users[i] = *users[i].Public()
	}
	response.Success(c, utils.PageResult{List: users, Total: total, Page: p.Page, Limit: p.Limit})
}

// GetUser 获取用户资料，本人可见联系方式
// @Summary 获取用户资料
// @Tags User
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id := c.Param("id")
	if id == "me" {
		id = middleware.CurrentUserID(c)
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if user.ID != middleware.CurrentUserID(c) {
		user = user.Public()
	}
	response.Success(c, user)
}

// UpdateProfile 更新本人资料
// @Summary 更新本人资料 (email 不可修改)
// @Tags User
// @Accept json
// @Produce json
// @Param input body UpdateProfileInput true "资料"
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/me [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), service.ProfileUpdate{
		Username:        input.Username,
		PhoneNumber:     input.PhoneNumber,
		Gender:          input.Gender,
		Bio:             input.Bio,
		ProfileImageRef: input.ProfileImageRef,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}
