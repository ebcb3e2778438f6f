package handler

import (
	"socialhub/internal/domain/social/service"
	"socialhub/internal/pkg/middleware"
	"socialhub/pkg/response"
	"socialhub/pkg/utils"

	"github.com/gin-gonic/gin"
)

type SocialHandler struct {
	service service.SocialService
}

func NewSocialHandler(s service.SocialService) *SocialHandler {
	return &SocialHandler{service: s}
}

// Follow 关注
// @Summary 关注用户
// @Tags Social
// @Produce json
// @Param id path string true "被关注用户ID"
// @Success 200 {object} response.Response{data=model.FollowStatus}
// @Router /users/{id}/follow [post]
func (h *SocialHandler) Follow(c *gin.Context) {
	me := middleware.CurrentUserID(c)
	if err := h.service.Follow(c.Request.Context(), me, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	h.status(c, me)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags Social
// @Produce json
// @Param id path string true "被关注用户ID"
// @Success 200 {object} response.Response{data=model.FollowStatus}
// @Router /users/{id}/follow [delete]
func (h *SocialHandler) Unfollow(c *gin.Context) {
	me := middleware.CurrentUserID(c)
	if err := h.service.Unfollow(c.Request.Context(), me, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	h.status(c, me)
}

// Status 关注状态与计数
// @Summary 关注状态与粉丝/关注数
// @Tags Social
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.FollowStatus}
// @Router /users/{id}/follow [get]
func (h *SocialHandler) Status(c *gin.Context) {
	h.status(c, middleware.CurrentUserID(c))
}

func (h *SocialHandler) status(c *gin.Context, viewerID string) {
	st, err := h.service.Status(c.Request.Context(), viewerID, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, st)
}

// Followers 粉丝列表
// @Summary 粉丝列表
// @Tags Social
// @Produce json
// @Param id path string true "用户ID"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /users/{id}/followers [get]
func (h *SocialHandler) Followers(c *gin.Context) {
	var p utils.Pagination
	_ = c.ShouldBindQuery(&p)
	p.Normalize()

	users, total, err := h.service.ListFollowers(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, utils.PageResult{List: users, Total: total, Page: p.Page, Limit: p.Limit})
}

// Following 关注列表
// @Summary 关注列表
// @Tags Social
// @Produce json
// @Param id path string true "用户ID"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /users/{id}/following [get]
func (h *SocialHandler) Following(c *gin.Context) {
	var p utils.Pagination
	_ = c.ShouldBindQuery(&p)
	p.Normalize()

	users, total, err := h.service.ListFollowing(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, utils.PageResult{List: users, Total: total, Page: p.Page, Limit: p.Limit})
}
