package handler

import (
	"net/http"

	"socialhub/internal/domain/engagement/service"
	"socialhub/internal/pkg/middleware"
	"socialhub/pkg/response"
	"socialhub/pkg/utils"

	"github.com/gin-gonic/gin"
)

type EngagementHandler struct {
	service service.EngagementService
}

func NewEngagementHandler(s service.EngagementService) *EngagementHandler {
	return &EngagementHandler{service: s}
}

// PostInput 发布/更新帖子输入
type PostInput struct {
	Content  string `json:"content"`
	ImageRef string `json:"imageRef"`
	Location string `json:"location"`
}

// CommentInput 评论输入
type CommentInput struct {
	Content string `json:"content" binding:"required"`
}

func (in PostInput) toService() service.PostInput {
	return service.PostInput{Content: in.Content, ImageRef: in.ImageRef, Location: in.Location}
}

func bindPage(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	_ = c.ShouldBindQuery(&p)
	p.Normalize()
	return p
}

// CreatePost 发布帖子
// @Summary 发布帖子
// @Tags Post
// @Accept json
// @Produce json
// @Param input body PostInput true "帖子内容"
// @Success 200 {object} response.Response{data=model.Post}
// @Router /posts [post]
func (h *EngagementHandler) CreatePost(c *gin.Context) {
	var input PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), middleware.CurrentUserID(c), input.toService())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, post)
}

// GetPost 帖子详情
// @Summary 帖子详情
// @Tags Post
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=model.Post}
// @Router /posts/{id} [get]
func (h *EngagementHandler) GetPost(c *gin.Context) {
	post, err := h.service.GetPost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, post)
}

// UpdatePost 更新帖子
// @Summary 更新帖子 (仅作者)
// @Tags Post
// @Accept json
// @Produce json
// @Param id path string true "帖子ID"
// @Param input body PostInput true "帖子内容"
// @Success 200 {object} response.Response{data=model.Post}
// @Router /posts/{id} [put]
func (h *EngagementHandler) UpdatePost(c *gin.Context) {
	var input PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.service.UpdatePost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), input.toService())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, post)
}

// DeletePost 删除帖子
// @Summary 删除帖子 (仅作者)
// @Tags Post
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Router /posts/{id} [delete]
func (h *EngagementHandler) DeletePost(c *gin.Context) {
	if err := h.service.DeletePost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// Feed 关注流
// @Summary 自己和关注用户的帖子
// @Tags Post
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /posts/feed [get]
func (h *EngagementHandler) Feed(c *gin.Context) {
	p := bindPage(c)
	posts, total, err := h.service.Feed(c.Request.Context(), middleware.CurrentUserID(c), p.Page, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, utils.PageResult{List: posts, Total: total, Page: p.Page, Limit: p.Limit})
}

// UserPosts 用户帖子列表
// @Summary 用户帖子列表
// @Tags Post
// @Produce json
// @Param id path string true "用户ID"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /users/{id}/posts [get]
func (h *EngagementHandler) UserPosts(c *gin.Context) {
	p := bindPage(c)
	posts, total, err := h.service.ListUserPosts(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, utils.PageResult{List: posts, Total: total, Page: p.Page, Limit: p.Limit})
}

// ToggleLike 点赞/取消点赞
// @Summary 点赞/取消点赞
// @Tags Post
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=model.LikeResult}
// @Router /posts/{id}/like [post]
func (h *EngagementHandler) ToggleLike(c *gin.Context) {
	result, err := h.service.ToggleLike(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// Likers 点赞用户列表
// @Summary 点赞用户列表
// @Tags Post
// @Produce json
// @Param id path string true "帖子ID"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /posts/{id}/likes [get]
func (h *EngagementHandler) Likers(c *gin.Context) {
	p := bindPage(c)
	users, total, err := h.service.ListLikers(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, utils.PageResult{List: users, Total: total, Page: p.Page, Limit: p.Limit})
}

// AddComment 发表评论
// @Summary 发表评论
// @Tags Comment
// @Accept json
// @Produce json
// @Param id path string true "帖子ID"
// @Param input body CommentInput true "评论内容"
// @Success 200 {object} response.Response{data=model.Comment}
// @Router /posts/{id}/comments [post]
func (h *EngagementHandler) AddComment(c *gin.Context) {
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), input.Content)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, comment)
}

// Comments 评论列表
// @Summary 评论列表
// @Tags Comment
// @Produce json
// @Param id path string true "帖子ID"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /posts/{id}/comments [get]
func (h *EngagementHandler) Comments(c *gin.Context) {
	p := bindPage(c)
	comments, total, err := h.service.ListComments(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, utils.PageResult{List: comments, Total: total, Page: p.Page, Limit: p.Limit})
}

// DeleteComment 删除评论
// @Summary 删除评论 (仅评论作者)
// @Tags Comment
// @Produce json
// @Param id path string true "评论ID"
// @Success 200 {object} response.Response
// @Router /comments/{id} [delete]
func (h *EngagementHandler) DeleteComment(c *gin.Context) {
	if err := h.service.DeleteComment(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}
