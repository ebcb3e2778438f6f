package handler

import (
	"net/http"

	"socialhub/internal/domain/notification/service"
	"socialhub/internal/pkg/middleware"
	"socialhub/pkg/response"
	"socialhub/pkg/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service service.NotificationService
}

func NewNotificationHandler(s service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: s}
}

// ListQuery 通知列表参数
type ListQuery struct {
	utils.Pagination
	Unread bool `form:"unread"`
}

// MarkReadInput ids 为空时全部标记已读
type MarkReadInput struct {
	IDs []string `json:"ids"`
}

// List 通知列表
// @Summary 我的通知 (按时间倒序)
// @Tags Notification
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Param unread query bool false "只看未读"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	q.Normalize()

	list, total, err := h.service.List(c.Request.Context(), middleware.CurrentUserID(c), q.Unread, q.Page, q.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, utils.PageResult{List: list, Total: total, Page: q.Page, Limit: q.Limit})
}

// UnreadCount 未读数
// @Summary 未读通知数
// @Tags Notification
// @Produce json
// @Success 200 {object} response.Response
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.service.UnreadCount(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

// MarkRead 标记已读
// @Summary 标记通知已读
// @Tags Notification
// @Accept json
// @Produce json
// @Param input body MarkReadInput false "通知ID列表"
// @Success 200 {object} response.Response
// @Router /notifications/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var input MarkReadInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
			return
		}
	}

	n, err := h.service.MarkRead(c.Request.Context(), middleware.CurrentUserID(c), input.IDs)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}
