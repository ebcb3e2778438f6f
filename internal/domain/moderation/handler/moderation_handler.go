package handler

import (
	"net/http"

	"socialhub/internal/domain/moderation/model"
	"socialhub/internal/domain/moderation/service"
	"socialhub/internal/pkg/middleware"
	"socialhub/pkg/response"
	"socialhub/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	service service.ModerationService
}

func NewModerationHandler(s service.ModerationService) *ModerationHandler {
	return &ModerationHandler{service: s}
}

// ReportInput 举报输入
type ReportInput struct {
	TargetKind string `json:"targetKind" binding:"required,oneof=post comment profile"`
	TargetID   string `json:"targetId" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// ReasonInput 警告理由
type ReasonInput struct {
	Reason string `json:"reason" binding:"required"`
}

// ResolveInput 处理举报输入
type ResolveInput struct {
	Reason        string `json:"reason" binding:"required"`
	RemoveContent bool   `json:"removeContent"`
}

// ReportQuery 举报列表查询
type ReportQuery struct {
	utils.Pagination
	Status string `form:"status"`
	Kind   string `form:"kind"`
}

// SubmitReport 提交举报
// @Summary 举报帖子、评论或用户
// @Tags Moderation
// @Accept json
// @Produce json
// @Param input body ReportInput true "举报内容"
// @Success 200 {object} response.Response{data=model.Report}
// @Router /reports [post]
func (h *ModerationHandler) SubmitReport(c *gin.Context) {
	var input ReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	report, err := h.service.SubmitReport(c.Request.Context(), middleware.CurrentUserID(c), input.TargetKind, input.TargetID, input.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, report)
}

// ListReports 举报列表
// @Summary 举报列表
// @Tags Admin
// @Produce json
// @Param status query string false "pending | reviewed"
// @Param kind query string false "post | comment | profile"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /admin/reports [get]
func (h *ModerationHandler) ListReports(c *gin.Context) {
	var q ReportQuery
	_ = c.ShouldBindQuery(&q)
	q.Normalize()

	reports, total, err := h.service.ListReports(c.Request.Context(), middleware.CurrentUserID(c),
		model.ReportFilter{Status: q.Status, Kind: q.Kind}, q.Page, q.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, utils.PageResult{List: reports, Total: total, Page: q.Page, Limit: q.Limit})
}

// DismissReport 驳回举报
// @Summary 驳回举报
// @Tags Admin
// @Produce json
// @Param id path string true "举报ID"
// @Success 200 {object} response.Response
// @Router /admin/reports/{id}/dismiss [post]
func (h *ModerationHandler) DismissReport(c *gin.Context) {
	if err := h.service.DismissReport(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// ResolveReport 处理举报
// @Summary 警告被举报人，可选删除内容
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "举报ID"
// @Param input body ResolveInput true "处理方式"
// @Success 200 {object} response.Response{data=model.Warning}
// @Router /admin/reports/{id}/resolve [post]
func (h *ModerationHandler) ResolveReport(c *gin.Context) {
	var input ResolveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	warning, err := h.service.ResolveReport(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), input.Reason, input.RemoveContent)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, warning)
}

// IssueWarning 警告用户
// @Summary 警告用户 (最多 2 次)
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "用户ID"
// @Param input body ReasonInput true "理由"
// @Success 200 {object} response.Response{data=model.Warning}
// @Router /admin/users/{id}/warnings [post]
func (h *ModerationHandler) IssueWarning(c *gin.Context) {
	var input ReasonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	warning, err := h.service.IssueWarning(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), input.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, warning)
}

// ListWarnings 用户警告记录
// @Summary 用户警告记录
// @Tags Admin
// @Produce json
// @Param id path string true "用户ID"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /admin/users/{id}/warnings [get]
func (h *ModerationHandler) ListWarnings(c *gin.Context) {
	var p utils.Pagination
	_ = c.ShouldBindQuery(&p)
	p.Normalize()

	warnings, total, err := h.service.ListWarnings(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, utils.PageResult{List: warnings, Total: total, Page: p.Page, Limit: p.Limit})
}

// SuspendUser 封禁
// @Summary 封禁用户
// @Tags Admin
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/suspend [post]
func (h *ModerationHandler) SuspendUser(c *gin.Context) {
	if err := h.service.SuspendUser(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// UnsuspendUser 解封
// @Summary 解封用户 (角色恢复为 user)
// @Tags Admin
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/unsuspend [post]
func (h *ModerationHandler) UnsuspendUser(c *gin.Context) {
	if err := h.service.UnsuspendUser(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// DeleteUser 删除用户
// @Summary 删除用户及其全部数据 (仅管理员)
// @Tags Admin
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} response.Response
// @Router /admin/users/{id} [delete]
func (h *ModerationHandler) DeleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// ReportedUsers 被举报用户
// @Summary 被举报用户及待处理举报数
// @Tags Admin
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /admin/reported-users [get]
func (h *ModerationHandler) ReportedUsers(c *gin.Context) {
	var p utils.Pagination
	_ = c.ShouldBindQuery(&p)
	p.Normalize()

	users, total, err := h.service.ListReportedUsers(c.Request.Context(), middleware.CurrentUserID(c), p.Page, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, utils.PageResult{List: users, Total: total, Page: p.Page, Limit: p.Limit})
}

// Dashboard 概览
// @Summary 管理后台概览
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response{data=model.Dashboard}
// @Router /admin/dashboard [get]
func (h *ModerationHandler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, d)
}
