package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/api/middleware"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/database"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/resume"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/tasks"
)

// TaskEnqueuer 抽象任务入队，便于测试时替换 asynq 客户端。
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ResumeHandler 负责处理与简历相关的 API 请求。
type ResumeHandler struct {
	svc         *resume.Service
	asynqClient TaskEnqueuer
	storage     ObjectStorage
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(svc *resume.Service, asynqClient TaskEnqueuer, storageClient ObjectStorage) *ResumeHandler {
	return &ResumeHandler{
		svc:         svc,
		asynqClient: asynqClient,
		storage:     storageClient,
	}
}

const minIntroduceChars = 150

type createResumeRequest struct {
	Title     string `json:"title" binding:"required"`
	Introduce string `json:"introduce" binding:"required"`
}

type resumeResponse struct {
	ResumeID  uint      `json:"resumeId"`
	Title     string    `json:"title"`
	Introduce string    `json:"introduce"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type resumeLogResponse struct {
	ResumeLogID uint      `json:"resumeLogId"`
	RecruiterID uint      `json:"recruiterId"`
	ResumeID    uint      `json:"resumeId"`
	OldState    string    `json:"oldState"`
	NewState    string    `json:"newState"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateResume 创建一份新简历，初始阶段为 APPLY。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req createResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if utf8.RuneCountInString(req.Introduce) < minIntroduceChars {
		BadRequest(c, MsgIntroduceTooShort)
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	record, err := h.svc.Create(c.Request.Context(), ident.UserID, req.Title, req.Introduce)
	if err != nil {
		h.respondError(c, err)
		return
	}

	OK(c, http.StatusCreated, MsgResumeCreated, gin.H{"resume": newResumeResponse(record)})
}

// ListResumes 返回调用者可见的简历列表。
// 招聘负责人可通过 status 过滤阶段；求职者只能看到自己的简历。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	views, err := h.svc.List(c.Request.Context(), ident, c.Query("status"), c.Query("sort"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	OK(c, http.StatusOK, MsgResumeListFetched, gin.H{"resumes": views})
}

// GetResumeDetail 返回单份简历详情。
func (h *ResumeHandler) GetResumeDetail(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	resumeID, ok := resumeIDFromParam(c)
	if !ok {
		return
	}

	view, err := h.svc.Detail(c.Request.Context(), ident, resumeID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	OK(c, http.StatusOK, MsgResumeFetched, gin.H{"resume": view})
}

type updateResumeRequest struct {
	Title     *string `json:"title"`
	Introduce *string `json:"introduce"`
}

// UpdateResume 修改简历的标题/自我介绍，只应用实际传入的字段。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	var req updateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Introduce != nil && utf8.RuneCountInString(*req.Introduce) < minIntroduceChars {
		BadRequest(c, MsgIntroduceTooShort)
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	resumeID, ok := resumeIDFromParam(c)
	if !ok {
		return
	}

	record, err := h.svc.Update(c.Request.Context(), resumeID, ident.UserID, req.Title, req.Introduce)
	if err != nil {
		h.respondError(c, err)
		return
	}

	OK(c, http.StatusCreated, MsgResumeUpdated, gin.H{"updatedResume": newResumeResponse(record)})
}

// DeleteResume 删除调用者自己的简历。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	resumeID, ok := resumeIDFromParam(c)
	if !ok {
		return
	}

	deletedID, err := h.svc.Delete(c.Request.Context(), resumeID, ident.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	OK(c, http.StatusCreated, MsgResumeDeleted, gin.H{"deletedResumeId": deletedID})
}

type updateStateRequest struct {
	State  string `json:"state" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// UpdateResumeState 由招聘负责人切换简历阶段并记录变更历史。
// 路由层已用 RequireRoles 限制为 RECRUITER。
func (h *ResumeHandler) UpdateResumeState(c *gin.Context) {
	var req updateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	newState, ok := resume.ParseState(req.State)
	if !ok {
		BadRequest(c, MsgInvalidState)
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	resumeID, ok := resumeIDFromParam(c)
	if !ok {
		return
	}

	entry, err := h.svc.TransitionState(c.Request.Context(), ident.UserID, resumeID, newState, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.enqueueStateNotify(c, entry)

	OK(c, http.StatusCreated, MsgStateChanged, gin.H{"resumeLog": newResumeLogResponse(entry)})
}

// GetResumeStateLog 返回简历的状态变更历史，按时间倒序。
func (h *ResumeHandler) GetResumeStateLog(c *gin.Context) {
	resumeID, ok := resumeIDFromParam(c)
	if !ok {
		return
	}

	views, err := h.svc.StateLog(c.Request.Context(), resumeID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	OK(c, http.StatusOK, MsgStateLogFetched, gin.H{"resumeLogs": views})
}

// ExportResume 将 PDF 导出任务入队并立即返回 202。
func (h *ResumeHandler) ExportResume(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	resumeID, ok := resumeIDFromParam(c)
	if !ok {
		return
	}

	record, err := h.svc.FindForExport(c.Request.Context(), ident, resumeID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewPDFExportTask(record.ID, correlationID)
	if err != nil {
		Internal(c, MsgInternalError)
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, MsgInternalError)
		return
	}

	OK(c, http.StatusAccepted, MsgExportAccepted, gin.H{"taskId": info.ID})
}

// GetExportLink 生成已导出 PDF 的预签名下载链接。
func (h *ResumeHandler) GetExportLink(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	resumeID, ok := resumeIDFromParam(c)
	if !ok {
		return
	}

	record, err := h.svc.FindForExport(c.Request.Context(), ident, resumeID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if record.PdfURL == "" {
		Conflict(c, MsgPdfNotReady)
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), record.PdfURL, 5*time.Minute)
	if err != nil {
		Internal(c, MsgInternalError)
		return
	}

	OK(c, http.StatusOK, MsgResumeFetched, gin.H{"url": signedURL})
}

// enqueueStateNotify 尽力而为地投递状态变更通知；失败只记录日志，不影响已提交的流转。
func (h *ResumeHandler) enqueueStateNotify(c *gin.Context, entry database.ResumeHistory) {
	task, err := tasks.NewStateChangeNotifyTask(entry.ResumeID, entry.OldState, entry.NewState, entry.Reason, middleware.GetCorrelationID(c))
	if err != nil {
		middleware.LoggerFromContext(c).Error("build state notify task failed", slog.Any("error", err))
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(3)); err != nil {
		middleware.LoggerFromContext(c).Error("enqueue state notify task failed", slog.Any("error", err))
	}
}

func (h *ResumeHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, resume.ErrResumeNotFound):
		NotFound(c, MsgResumeNotFound)
	case errors.Is(err, resume.ErrNoUpdateFields):
		BadRequest(c, MsgNoUpdateFields)
	default:
		middleware.LoggerFromContext(c).Error("resume operation failed", slog.Any("error", err))
		Internal(c, MsgInternalError)
	}
}

func resumeIDFromParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("resumeId"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid resume id")
		return 0, false
	}
	return uint(id), true
}

func newResumeResponse(record database.Resume) resumeResponse {
	return resumeResponse{
		ResumeID:  record.ID,
		Title:     record.Title,
		Introduce: record.Introduce,
		State:     record.State,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func newResumeLogResponse(entry database.ResumeHistory) resumeLogResponse {
	return resumeLogResponse{
		ResumeLogID: entry.ID,
		RecruiterID: entry.RecruiterID,
		ResumeID:    entry.ResumeID,
		OldState:    entry.OldState,
		NewState:    entry.NewState,
		Reason:      entry.Reason,
		CreatedAt:   entry.CreatedAt,
	}
}
