package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/database"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/errcode"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/pdf"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/storage"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/tasks"
)

var pdfTemplate = template.Must(template.New("resume-pdf").Parse(PDFTemplateString))

// PDFExportTaskHandler 负责消费简历 PDF 导出任务。
type PDFExportTaskHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewPDFExportTaskHandler 创建任务处理器。
func NewPDFExportTaskHandler(db *gorm.DB, storageClient *storage.Client, redisClient *redis.Client, logger *slog.Logger) *PDFExportTaskHandler {
	return &PDFExportTaskHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *PDFExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	var payload tasks.PDFExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal pdf export payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("resume_id", uint64(payload.ResumeID)),
	)
	log.Info("starting resume pdf export task")

	var record database.Resume
	if err := h.db.WithContext(ctx).Preload("User").First(&record, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("owner_id", uint64(record.UserID)))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		msg := NotifyMessage{
			Type:          NotifyTypePDFError,
			ResumeID:      record.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := publishNotify(ctx, h.redisClient, record.UserID, msg); err != nil {
			log.Error("publish pdf error notification failed", slog.Any("error", err))
		}
	}()

	var history []database.ResumeHistory
	if err := h.db.WithContext(ctx).
		Preload("Recruiter").
		Where("resume_id = ?", record.ID).
		Order("created_at desc").
		Find(&history).Error; err != nil {
		log.Error("query resume history failed", slog.Any("error", err))
		return err
	}

	html, err := renderResumeHTML(record, history)
	if err != nil {
		log.Error("render resume html failed", slog.Any("error", err))
		return err
	}

	pdfBytes, err := pdf.GeneratePDFFromHTML(html)
	if err != nil {
		log.Error("generate pdf failed", slog.Any("error", err))
		return err
	}

	objectName := fmt.Sprintf("generated-resumes/%d/%s.pdf", record.UserID, uuid.NewString())
	reader := bytes.NewReader(pdfBytes)
	if _, err := h.storage.UploadFile(ctx, objectName, reader, int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload pdf to storage failed", slog.Any("error", err))
		return err
	}

	if err := h.db.WithContext(ctx).Model(&record).Update("pdf_url", objectName).Error; err != nil {
		log.Error("update resume pdf url failed", slog.Any("error", err))
		return err
	}

	msg := NotifyMessage{
		Type:          NotifyTypePDFReady,
		ResumeID:      record.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := publishNotify(ctx, h.redisClient, record.UserID, msg); err != nil {
		log.Error("publish pdf ready notification failed", slog.Any("error", err))
		return err
	}

	log.Info("resume pdf export task completed")
	return nil
}

func renderResumeHTML(record database.Resume, history []database.ResumeHistory) (string, error) {
	data := pdfTemplateData{
		Title:     record.Title,
		OwnerName: record.User.Name,
		State:     record.State,
		Introduce: record.Introduce,
	}
	for _, entry := range history {
		data.History = append(data.History, pdfHistoryRow{
			CreatedAt: entry.CreatedAt.Format("2006-01-02 15:04"),
			OldState:  entry.OldState,
			NewState:  entry.NewState,
			Recruiter: entry.Recruiter.Name,
			Reason:    entry.Reason,
		})
	}

	var buf bytes.Buffer
	if err := pdfTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute pdf template: %w", err)
	}
	return buf.String(), nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
