package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/database"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/tasks"
)

// StateNotifyTaskHandler 消费状态流转通知任务，把事件推送给简历所有者。
type StateNotifyTaskHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewStateNotifyTaskHandler 创建任务处理器。
func NewStateNotifyTaskHandler(db *gorm.DB, redisClient *redis.Client, logger *slog.Logger) *StateNotifyTaskHandler {
	return &StateNotifyTaskHandler{
		db:          db,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *StateNotifyTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.StateChangeNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal state notify payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("resume_id", uint64(payload.ResumeID)),
	)

	var record database.Resume
	if err := h.db.WithContext(ctx).First(&record, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 简历在入队后被所有者删除，通知已无接收意义。
			log.Warn("resume gone, dropping state notification")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	msg := NotifyMessage{
		Type:          NotifyTypeStateChange,
		ResumeID:      record.ID,
		OldState:      payload.OldState,
		NewState:      payload.NewState,
		Reason:        payload.Reason,
		CorrelationID: payload.CorrelationID,
	}
	if err := h.publishToOwner(ctx, record.UserID, msg); err != nil {
		log.Error("publish state notification failed", slog.Any("error", err))
		return err
	}

	log.Info("state change notification delivered", slog.Uint64("owner_id", uint64(record.UserID)))
	return nil
}

func (h *StateNotifyTaskHandler) publishToOwner(ctx context.Context, ownerID uint, msg NotifyMessage) error {
	return publishNotify(ctx, h.redisClient, ownerID, msg)
}
