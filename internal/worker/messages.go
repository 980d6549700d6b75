package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 通知类型。
const (
	NotifyTypeStateChange = "state_change"
	NotifyTypePDFReady    = "pdf_ready"
	NotifyTypePDFError    = "pdf_error"
)

// NotifyMessage 是统一的通知消息协议（通过 Redis Pub/Sub 转发给 WebSocket 客户端）。
// 字段名与前端解析保持一致。
type NotifyMessage struct {
	Type          string `json:"type"`
	ResumeID      uint   `json:"resume_id"`
	OldState      string `json:"old_state,omitempty"`
	NewState      string `json:"new_state,omitempty"`
	Reason        string `json:"reason,omitempty"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

func publishNotify(ctx context.Context, client *redis.Client, userID uint, msg NotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
