package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeStateChangeNotify = "resume:state-notify"
	TypePDFExport         = "resume:pdf-export"
)

// StateChangeNotifyPayload 描述一次状态流转的通知内容。
// 简历所有者由消费端查库得到，避免把归属信息散落在队列里。
type StateChangeNotifyPayload struct {
	ResumeID      uint   `json:"resume_id"`
	OldState      string `json:"old_state"`
	NewState      string `json:"new_state"`
	Reason        string `json:"reason"`
	CorrelationID string `json:"correlation_id"`
}

// NewStateChangeNotifyTask 构造状态流转通知任务。
func NewStateChangeNotifyTask(resumeID uint, oldState, newState, reason, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(StateChangeNotifyPayload{
		ResumeID:      resumeID,
		OldState:      oldState,
		NewState:      newState,
		Reason:        reason,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeStateChangeNotify, payload), nil
}

// PDFExportPayload 描述生成简历 PDF 所需的最小信息。
type PDFExportPayload struct {
	ResumeID      uint   `json:"resume_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewPDFExportTask 构造简历 PDF 导出任务。
func NewPDFExportTask(resumeID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PDFExportPayload{
		ResumeID:      resumeID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePDFExport, payload), nil
}
