package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AuditEvent 生命周期审计事件，投递给外部审计模块
type AuditEvent struct {
	OperationType string    `json:"operation_type"`
	OperationDesc string    `json:"operation_desc"`
	OperatedBy    string    `json:"operated_by"`
	ModuleName    string    `json:"module_name"`
	ObjectID      string    `json:"object_id"`
	OldData       any       `json:"old_data,omitempty"`
	NewData       any       `json:"new_data,omitempty"`
	OperatedAt    time.Time `json:"operated_at"`
}

// IAuditSink 审计落地接口，具体存储由外部审计模块负责
type IAuditSink interface {
	Record(ctx context.Context, event AuditEvent)
}

// LogAuditSink 把审计事件写入结构化日志的默认实现
type LogAuditSink struct {
	logger *zap.Logger
}

func NewLogAuditSink(logger *zap.Logger) IAuditSink {
	return &LogAuditSink{logger: logger}
}

func (s *LogAuditSink) Record(_ context.Context, event AuditEvent) {
	if event.OperatedAt.IsZero() {
		event.OperatedAt = time.Now()
	}
	s.logger.Info("audit",
		zap.String("operation_type", event.OperationType),
		zap.String("operation_desc", event.OperationDesc),
		zap.String("operated_by", event.OperatedBy),
		zap.String("module_name", event.ModuleName),
		zap.String("object_id", event.ObjectID),
		zap.Any("old_data", event.OldData),
		zap.Any("new_data", event.NewData),
		zap.Time("operated_at", event.OperatedAt))
}
