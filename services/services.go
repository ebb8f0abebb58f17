package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"storefront-service/common/logger"
	aws_pkg "storefront-service/pkg/aws"
)

const (
	EventOrderCreated       = "order.created"
	EventPaymentCompleted   = "payment.completed"
	EventPaymentFailed      = "payment.failed"
	EventPaymentCODSelected = "payment.cod_selected"
)

type MetaData struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

func newMeta(page, limit int, total int64) MetaData {
	return MetaData{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: calculateTotalPages(total, limit),
		HasMore:    total > int64(page*limit),
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// publisher sends domain events to SNS. Publishing is best effort: a failure is
// logged and never fails the request.
type publisher struct {
	sns    aws_pkg.SNSPublisher
	logger *zap.Logger
}

func (p publisher) publish(ctx context.Context, topicArn, eventType string, event interface{}) {
	if p.sns == nil || topicArn == "" {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("event_type", eventType), zap.Error(err), logger.RequestField(ctx))
		return
	}
	if err := p.sns.Publish(ctx, topicArn, eventType, body); err != nil {
		p.logger.Warn("SNS publish failed", zap.String("event_type", eventType), zap.Error(err), logger.RequestField(ctx))
	}
}

// recordCount sends a business metric off the request path
func recordCount(metrics aws_pkg.MetricsRecorder, name string, dims map[string]string) {
	if metrics == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metrics.RecordCount(ctx, name, dims)
	}()
}
