package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/events"
)

// AuditService writes an audit log entry for every mutating action.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers records events synchronously, on the publisher's
// goroutine. The server uses worker.StartAuditWorker instead.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.AllEvents, a.Record)
}

// Record writes one audit log entry.
func (a *AuditService) Record(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
	if event.Actor.UserID != nil {
		fields = append(fields, zap.Int64("user_id", *event.Actor.UserID))
	}
	if event.Actor.Email != "" {
		fields = append(fields, zap.String("email", event.Actor.Email))
	}
	if event.Actor.IP != "" {
		fields = append(fields, zap.String("ip", event.Actor.IP))
	}
	a.logger.Info(string(event.Type), fields...)
	return nil
}
