// Package audit publishes best-effort audit records for dispatch
// actions. Publishing never fails the operation being audited.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Record describes a single audited action.
type Record struct {
	ActionType   string         `json:"action_type"`
	ActorID      string         `json:"actor_id"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      map[string]any `json:"details,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// Publisher emits audit records.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
	Close() error
}

// Logger wraps a Publisher with fire-and-forget semantics: LogAction
// stamps the record, publishes in the background and only logs on
// failure.
type Logger struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewLogger creates an audit Logger.
func NewLogger(publisher Publisher, logger *slog.Logger) *Logger {
	return &Logger{publisher: publisher, logger: logger}
}

// LogAction records an action asynchronously.
func (l *Logger) LogAction(actionType, actorID, resourceType, resourceID string, details map[string]any) {
	rec := Record{
		ActionType:   actionType,
		ActorID:      actorID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		OccurredAt:   time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.publisher.Publish(ctx, rec); err != nil {
			l.logger.Warn("audit record dropped",
				"action", rec.ActionType, "resource", rec.ResourceID, "error", err)
		}
	}()
}
