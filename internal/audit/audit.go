// Package audit records every computed access decision asynchronously.
// The HTTP layer enqueues an asynq task per decision; the worker binary
// drains the queue into the decision_audit table. Policy denies are
// ordinary outcomes here, not faults.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeDecision is the task type for decision audit events.
	TaskTypeDecision = "authz:decision"
)

// DecisionEvent is the audit payload for one computed decision.
type DecisionEvent struct {
	ID         string    `json:"id"`
	Resource   string    `json:"resource"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	ResourceID string    `json:"resourceId,omitempty"`
	Success    bool      `json:"success"`
	Allowed    bool      `json:"allowed"`
	Reason     string    `json:"reason,omitempty"`
	DecidedAt  time.Time `json:"decidedAt"`
}

// NewDecisionTask constructs an Asynq task for the event.
func NewDecisionTask(event DecisionEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDecision, data, asynq.Queue(QueueDefault)), nil
}

// Recorder enqueues decision audit events. Enqueue failures are logged
// and swallowed; auditing must never affect the decision path.
type Recorder struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewRecorder constructs a Recorder. A nil client disables recording.
func NewRecorder(client *asynq.Client, logger *slog.Logger) *Recorder {
	return &Recorder{client: client, logger: logger}
}

// RecordDecision enqueues one event, stamping id and time when unset.
func (r *Recorder) RecordDecision(ctx context.Context, event DecisionEvent) {
	if r == nil || r.client == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.DecidedAt.IsZero() {
		event.DecidedAt = time.Now().UTC()
	}
	task, err := NewDecisionTask(event)
	if err != nil {
		r.log(ctx, "marshal decision audit event", err, event)
		return
	}
	if _, err := r.client.EnqueueContext(ctx, task); err != nil {
		r.log(ctx, "enqueue decision audit event", err, event)
	}
}

func (r *Recorder) log(ctx context.Context, msg string, err error, event DecisionEvent) {
	if r.logger == nil {
		return
	}
	r.logger.ErrorContext(ctx, msg,
		slog.Any("error", err),
		slog.String("action", event.Action),
		slog.String("resource", event.Resource),
		slog.String("actor_id", event.ActorID),
	)
}

// Writer persists decision events from the worker side.
type Writer struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewWriter constructs a Writer.
func NewWriter(pool *pgxpool.Pool, logger *slog.Logger) *Writer {
	return &Writer{pool: pool, logger: logger}
}

// HandleDecisionTask processes TaskTypeDecision tasks.
func (w *Writer) HandleDecisionTask(ctx context.Context, t *asynq.Task) error {
	var event DecisionEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		if w.logger != nil {
			w.logger.Error("decode decision audit payload", slog.Any("error", err))
		}
		return asynq.SkipRetry
	}

	const query = `
		INSERT INTO decision_audit (
			id, resource, action, actor_id, actor_role, resource_id,
			success, allowed, reason, decided_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	_, err := w.pool.Exec(ctx, query,
		event.ID,
		event.Resource,
		event.Action,
		event.ActorID,
		event.ActorRole,
		event.ResourceID,
		event.Success,
		event.Allowed,
		event.Reason,
		event.DecidedAt,
	)
	return err
}
