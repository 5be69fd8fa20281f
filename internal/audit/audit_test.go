package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

func TestNewDecisionTaskRoundTrip(t *testing.T) {
	event := DecisionEvent{
		ID:         "evt1",
		Resource:   "attendance",
		Action:     "canMarkAttendance",
		ActorID:    "teacher1",
		ActorRole:  "teacher",
		ResourceID: "class1",
		Success:    true,
		Allowed:    false,
		Reason:     "Student not in teacher class",
	}

	task, err := NewDecisionTask(event)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskTypeDecision {
		t.Fatalf("task type = %q", task.Type())
	}

	var decoded DecisionEvent
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded != event {
		t.Fatalf("payload round trip mismatch: %+v", decoded)
	}
}

func TestRecorderEnqueuesDecision(t *testing.T) {
	mr := miniredis.RunT(t)
	opt := asynq.RedisClientOpt{Addr: mr.Addr()}
	client := asynq.NewClient(opt)
	defer client.Close()

	rec := NewRecorder(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec.RecordDecision(context.Background(), DecisionEvent{
		Resource:  "grade",
		Action:    "canEditGrade",
		ActorID:   "teacher1",
		ActorRole: "teacher",
		Success:   true,
		Allowed:   true,
	})

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	tasks, err := inspector.ListPendingTasks(QueueDefault)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("pending tasks = %d", len(tasks))
	}

	var event DecisionEvent
	if err := json.Unmarshal(tasks[0].Payload, &event); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if event.ID == "" || event.DecidedAt.IsZero() {
		t.Fatalf("id and timestamp must be stamped: %+v", event)
	}
	if event.Action != "canEditGrade" || !event.Allowed {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestRecorderNilClientIsNoop(t *testing.T) {
	var rec *Recorder
	rec.RecordDecision(context.Background(), DecisionEvent{Action: "canView"})

	NewRecorder(nil, nil).RecordDecision(context.Background(), DecisionEvent{Action: "canView"})
}

func TestWriterSkipsMalformedPayload(t *testing.T) {
	w := NewWriter(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	task := asynq.NewTask(TaskTypeDecision, []byte("{not json"))

	err := w.HandleDecisionTask(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("want SkipRetry, got %v", err)
	}
}
