package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/suPer8Hu/code-tutor/internal/tutor"
)

func TestEnqueueAndRunJob(t *testing.T) {
	f := newFixture(t)
	sc := f.script(t, 1, "a", "python", "x")
	ctx := context.Background()

	job, created, err := f.svc.Enqueue(ctx, AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "async?"}, nil)
	if err != nil || !created {
		t.Fatalf("enqueue: created=%v err=%v", created, err)
	}
	if job.Status != JobQueued || job.Language != "python" || job.UserMessageID == 0 {
		t.Fatalf("unexpected job: %+v", job)
	}
	if n := len(f.messages(t, 1)); n != 1 {
		t.Fatalf("expected user message on enqueue, got %d", n)
	}

	if err := f.svc.RunJob(ctx, job.ID); err != nil {
		t.Fatalf("run job: %v", err)
	}
	got, err := f.svc.GetJob(ctx, 1, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != JobSucceeded || got.ResultMessageID == nil {
		t.Fatalf("unexpected job after run: %+v", got)
	}
	reply, err := f.svc.JobReply(ctx, got)
	if err != nil || reply == "" {
		t.Fatalf("job reply: %q %v", reply, err)
	}
	if msgs := f.messages(t, 1); len(msgs) != 2 || msgs[1].Content != reply {
		t.Fatalf("unexpected messages: %+v", msgs)
	}

	// a second delivery of the same job is a no-op
	if err := f.svc.RunJob(ctx, job.ID); err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if n := len(f.tutor.last); n != 1 {
		t.Fatalf("expected one tutor call, got %d", n)
	}

	if _, err := f.svc.GetJob(ctx, 2, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected other user's job to be hidden, got %v", err)
	}
}

func TestEnqueue_IdempotencyKey(t *testing.T) {
	f := newFixture(t)
	sc := f.script(t, 1, "a", "python", "x")
	ctx := context.Background()
	key := "abc"

	first, created, err := f.svc.Enqueue(ctx, AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "q"}, &key)
	if err != nil || !created {
		t.Fatalf("first enqueue: created=%v err=%v", created, err)
	}
	second, created, err := f.svc.Enqueue(ctx, AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "q"}, &key)
	if err != nil || created {
		t.Fatalf("second enqueue: created=%v err=%v", created, err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same job, got %s and %s", first.ID, second.ID)
	}
	if n := len(f.messages(t, 1)); n != 1 {
		t.Fatalf("expected a single user message, got %d", n)
	}
}

func TestRunJob_UnreadableMarksFailed(t *testing.T) {
	f := newFixture(t)
	f.tutor.err = fmt.Errorf("%w: bad", tutor.ErrParse)
	sc := f.script(t, 1, "a", "python", "x")
	ctx := context.Background()

	job, _, err := f.svc.Enqueue(ctx, AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "q"}, nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := f.svc.RunJob(ctx, job.ID); err != nil {
		t.Fatalf("run job: %v", err)
	}
	got, _ := f.svc.GetJob(ctx, 1, job.ID)
	if got.Status != JobFailed || got.Error == nil || *got.Error != UnreadableMessage {
		t.Fatalf("unexpected job: %+v", got)
	}
	if n := len(f.messages(t, 1)); n != 1 {
		t.Fatalf("expected only the user message, got %d", n)
	}
}
