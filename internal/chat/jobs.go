package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/suPer8Hu/code-tutor/internal/common"
	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("job not found")

// UnreadableMessage is what clients see when the model reply could not be parsed.
const UnreadableMessage = "AI provided an unreadable response. Please try again."

// Enqueue validates the turn, stores the user message, and records a queued
// job for the worker. With an idempotency key a repeated call returns the
// original job and created=false.
func (s *Service) Enqueue(ctx context.Context, req AdviceRequest, idempotencyKey *string) (*Job, bool, error) {
	t, err := s.resolve(ctx, req)
	if err != nil {
		return nil, false, err
	}

	jobID, err := common.NewULID()
	if err != nil {
		return nil, false, err
	}

	msg := &Message{UserID: t.userID, ScriptID: t.script.ID, Role: RoleUser, Content: t.question}
	job := &Job{
		ID:             jobID,
		UserID:         t.userID,
		ScriptID:       t.script.ID,
		Question:       t.question,
		Code:           t.code,
		Language:       t.language,
		IdempotencyKey: idempotencyKey,
		Status:         JobQueued,
	}
	return s.repo.CreateQuestionJob(ctx, msg, job)
}

// GetJob returns the caller's job; other users' jobs are reported as missing.
func (s *Service) GetJob(ctx context.Context, userID uint64, jobID string) (*Job, error) {
	j, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if j.UserID != userID {
		// hide existence
		return nil, ErrJobNotFound
	}
	return j, nil
}

// JobReply returns the Markdown reply of a succeeded job.
func (s *Service) JobReply(ctx context.Context, j *Job) (string, error) {
	if j.Status != JobSucceeded || j.ResultMessageID == nil {
		return "", nil
	}
	m, err := s.repo.GetMessage(ctx, *j.ResultMessageID)
	if err != nil {
		return "", err
	}
	return m.Content, nil
}

// RunJob executes a queued job. Jobs that are not queued (already claimed or
// finished) are skipped. A job whose turn fails is marked failed and RunJob
// returns nil; only storage errors are returned.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	claimed, err := s.repo.UpdateJobStatusRunning(ctx, jobID)
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Info("job not queued, skipping", "job_id", jobID)
		return nil
	}

	j, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	fail := func(cause error, clientMsg string) error {
		if mErr := s.repo.MarkJobFailed(ctx, jobID, clientMsg); mErr != nil {
			return fmt.Errorf("mark job failed: %w (cause: %v)", mErr, cause)
		}
		s.log.Warn("job failed", "job_id", jobID, "error", cause)
		return nil
	}

	sc, err := s.scripts.GetOwned(ctx, j.UserID, j.ScriptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrNotFound, ErrNotFound.Error())
		}
		return fail(err, err.Error())
	}

	_, aiMsgID, err := s.answer(ctx, &turn{
		userID:   j.UserID,
		script:   sc,
		question: j.Question,
		code:     j.Code,
		language: j.Language,
	})
	if err != nil {
		if errors.Is(err, ErrUnreadable) {
			return fail(err, UnreadableMessage)
		}
		return fail(err, err.Error())
	}
	return s.repo.MarkJobSucceeded(ctx, jobID, aiMsgID)
}
