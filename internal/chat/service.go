package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/suPer8Hu/code-tutor/internal/logger"
	"github.com/suPer8Hu/code-tutor/internal/scripts"
	"github.com/suPer8Hu/code-tutor/internal/tutor"
	"gorm.io/gorm"
)

var (
	ErrInvalid    = errors.New("message and script_id are required")
	ErrNotFound   = errors.New("script not found")
	ErrUnreadable = errors.New("unreadable tutor reply")
	ErrLanguage   = errors.New("language must be at most 30 characters")
)

const (
	defaultContextWindow = 50
	maxContextWindow     = 500
	maxLanguageLen       = 30
)

// Tutor turns a rendered tutoring request into a structured result.
type Tutor interface {
	Advise(ctx context.Context, in tutor.PromptInput) (*tutor.Result, error)
}

type Service struct {
	log               *logger.Logger
	repo              *Repo
	scripts           *scripts.Repo
	tutor             Tutor
	contextWindowSize int
}

func NewService(log *logger.Logger, repo *Repo, scriptRepo *scripts.Repo, t Tutor, contextWindowSize int) *Service {
	if contextWindowSize <= 0 {
		contextWindowSize = defaultContextWindow
	}
	if contextWindowSize > maxContextWindow {
		contextWindowSize = maxContextWindow
	}
	return &Service{
		log:               log.With("service", "chat"),
		repo:              repo,
		scripts:           scriptRepo,
		tutor:             t,
		contextWindowSize: contextWindowSize,
	}
}

// AdviceRequest is one tutoring turn. Code and Language are optional and fall
// back to the stored script.
type AdviceRequest struct {
	UserID   uint64
	ScriptID uint64
	Message  string
	Code     string
	Language string
}

type turn struct {
	userID   uint64
	script   *scripts.Script
	question string
	code     string
	language string
}

// resolve validates the request and loads the caller's script.
func (s *Service) resolve(ctx context.Context, req AdviceRequest) (*turn, error) {
	if strings.TrimSpace(req.Message) == "" || req.ScriptID == 0 {
		return nil, ErrInvalid
	}
	sc, err := s.scripts.GetOwned(ctx, req.UserID, req.ScriptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t := &turn{userID: req.UserID, script: sc, question: req.Message, code: req.Code, language: strings.TrimSpace(req.Language)}
	if t.code == "" {
		t.code = sc.Code
	}
	if t.language == "" {
		t.language = sc.Language
	}
	if utf8.RuneCountInString(t.language) > maxLanguageLen {
		return nil, ErrLanguage
	}
	return t, nil
}

// Advise runs a full tutoring turn synchronously: the user message is stored
// first, then the model is consulted, then the AI reply and skill are saved.
// A failure after the first step leaves the user message in place.
func (s *Service) Advise(ctx context.Context, req AdviceRequest) (string, error) {
	t, err := s.resolve(ctx, req)
	if err != nil {
		return "", err
	}

	// 1) store user message
	userMsg := &Message{UserID: t.userID, ScriptID: t.script.ID, Role: RoleUser, Content: t.question}
	if err := s.repo.InsertMessage(ctx, userMsg); err != nil {
		return "", err
	}

	reply, _, err := s.answer(ctx, t)
	return reply, err
}

// answer covers history, model call, and persistence of the reply.
func (s *Service) answer(ctx context.Context, t *turn) (string, uint64, error) {
	log := s.log.With("user_id", t.userID, "script_id", t.script.ID)

	// 2) build history from everything the user has
	recent, err := s.repo.ListRecentUserMessages(ctx, t.userID, s.contextWindowSize)
	if err != nil {
		return "", 0, err
	}
	all, err := s.scripts.ListByAuthor(ctx, t.userID)
	if err != nil {
		return "", 0, err
	}

	// 3) call the tutor
	res, err := s.tutor.Advise(ctx, tutor.PromptInput{
		Language: t.language,
		Code:     t.code,
		History:  FormatHistory(recent, all),
		Question: t.question,
	})
	if err != nil {
		if errors.Is(err, tutor.ErrParse) {
			log.Warn("tutor reply unreadable", "error", err)
			return "", 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		log.Error("tutor call failed", "error", err)
		return "", 0, err
	}

	// 4) store AI message + skill
	md := RenderMarkdown(res)
	aiMsg := &Message{UserID: t.userID, ScriptID: t.script.ID, Role: RoleAI, Content: md}
	if err := s.repo.SaveReply(ctx, aiMsg, t.language, res.SkillLevel); err != nil {
		return "", 0, err
	}
	log.Info("tutor turn completed", "language", t.language, "skill_level", res.SkillLevel)
	return md, aiMsg.ID, nil
}

// History returns a script's conversation, oldest first.
func (s *Service) History(ctx context.Context, userID, scriptID uint64) ([]Message, error) {
	if _, err := s.scripts.GetOwned(ctx, userID, scriptID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.repo.ListScriptMessages(ctx, userID, scriptID)
}

func (s *Service) Skills(ctx context.Context, userID uint64) ([]Skill, error) {
	return s.repo.ListSkills(ctx, userID)
}
