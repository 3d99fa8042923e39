package scripts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("script not found")
	ErrInvalid  = errors.New("invalid script")
)

const (
	maxNameLen     = 30
	maxLanguageLen = 30
)

type Input struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Validate mirrors the create/update form rules: all fields required, name and
// language bounded, code kept verbatim.
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Language = strings.TrimSpace(in.Language)
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case utf8.RuneCountInString(in.Name) > maxNameLen:
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalid, maxNameLen)
	case in.Code == "":
		return fmt.Errorf("%w: code is required", ErrInvalid)
	case in.Language == "":
		return fmt.Errorf("%w: language is required", ErrInvalid)
	case utf8.RuneCountInString(in.Language) > maxLanguageLen:
		return fmt.Errorf("%w: language must be at most %d characters", ErrInvalid, maxLanguageLen)
	}
	return nil
}

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID uint64) ([]Script, error) {
	return s.repo.ListByAuthor(ctx, userID)
}

func (s *Service) Open(ctx context.Context, userID, id uint64) (*Script, error) {
	sc, err := s.repo.GetOwned(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return sc, nil
}

func (s *Service) Create(ctx context.Context, userID uint64, in Input) (*Script, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	sc := &Script{AuthorID: userID, Name: in.Name, Code: in.Code, Language: in.Language}
	if err := s.repo.Create(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Service) Update(ctx context.Context, userID, id uint64, in Input) (*Script, error) {
	sc, err := s.repo.GetOwned(ctx, userID, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	sc.Name, sc.Code, sc.Language = in.Name, in.Code, in.Language
	if err := s.repo.Update(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uint64) error {
	return mapNotFound(s.repo.DeleteOwned(ctx, userID, id))
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
