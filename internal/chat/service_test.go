package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/suPer8Hu/code-tutor/internal/logger"
	"github.com/suPer8Hu/code-tutor/internal/scripts"
	"github.com/suPer8Hu/code-tutor/internal/tutor"
	"gorm.io/gorm"
)

type recordingTutor struct {
	last   []tutor.PromptInput
	result *tutor.Result
	err    error
}

func (r *recordingTutor) Advise(ctx context.Context, in tutor.PromptInput) (*tutor.Result, error) {
	_ = ctx
	r.last = append(r.last, in)
	if r.err != nil {
		return nil, r.err
	}
	cp := *r.result
	return &cp, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&scripts.Script{}, &Message{}, &Skill{}, &Job{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type fixture struct {
	db      *gorm.DB
	repo    *Repo
	scripts *scripts.Repo
	tutor   *recordingTutor
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)
	f := &fixture{
		db:      db,
		repo:    NewRepo(db),
		scripts: scripts.NewRepo(db),
		tutor: &recordingTutor{result: &tutor.Result{
			Explanation:  "Looks fine.",
			Hints:        []string{"Name things"},
			Improvements: []string{"Add tests"},
			SkillLevel:   40,
		}},
	}
	f.svc = NewService(logger.Nop(), f.repo, f.scripts, f.tutor, 20)
	return f
}

func (f *fixture) script(t *testing.T, owner uint64, name, lang, code string) *scripts.Script {
	t.Helper()
	s := &scripts.Script{AuthorID: owner, Name: name, Language: lang, Code: code}
	if err := f.scripts.Create(context.Background(), s); err != nil {
		t.Fatalf("create script: %v", err)
	}
	return s
}

func (f *fixture) messages(t *testing.T, userID uint64) []Message {
	t.Helper()
	var msgs []Message
	if err := f.db.Where("user_id = ?", userID).Order("id ASC").Find(&msgs).Error; err != nil {
		t.Fatalf("query messages: %v", err)
	}
	return msgs
}

func (f *fixture) skills(t *testing.T, userID uint64) []Skill {
	t.Helper()
	var out []Skill
	if err := f.db.Where("user_id = ?", userID).Find(&out).Error; err != nil {
		t.Fatalf("query skills: %v", err)
	}
	return out
}

func TestAdvise_WritesUserThenAIAndOneSkill(t *testing.T) {
	f := newFixture(t)
	sc := f.script(t, 1, "hello", "python", "print('hi')")

	reply, err := f.svc.Advise(context.Background(), AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "Is this ok?"})
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if !strings.Contains(reply, "### Skill Level\n40/100") {
		t.Fatalf("unexpected reply:\n%s", reply)
	}

	msgs := f.messages(t, 1)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "Is this ok?" {
		t.Fatalf("unexpected user msg: role=%q content=%q", msgs[0].Role, msgs[0].Content)
	}
	if msgs[1].Role != RoleAI || msgs[1].Content != reply || msgs[1].ScriptID != sc.ID {
		t.Fatalf("unexpected ai msg: %+v", msgs[1])
	}

	skills := f.skills(t, 1)
	if len(skills) != 1 || skills[0].Name != "python" || skills[0].Level != 40 {
		t.Fatalf("unexpected skills: %+v", skills)
	}

	// code and language fall back to the stored script
	in := f.tutor.last[0]
	if in.Code != "print('hi')" || in.Language != "python" || in.Question != "Is this ok?" {
		t.Fatalf("unexpected prompt input: %+v", in)
	}
}

func TestAdvise_SecondTurnOverwritesSkillInPlace(t *testing.T) {
	f := newFixture(t)
	sc := f.script(t, 1, "hello", "python", "x = 1")
	ctx := context.Background()

	if _, err := f.svc.Advise(ctx, AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "one", Language: "go"}); err != nil {
		t.Fatalf("first advise: %v", err)
	}
	before := f.skills(t, 1)

	f.tutor.result.SkillLevel = 15
	if _, err := f.svc.Advise(ctx, AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "two", Language: "go"}); err != nil {
		t.Fatalf("second advise: %v", err)
	}
	after := f.skills(t, 1)

	if len(after) != 1 {
		t.Fatalf("expected a single skill row, got %d", len(after))
	}
	if after[0].ID != before[0].ID || after[0].Name != "go" || after[0].Level != 15 {
		t.Fatalf("expected in-place overwrite, before=%+v after=%+v", before[0], after[0])
	}
	if n := len(f.messages(t, 1)); n != 4 {
		t.Fatalf("expected 4 messages, got %d", n)
	}
}

func TestAdvise_HistoryIncludesAllScriptsAndMessages(t *testing.T) {
	f := newFixture(t)
	a := f.script(t, 1, "a", "python", "print(1)")
	b := f.script(t, 1, "b", "go", "package main")
	f.script(t, 2, "other", "rust", "fn main() {}")
	ctx := context.Background()

	if _, err := f.svc.Advise(ctx, AdviceRequest{UserID: 1, ScriptID: a.ID, Message: "first"}); err != nil {
		t.Fatalf("advise a: %v", err)
	}
	if _, err := f.svc.Advise(ctx, AdviceRequest{UserID: 1, ScriptID: b.ID, Message: "second"}); err != nil {
		t.Fatalf("advise b: %v", err)
	}

	h := f.tutor.last[1].History
	for _, needle := range []string{"User: first\n", "Ai: ### Explanation", "User: second\n", "Script: a (python)", "Script: b (go)"} {
		if !strings.Contains(h, needle) {
			t.Fatalf("history missing %q:\n%s", needle, h)
		}
	}
	if strings.Contains(h, "other") {
		t.Fatalf("history leaked another user's script:\n%s", h)
	}
	if strings.Index(h, "User: first") > strings.Index(h, "User: second") {
		t.Fatalf("history out of order:\n%s", h)
	}
}

func TestAdvise_ContextWindow(t *testing.T) {
	f := newFixture(t)
	f.svc = NewService(logger.Nop(), f.repo, f.scripts, f.tutor, 3)
	sc := f.script(t, 1, "a", "python", "x")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := f.repo.InsertMessage(ctx, &Message{UserID: 1, ScriptID: sc.ID, Role: RoleUser, Content: fmt.Sprintf("seed-%d", i)}); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	if _, err := f.svc.Advise(ctx, AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "new"}); err != nil {
		t.Fatalf("advise: %v", err)
	}

	h := f.tutor.last[0].History
	if strings.Contains(h, "seed-2") || !strings.Contains(h, "User: seed-3\nUser: seed-4\nUser: new\n") {
		t.Fatalf("expected only the 3 most recent messages:\n%s", h)
	}
}

func TestAdvise_Validation(t *testing.T) {
	f := newFixture(t)
	sc := f.script(t, 1, "a", "python", "x")

	cases := []AdviceRequest{
		{UserID: 1, ScriptID: sc.ID, Message: ""},
		{UserID: 1, ScriptID: sc.ID, Message: "   "},
		{UserID: 1, ScriptID: 0, Message: "hi"},
	}
	for _, req := range cases {
		if _, err := f.svc.Advise(context.Background(), req); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%+v: expected ErrInvalid, got %v", req, err)
		}
	}
	if _, err := f.svc.Advise(context.Background(), AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "hi", Language: strings.Repeat("x", 31)}); !errors.Is(err, ErrLanguage) {
		t.Fatalf("expected ErrLanguage, got %v", err)
	}
	if n := len(f.messages(t, 1)); n != 0 {
		t.Fatalf("expected no messages, got %d", n)
	}
}

func TestAdvise_OtherUsersScriptIsNotFound(t *testing.T) {
	f := newFixture(t)
	sc := f.script(t, 2, "theirs", "python", "x")

	if _, err := f.svc.Advise(context.Background(), AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "hi"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := len(f.messages(t, 1)) + len(f.messages(t, 2)); n != 0 {
		t.Fatalf("expected no messages, got %d", n)
	}
	if len(f.tutor.last) != 0 {
		t.Fatalf("tutor must not be called")
	}
}

func TestAdvise_UnreadableReplyKeepsUserMessageOnly(t *testing.T) {
	f := newFixture(t)
	f.tutor.err = fmt.Errorf("%w: missing field", tutor.ErrParse)
	sc := f.script(t, 1, "a", "python", "x")

	_, err := f.svc.Advise(context.Background(), AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "hi"})
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
	msgs := f.messages(t, 1)
	if len(msgs) != 1 || msgs[0].Role != RoleUser {
		t.Fatalf("expected only the orphaned user message, got %+v", msgs)
	}
	if len(f.skills(t, 1)) != 0 {
		t.Fatalf("expected no skill rows")
	}
}

func TestAdvise_TransportFailureSurfacesRawError(t *testing.T) {
	f := newFixture(t)
	f.tutor.err = &tutor.TransportError{Err: errors.New("dial tcp: connection refused")}
	sc := f.script(t, 1, "a", "python", "x")

	_, err := f.svc.Advise(context.Background(), AdviceRequest{UserID: 1, ScriptID: sc.ID, Message: "hi"})
	if err == nil || err.Error() != "dial tcp: connection refused" {
		t.Fatalf("expected raw transport error, got %v", err)
	}
	if n := len(f.messages(t, 1)); n != 1 {
		t.Fatalf("expected the user message to remain, got %d", n)
	}
}

func TestHistory_OrderedAndOwned(t *testing.T) {
	f := newFixture(t)
	sc := f.script(t, 1, "a", "python", "x")
	other := f.script(t, 1, "b", "python", "y")
	ctx := context.Background()

	base := time.Now()
	seed := []Message{
		{UserID: 1, ScriptID: sc.ID, Role: RoleAI, Content: "second", CreatedAt: base.Add(time.Second)},
		{UserID: 1, ScriptID: sc.ID, Role: RoleUser, Content: "first", CreatedAt: base},
		{UserID: 1, ScriptID: other.ID, Role: RoleUser, Content: "elsewhere", CreatedAt: base},
	}
	for i := range seed {
		if err := f.repo.InsertMessage(ctx, &seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := f.svc.History(ctx, 1, sc.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 2 || got[0].Content != "first" || got[1].Content != "second" {
		t.Fatalf("unexpected history: %+v", got)
	}

	if _, err := f.svc.History(ctx, 2, sc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}
