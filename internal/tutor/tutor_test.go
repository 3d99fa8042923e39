package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/suPer8Hu/code-tutor/internal/ai"
	"github.com/suPer8Hu/code-tutor/internal/logger"
)

const validReply = `{"explanation":"It prints.","hints":["a","b"],"improvements":["c"],"skill_level":42,"lesson_plan":""}`

func TestSchema_RequiresEveryField(t *testing.T) {
	want := map[string]bool{"explanation": true, "hints": true, "improvements": true, "skill_level": true, "lesson_plan": true}
	req := Schema().Required
	if len(req) != len(want) {
		t.Fatalf("unexpected required fields: %v", req)
	}
	for _, name := range req {
		if !want[name] {
			t.Fatalf("unexpected required field %q", name)
		}
	}
}

func TestFormatInstructions_EmbedsSchema(t *testing.T) {
	fi := FormatInstructions()
	for _, needle := range []string{`"skill_level"`, `"lesson_plan"`, `"maximum": 100`, "Generate a plan only if the student asks for one"} {
		if !strings.Contains(fi, needle) {
			t.Fatalf("format instructions missing %s:\n%s", needle, fi)
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		name      string
		reply     string
		wantLevel int
		wantErr   bool
	}{
		{"plain", validReply, 42, false},
		{"fenced", "Here you go:\n```json\n" + validReply + "\n```", 42, false},
		{"string level", strings.Replace(validReply, "42", `"57"`, 1), 57, false},
		{"float level", strings.Replace(validReply, "42", "12.0", 1), 12, false},
		{"clamped high", strings.Replace(validReply, "42", "250", 1), 100, false},
		{"clamped low", strings.Replace(validReply, "42", "-5", 1), 0, false},
		{"fractional level", strings.Replace(validReply, "42", "12.5", 1), 0, true},
		{"missing field", `{"explanation":"x","hints":[],"improvements":[],"skill_level":1}`, 0, true},
		{"null hints", strings.Replace(validReply, `["a","b"]`, "null", 1), 0, true},
		{"wrong type", strings.Replace(validReply, `["c"]`, `"c"`, 1), 0, true},
		{"no json", "I cannot help with that.", 0, true},
		{"broken json", `{"explanation": "x",`, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Parse(tc.reply)
			if tc.wantErr {
				if !errors.Is(err, ErrParse) {
					t.Fatalf("expected ErrParse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if res.SkillLevel != tc.wantLevel {
				t.Fatalf("skill level: got %d want %d", res.SkillLevel, tc.wantLevel)
			}
			if res.Explanation != "It prints." || len(res.Hints) != 2 || res.Improvements[0] != "c" {
				t.Fatalf("unexpected result: %+v", res)
			}
		})
	}
}

func TestPromptBuilder_Substitutes(t *testing.T) {
	out, err := NewPromptBuilder().Build(PromptInput{
		Language: "python",
		Code:     "print('{x}')",
		History:  "User: hi\n",
		Question: "why?",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, needle := range []string{
		"Student's Code Language: python",
		"```\nprint('{x}')\n```",
		"All-Time Code and Chat History:\nUser: hi\n",
		"Student's Current Question: why?",
		FormatInstructions(),
	} {
		if !strings.Contains(out, needle) {
			t.Fatalf("prompt missing %q:\n%s", needle, out)
		}
	}
}

type stubProvider struct {
	reply string
	err   error
	got   []ai.Message
	wait  time.Duration
}

func (p *stubProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	p.got = append([]ai.Message(nil), messages...)
	if p.wait > 0 {
		select {
		case <-time.After(p.wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return p.reply, p.err
}

func TestClient_Advise(t *testing.T) {
	prov := &stubProvider{reply: validReply}
	c := NewClient(logger.Nop(), prov, time.Second)

	res, err := c.Advise(context.Background(), PromptInput{Language: "go", Code: "x", Question: "q"})
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if res.SkillLevel != 42 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(prov.got) != 1 || prov.got[0].Role != ai.RoleUser || !strings.Contains(prov.got[0].Content, "Student's Current Question: q") {
		t.Fatalf("unexpected provider input: %+v", prov.got)
	}
}

func TestClient_Failures(t *testing.T) {
	c := NewClient(logger.Nop(), &stubProvider{reply: "not json"}, time.Second)
	if _, err := c.Advise(context.Background(), PromptInput{}); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}

	boom := errors.New("connection refused")
	c = NewClient(logger.Nop(), &stubProvider{err: boom}, time.Second)
	_, err := c.Advise(context.Background(), PromptInput{})
	var te *TransportError
	if !errors.As(err, &te) || !errors.Is(err, boom) || err.Error() != "connection refused" {
		t.Fatalf("expected transport error, got %v", err)
	}

	c = NewClient(logger.Nop(), &stubProvider{reply: validReply, wait: time.Second}, 20*time.Millisecond)
	_, err = c.Advise(context.Background(), PromptInput{})
	if !errors.As(err, &te) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline transport error, got %v", err)
	}
}
