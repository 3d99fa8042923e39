package tutor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrParse = errors.New("unparseable tutor reply")

// Parse maps a raw model reply onto Result. Code fences and surrounding prose
// are tolerated; a missing or null required field, a wrong type, or a
// non-integral skill level is an ErrParse. The skill level is clamped into
// [MinSkillLevel, MaxSkillLevel].
func Parse(reply string) (*Result, error) {
	body, ok := extractObject(reply)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found", ErrParse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	for _, name := range Schema().Required {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, fmt.Errorf("%w: missing field %q", ErrParse, name)
		}
	}

	var wire struct {
		Explanation  string      `json:"explanation"`
		Hints        []string    `json:"hints"`
		Improvements []string    `json:"improvements"`
		SkillLevel   json.Number `json:"skill_level"`
		LessonPlan   string      `json:"lesson_plan"`
	}
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	level, err := integral(wire.SkillLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: skill_level: %v", ErrParse, err)
	}

	return &Result{
		Explanation:  wire.Explanation,
		Hints:        wire.Hints,
		Improvements: wire.Improvements,
		SkillLevel:   clampSkill(level),
		LessonPlan:   strings.TrimSpace(wire.LessonPlan),
	}, nil
}

func extractObject(reply string) (string, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return "", false
	}
	return reply[start : end+1], true
}

func integral(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return saturate(float64(i)), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s is not an integer", n)
	}
	return saturate(f), nil
}

func saturate(f float64) int {
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}
