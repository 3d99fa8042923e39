package chat

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/suPer8Hu/code-tutor/internal/tutor"
)

const noLessonPlan = "No lesson plan requested."

// RenderMarkdown formats a tutor result as the user-facing reply.
func RenderMarkdown(res *tutor.Result) string {
	lesson := res.LessonPlan
	if strings.TrimSpace(lesson) == "" {
		lesson = noLessonPlan
	}

	var b strings.Builder
	b.WriteString("### Explanation\n")
	b.WriteString(res.Explanation)
	b.WriteString("\n\n### Actionable Steps (Hints)\n")
	b.WriteString(bullets(res.Hints))
	b.WriteString("\n\n### Core Improvements\n")
	b.WriteString(bullets(res.Improvements))
	b.WriteString("\n\n### Skill Level\n")
	b.WriteString(strconv.Itoa(res.SkillLevel))
	b.WriteString("/100\n\n### Lesson Plan\n")
	b.WriteString(lesson)
	return b.String()
}

func bullets(items []string) string {
	return strings.Join(lo.Map(items, func(it string, _ int) string {
		return "* " + it
	}), "\n")
}
