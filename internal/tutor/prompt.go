package tutor

import (
	"github.com/tmc/langchaingo/prompts"
)

const tutorTemplate = `You are a professional AI coding tutor. Your priority is providing **clear, actionable, and concise advice** to the student.
Break down complex explanations into simple steps and use bullet points for lists (hints and improvements).
Your tone must be encouraging and knowledgeable, but **never verbose**. Explain the 'why' briefly, then focus on the 'how'.
You will analyze the student's code, their questions, and all past conversation history.
You will also track their coding skill level (1-100) based on all their provided code.
You will provide a lesson plan if and only if they ask for one.
The user is a visual learner so don't chase them away being wordy.

Your response must strictly follow this JSON format:
{{.format_instructions}}

Student's Code Language: {{.language}}

Student's Code:
` + "```" + `
{{.code}}
` + "```" + `

All-Time Code and Chat History:
{{.history}}

Student's Current Question: {{.user_message}}
`

type PromptInput struct {
	Language string
	Code     string
	History  string
	Question string
}

type PromptBuilder struct {
	tmpl prompts.PromptTemplate
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{tmpl: prompts.PromptTemplate{
		Template:       tutorTemplate,
		TemplateFormat: prompts.TemplateFormatGoTemplate,
		InputVariables: []string{"language", "code", "history", "user_message"},
		PartialVariables: map[string]any{
			"format_instructions": FormatInstructions(),
		},
	}}
}

func (b *PromptBuilder) Build(in PromptInput) (string, error) {
	return b.tmpl.Format(map[string]any{
		"language":     in.Language,
		"code":         in.Code,
		"history":      in.History,
		"user_message": in.Question,
	})
}
