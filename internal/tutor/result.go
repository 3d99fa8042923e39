package tutor

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
)

const (
	MinSkillLevel = 0
	MaxSkillLevel = 100
)

// Result is the structured reply expected from the model. Its reflected JSON
// schema is embedded in the prompt and drives reply validation.
type Result struct {
	Explanation  string   `json:"explanation" jsonschema_description:"A detailed explanation of the code, including what it does and how it could be improved."`
	Hints        []string `json:"hints" jsonschema_description:"A list of hints to guide the user toward a solution."`
	Improvements []string `json:"improvements" jsonschema_description:"A list of specific improvements for the code's efficiency, readability, or best practices."`
	SkillLevel   int      `json:"skill_level" jsonschema:"minimum=1,maximum=100" jsonschema_description:"The student's current coding skill level as an integer from 1 to 100. Assess this based on all the provided code and conversation history."`
	LessonPlan   string   `json:"lesson_plan" jsonschema_description:"A lesson plan or a response to the student's request for one. Generate a plan only if the student asks for one, otherwise use an empty string."`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaJSON string
)

// Schema returns the JSON schema reflected from Result.
func Schema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		r := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		}
		s := r.Reflect(&Result{})
		s.Version = ""
		s.ID = ""
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			panic("tutor: marshal result schema: " + err.Error())
		}
		schema = s
		schemaJSON = string(b)
	})
	return schema
}

// FormatInstructions tells the model how to shape its reply.
func FormatInstructions() string {
	Schema()
	return "The output should be formatted as a single JSON object that conforms to the JSON schema below. " +
		"Return only the JSON object, with no surrounding prose.\n\n" +
		"Here is the output schema:\n```\n" + schemaJSON + "\n```"
}

func clampSkill(v int) int {
	if v < MinSkillLevel {
		return MinSkillLevel
	}
	if v > MaxSkillLevel {
		return MaxSkillLevel
	}
	return v
}
