package ai

import (
	"strings"

	_ "embed"
)

//go:embed general.md
var generalTemplate string

//go:embed jobfit.md
var jobFitTemplate string

const (
	englishInstruction = "IMPORTANT: The user is asking in English. You MUST respond in English."
	russianInstruction = "IMPORTANT: The user is asking in Russian. You MUST respond in Russian (Cyrillic script)."
)

// SystemPrompts carries the two system prompt variants used by the chat
// pipeline.
type SystemPrompts struct {
	General       string
	JobAssessment string
}

// Prompts renders both system prompt templates for the given candidate and
// resume context. When russian is true the prompts instruct the model to
// answer in Russian.
func Prompts(candidateName, resumeContext string, russian bool) SystemPrompts {
	instruction := englishInstruction
	if russian {
		instruction = russianInstruction
	}

	return SystemPrompts{
		General:       renderTemplate(generalTemplate, candidateName, resumeContext, instruction),
		JobAssessment: renderTemplate(jobFitTemplate, candidateName, resumeContext, instruction),
	}
}

func renderTemplate(template, candidateName, resumeContext, instruction string) string {
	firstName := candidateName
	if idx := strings.IndexByte(candidateName, ' '); idx > 0 {
		firstName = candidateName[:idx]
	}

	prompt := strings.ReplaceAll(template, "{{CANDIDATE_NAME}}", candidateName)
	prompt = strings.ReplaceAll(prompt, "{{FIRST_NAME}}", firstName)
	prompt = strings.ReplaceAll(prompt, "{{LANGUAGE_INSTRUCTION}}", instruction)
	prompt = strings.ReplaceAll(prompt, "{{RESUME_CONTEXT}}", resumeContext)

	return strings.TrimSpace(prompt)
}
