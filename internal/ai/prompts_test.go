package ai

import (
	"strings"
	"testing"
)

func TestPromptsSubstitution(t *testing.T) {
	prompts := Prompts("Alexei Petrov", "RESUME BODY", false)

	if strings.Contains(prompts.General, "{{") {
		t.Fatalf("unresolved placeholder in general prompt:\n%s", prompts.General)
	}
	if strings.Contains(prompts.JobAssessment, "{{") {
		t.Fatalf("unresolved placeholder in job assessment prompt:\n%s", prompts.JobAssessment)
	}

	if !strings.Contains(prompts.General, "Alexei Petrov's professional experience") {
		t.Fatalf("expected candidate name in general prompt")
	}

	// First name only where the template refers to the candidate informally.
	if !strings.Contains(prompts.General, "Alexei's experience, skills, and background") {
		t.Fatalf("expected first name in general prompt")
	}

	if !strings.Contains(prompts.General, "RESUME BODY") || !strings.Contains(prompts.JobAssessment, "RESUME BODY") {
		t.Fatalf("expected resume context in both prompts")
	}

	if !strings.Contains(prompts.JobAssessment, `overall fit score (e.g., "8/10" or "80%")`) {
		t.Fatalf("expected fit score instruction in assessment prompt")
	}
}

func TestPromptsLanguageInstruction(t *testing.T) {
	english := Prompts("Alexei Petrov", "ctx", false)
	if !strings.Contains(english.General, "You MUST respond in English.") {
		t.Fatalf("expected english instruction, got:\n%s", english.General)
	}

	russian := Prompts("Alexei Petrov", "ctx", true)
	for _, prompt := range []string{russian.General, russian.JobAssessment} {
		if !strings.Contains(prompt, "You MUST respond in Russian (Cyrillic script).") {
			t.Fatalf("expected russian instruction, got:\n%s", prompt)
		}
	}
}

func TestPromptsSingleWordName(t *testing.T) {
	prompts := Prompts("Alexei", "ctx", false)
	if !strings.Contains(prompts.General, "Alexei's experience") {
		t.Fatalf("expected single-word name to be used as first name")
	}
}
