package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/apetrov/resume-assistant/internal/ai"
	"github.com/apetrov/resume-assistant/internal/resume"
	"github.com/apetrov/resume-assistant/internal/session"

	"go.uber.org/zap"
)

type stubProvider struct {
	response string
	err      error
	calls    [][]ai.Message
}

func (s *stubProvider) Chat(_ context.Context, messages []ai.Message) (*ai.Response, error) {
	s.calls = append(s.calls, messages)
	if s.err != nil {
		return nil, s.err
	}
	return &ai.Response{Content: s.response}, nil
}

func testResume() *resume.Source {
	return resume.New(&resume.Resume{
		Contact: resume.Contact{Name: "Alexei Petrov"},
		Summary: "Product manager focused on collaboration platforms.",
		Skills:  map[string][]string{"collaboration": {"SharePoint"}},
	})
}

func newTestService(provider ai.Provider) (*Service, *session.Store) {
	store := session.NewStore(zap.NewNop())
	svc := NewService(provider, store, testResume(), "Alexei Petrov", zap.NewNop(), 0)
	return svc, store
}

func TestReply(t *testing.T) {
	stub := &stubProvider{response: "  He has 8 years of SharePoint experience.  "}
	svc, store := newTestService(stub)

	result, err := svc.Reply(context.Background(), "What is your experience with SharePoint?", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Message != "He has 8 years of SharePoint experience." {
		t.Fatalf("expected trimmed reply, got %q", result.Message)
	}
	if result.SessionID == "" {
		t.Fatalf("expected a session id")
	}

	history := store.History(result.SessionID)
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Role != session.RoleUser || history[1].Role != session.RoleAssistant {
		t.Fatalf("unexpected history roles: %+v", history)
	}

	// The provider saw [system, user] with the resume context grounded in.
	if len(stub.calls) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(stub.calls))
	}
	messages := stub.calls[0]
	if messages[0].Role != ai.RoleSystem || !strings.Contains(messages[0].Content, "SharePoint") {
		t.Fatalf("expected system prompt with resume context")
	}
	if messages[len(messages)-1].Content != "What is your experience with SharePoint?" {
		t.Fatalf("expected user message last")
	}
}

func TestReplyFollowUpCarriesHistory(t *testing.T) {
	stub := &stubProvider{response: "Answer."}
	svc, store := newTestService(stub)

	first, err := svc.Reply(context.Background(), "First question", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Reply(context.Background(), "Second question", first.SessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history := store.History(first.SessionID)
	if len(history) != 4 {
		t.Fatalf("expected 4 history entries after two exchanges, got %d", len(history))
	}

	// The second request replayed the first exchange to the provider.
	second := stub.calls[1]
	if len(second) != 4 {
		t.Fatalf("expected [system, user, assistant, user], got %d messages", len(second))
	}
	if second[1].Content != "First question" || second[2].Content != "Answer." {
		t.Fatalf("unexpected replayed history: %+v", second)
	}
}

func TestReplyValidation(t *testing.T) {
	stub := &stubProvider{response: "x"}
	svc, store := newTestService(stub)

	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Reply(context.Background(), input, ""); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage for %q, got %v", input, err)
		}
	}

	if len(stub.calls) != 0 {
		t.Fatalf("expected no provider calls")
	}
	if stats := store.Stats(); stats.TotalSessions != 0 {
		t.Fatalf("expected no session side effects, got %d sessions", stats.TotalSessions)
	}
}

func TestReplyLanguageSelection(t *testing.T) {
	stub := &stubProvider{response: "Ответ."}
	svc, _ := newTestService(stub)

	if _, err := svc.Reply(context.Background(), "Расскажите про опыт", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	system := stub.calls[0][0].Content
	if !strings.Contains(system, "You MUST respond in Russian") {
		t.Fatalf("expected russian prompt register, got:\n%s", system)
	}

	stub.calls = nil
	if _, err := svc.Reply(context.Background(), "Tell me about your experience", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stub.calls[0][0].Content, "You MUST respond in English") {
		t.Fatalf("expected english prompt register")
	}
}

func TestReplyRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "status code", err: errors.New("chat completion: error, status code: 429, message: too many requests")},
		{name: "rate limit text", err: errors.New("provider said Rate Limit exceeded")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubProvider{err: tt.err}
			svc, store := newTestService(stub)

			result, err := svc.Reply(context.Background(), "hello", "")
			if result != nil {
				t.Fatalf("expected nil result")
			}
			if !errors.Is(err, ErrRateLimited) {
				t.Fatalf("expected ErrRateLimited, got %v", err)
			}

			// Failed exchanges persist nothing to the session.
			if stats := store.Stats(); stats.AverageHistoryLength != 0 {
				t.Fatalf("expected empty history after failure, got average %v", stats.AverageHistoryLength)
			}
		})
	}
}

func TestReplyGenericFailure(t *testing.T) {
	stub := &stubProvider{err: errors.New("connection refused")}
	svc, _ := newTestService(stub)

	_, err := svc.Reply(context.Background(), "hello", "")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if errors.Is(err, ErrRateLimited) {
		t.Fatalf("generic failure must not look rate limited")
	}
}

func TestReplyEmptyResponse(t *testing.T) {
	stub := &stubProvider{response: "   "}
	svc, store := newTestService(stub)

	result, err := svc.Reply(context.Background(), "hello", "")
	if result != nil || !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected generic failure for empty content, got %v", err)
	}

	if stats := store.Stats(); stats.AverageHistoryLength != 0 {
		t.Fatalf("expected nothing persisted for empty content")
	}
}

func TestAssessFit(t *testing.T) {
	stub := &stubProvider{response: "Strong match for the role. Overall fit: 8/10."}
	svc, store := newTestService(stub)

	result, err := svc.AssessFit(context.Background(), "Senior PM for a collaboration suite.", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FitScore == nil || *result.FitScore != 8 {
		t.Fatalf("expected fit score 8, got %v", result.FitScore)
	}
	if result.Assessment != "Strong match for the role. Overall fit: 8/10." {
		t.Fatalf("unexpected assessment: %q", result.Assessment)
	}

	// Provider receives the instruction-wrapped job description.
	messages := stub.calls[0]
	last := messages[len(messages)-1].Content
	if !strings.HasPrefix(last, "Job Description:\n") || !strings.HasSuffix(last, "Please provide a detailed assessment.") {
		t.Fatalf("unexpected wrapped user message: %q", last)
	}
	if !strings.Contains(messages[0].Content, "AI career advisor") {
		t.Fatalf("expected job assessment prompt variant")
	}

	// History stores the marker-tagged original description, not the wrapper.
	history := store.History(result.SessionID)
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	want := "[Job Assessment Request]\nSenior PM for a collaboration suite."
	if history[0].Content != want {
		t.Fatalf("unexpected stored user message: %q", history[0].Content)
	}
}

func TestAssessFitScoreAbsent(t *testing.T) {
	stub := &stubProvider{response: "A decent match with some gaps in embedded expertise."}
	svc, _ := newTestService(stub)

	result, err := svc.AssessFit(context.Background(), "Embedded firmware engineer role.", "")
	if err != nil {
		t.Fatalf("score miss must not fail the request: %v", err)
	}
	if result.FitScore != nil {
		t.Fatalf("expected absent fit score, got %d", *result.FitScore)
	}
}

func TestAssessFitValidation(t *testing.T) {
	stub := &stubProvider{response: "x"}
	svc, _ := newTestService(stub)

	if _, err := svc.AssessFit(context.Background(), "  ", ""); !errors.Is(err, ErrEmptyJobDescription) {
		t.Fatalf("expected ErrEmptyJobDescription, got %v", err)
	}
}

func TestAssessFitFailure(t *testing.T) {
	stub := &stubProvider{err: errors.New("upstream 500")}
	svc, _ := newTestService(stub)

	_, err := svc.AssessFit(context.Background(), "Some role", "")
	if !errors.Is(err, ErrAssessmentFailed) {
		t.Fatalf("expected ErrAssessmentFailed, got %v", err)
	}
}
