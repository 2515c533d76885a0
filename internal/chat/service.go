// Package chat composes the resume context, prompt templates, session store,
// and AI provider gateway into the two request flows: general chat and
// job-fit assessment.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/apetrov/resume-assistant/internal/ai"
	"github.com/apetrov/resume-assistant/internal/logger"
	"github.com/apetrov/resume-assistant/internal/resume"
	"github.com/apetrov/resume-assistant/internal/session"
	"github.com/apetrov/resume-assistant/internal/util"

	"go.uber.org/zap"
)

const (
	defaultMaxLogLength = 200

	// assessmentMarker tags the stored user message of a job-fit exchange so
	// the history distinguishes assessments from plain questions.
	assessmentMarker = "[Job Assessment Request]"
)

// Service orchestrates chat and job-fit assessment requests.
type Service struct {
	provider      ai.Provider
	sessions      *session.Store
	resume        *resume.Source
	candidateName string
	logger        *zap.Logger
	maxLogLen     int
}

// NewService wires the orchestrator. maxLogLength bounds prompt and reply
// previews in debug logs; zero selects the default.
func NewService(provider ai.Provider, sessions *session.Store, src *resume.Source, candidateName string, logger *zap.Logger, maxLogLength int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Service{
		provider:      provider,
		sessions:      sessions,
		resume:        src,
		candidateName: candidateName,
		logger:        logger,
		maxLogLen:     maxLogLength,
	}
}

// ReplyResult is the outcome of a general chat exchange.
type ReplyResult struct {
	Message   string
	SessionID string
}

// AssessResult is the outcome of a job-fit assessment exchange.
type AssessResult struct {
	Assessment string
	FitScore   *int
	SessionID  string
}

// Reply answers a general question about the candidate, grounded in the
// resume. The session's history is sent as context and both sides of the
// exchange are persisted after the provider call succeeds.
func (s *Service) Reply(ctx context.Context, message, sessionID string) (*ReplyResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	sess := s.sessions.GetOrCreate(sessionID)
	history := s.sessions.History(sess.ID)

	prompts := ai.Prompts(s.candidateName, s.resume.Context(), containsCyrillic(message))

	s.logger.Debug("processing chat message",
		zap.String(logger.FieldSession, sess.ID),
		zap.String("message_preview", util.TruncateForLog(message, s.maxLogLen)),
		zap.Int("history_length", len(history)),
	)

	reply, err := s.complete(ctx, prompts.General, history, message)
	if err != nil {
		return nil, s.failure(err, sess.ID, message, "generating chat response", ErrGenerationFailed)
	}

	s.sessions.AddMessage(sess.ID, session.RoleUser, message)
	s.sessions.AddMessage(sess.ID, session.RoleAssistant, reply)

	return &ReplyResult{Message: reply, SessionID: sess.ID}, nil
}

// AssessFit evaluates how well the candidate matches a job description and
// extracts an optional 0-10 fit score from the assessment text. The stored
// user message is the original job description behind a marker tag, not the
// instruction-wrapped prompt sent to the provider.
func (s *Service) AssessFit(ctx context.Context, jobDescription, sessionID string) (*AssessResult, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, ErrEmptyJobDescription
	}

	sess := s.sessions.GetOrCreate(sessionID)
	history := s.sessions.History(sess.ID)

	prompts := ai.Prompts(s.candidateName, s.resume.Context(), containsCyrillic(jobDescription))

	s.logger.Debug("assessing job fit",
		zap.String(logger.FieldSession, sess.ID),
		zap.Int("job_description_length", len(jobDescription)),
		zap.Int("history_length", len(history)),
	)

	userMessage := fmt.Sprintf("Job Description:\n%s\n\nPlease provide a detailed assessment.", jobDescription)

	assessment, err := s.complete(ctx, prompts.JobAssessment, history, userMessage)
	if err != nil {
		return nil, s.failure(err, sess.ID, jobDescription, "assessing job fit", ErrAssessmentFailed)
	}

	result := &AssessResult{Assessment: assessment, SessionID: sess.ID}
	if score, ok := ExtractFitScore(assessment); ok {
		result.FitScore = &score
	} else {
		s.logger.Debug("no fit score found in assessment", zap.String(logger.FieldSession, sess.ID))
	}

	s.sessions.AddMessage(sess.ID, session.RoleUser, assessmentMarker+"\n"+jobDescription)
	s.sessions.AddMessage(sess.ID, session.RoleAssistant, assessment)

	return result, nil
}

// complete assembles the message list, invokes the provider, and trims the
// returned text. Blank content is a failure.
func (s *Service) complete(ctx context.Context, systemPrompt string, history []session.Message, userContent string) (string, error) {
	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: systemPrompt})

	for _, m := range history {
		role := ai.RoleAssistant
		if m.Role == session.RoleUser {
			role = ai.RoleUser
		}
		messages = append(messages, ai.Message{Role: role, Content: m.Content})
	}

	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: userContent})

	resp, err := s.provider.Chat(ctx, messages)
	if err != nil {
		return "", err
	}

	if resp.Usage != nil {
		s.logger.Debug("provider token usage",
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			zap.Int("total_tokens", resp.Usage.TotalTokens),
		)
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}

	return content, nil
}

// failure logs the underlying provider error and maps it onto the coarse
// error taxonomy. Raw provider detail never drives the HTTP status beyond
// the rate-limit substring match.
func (s *Service) failure(err error, sessionID, input, step string, generic error) error {
	s.logger.Error(step,
		zap.String(logger.FieldSession, sessionID),
		zap.String("input_preview", util.TruncateForLog(input, s.maxLogLen)),
		zap.Error(err),
	)

	if isRateLimit(err) {
		return ErrRateLimited
	}

	return fmt.Errorf("%w: %v", generic, err)
}
