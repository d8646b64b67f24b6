package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/llm"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

// historyWindow is the number of history entries rendered into the prompt
const historyWindow = 3

// Session is one conversation: the selected role and its history
type Session struct {
	Role    string
	History *History
}

// NewSession creates a session for role with a history bounded to limit entries
func NewSession(role string, limit int) *Session {
	return &Session{Role: role, History: NewHistory(limit)}
}

// AnswerService answers questions using retrieved records as context
type AnswerService struct {
	retriever *Retriever
	generator llm.Generator
	logger    *zap.Logger

	// now is replaceable in tests
	now func() time.Time
}

// NewAnswerService creates an AnswerService
func NewAnswerService(retriever *Retriever, generator llm.Generator, logger *zap.Logger) *AnswerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerService{
		retriever: retriever,
		generator: generator,
		logger:    logger.Named("answer"),
		now:       time.Now,
	}
}

// Query answers question within session. Failures never surface as errors:
// the returned text carries the error detail instead, and the history is
// left untouched.
func (s *AnswerService) Query(ctx context.Context, session *Session, question string) string {
	answer, err := s.answer(ctx, session, question)
	if err != nil {
		s.logger.Error("Error in query processing",
			zap.String("role", session.Role),
			zap.Error(err))
		return fmt.Sprintf("I encountered an error while processing your request. Please try again. Error: %v", err)
	}

	session.History.Append(question, answer)
	return answer
}

func (s *AnswerService) answer(ctx context.Context, session *Session, question string) (string, error) {
	hits, err := s.retriever.Retrieve(ctx, session.Role, question)
	if err != nil {
		return "", err
	}

	prompt, err := BuildPrompt(PromptInput{
		Context:     FormatRecords(hits),
		Question:    question,
		History:     session.History.Render(historyWindow),
		CurrentTime: s.now().Format(CurrentTimeLayout),
	})
	if err != nil {
		return "", err
	}

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

// SwitchRole moves the session to another role. An unrecognized role keeps
// the current one and returns false.
func (s *AnswerService) SwitchRole(session *Session, role string) bool {
	target, ok := s.retriever.ParseRole(role)
	if !ok {
		s.logger.Warn("Invalid role, keeping current collection",
			zap.String("role", role),
			zap.String("current", session.Role))
		return false
	}

	session.Role = target.String()
	collection, _ := s.retriever.ResolveCollection(session.Role)
	s.logger.Info("Switched collection",
		zap.String("role", session.Role),
		zap.String("collection", collection))
	return true
}

// VerifyConnection reports whether the vector index is ready
func (s *AnswerService) VerifyConnection(ctx context.Context) (bool, string) {
	if err := s.retriever.store.Ready(ctx); err != nil {
		return false, fmt.Sprintf("Connection error: %v", err)
	}
	return true, "Connected to Qdrant and vector store is ready"
}

// Target returns the resolved target of a session
func (s *AnswerService) Target(session *Session) model.CollectionTarget {
	_, target := s.retriever.ResolveCollection(session.Role)
	return target
}
