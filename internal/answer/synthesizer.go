package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pdfqa/internal/domain"
)

const (
	// DefaultNoInformation is returned when retrieval found nothing to ground on.
	DefaultNoInformation = "No information was found about this question."

	// Instruction tells the model to stay inside the retrieved content.
	Instruction = "You are an assistant that answers questions using only the document content below. " +
		"If the answer is not in the content, say \"The answer to this question is not available in the documents.\" " +
		"Do not use outside knowledge."
)

// Synthesizer turns retrieved chunks into a grounded answer.
type Synthesizer struct {
	completer     domain.Completer
	noInformation string
	logger        *zap.Logger
}

func NewSynthesizer(completer domain.Completer, noInformation string, logger *zap.Logger) *Synthesizer {
	if noInformation == "" {
		noInformation = DefaultNoInformation
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{completer: completer, noInformation: noInformation, logger: logger}
}

// Synthesize answers question from results. With no results the completer is
// not called and the no-information message is returned.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, results []domain.SearchResult) (string, error) {
	if len(results) == 0 {
		return s.noInformation, nil
	}
	prompt := BuildPrompt(question, results)
	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Error("completion failed",
			zap.String("completer", s.completer.Name()),
			zap.String("question", question),
			zap.Error(err))
		return "", fmt.Errorf("%w: %s: %v", domain.ErrUpstream, s.completer.Name(), err)
	}
	return text, nil
}

// BuildPrompt joins chunk texts in rank order, separated by blank lines.
func BuildPrompt(question string, results []domain.SearchResult) domain.Prompt {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Chunk.Text
	}
	return domain.Prompt{
		Instruction: Instruction,
		Context:     strings.Join(parts, "\n\n"),
		Question:    question,
	}
}
