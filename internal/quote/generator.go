// Package quote turns a conversation into a streamed, finalized quote.
package quote

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quoteforge/quote-mint/internal/llm"
	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/pkg/logger"
	"github.com/quoteforge/quote-mint/pkg/metrics"
)

// SystemInstruction is always prepended to the conversation so the backend
// returns only the quote text.
const SystemInstruction = "You are a quote generation AI. Reply ONLY with a short, meaningful quote. No intros, explanations, or emojis."

// DefaultTimeout bounds the whole generation request.
const DefaultTimeout = 30 * time.Second

// Generator forwards conversations to the inference backend and streams
// the response token by token.
type Generator struct {
	client  llm.Client
	model   string
	timeout time.Duration
	logger  *logger.Logger
}

// NewGenerator creates a generator over the given inference client. The
// client may be nil when no backend is configured; generation then fails
// with a config error instead of crashing at startup.
func NewGenerator(client llm.Client, modelName string, timeout time.Duration, log *logger.Logger) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{
		client:  client,
		model:   modelName,
		timeout: timeout,
		logger:  log,
	}
}

// GenerateStream streams a quote for the conversation, invoking onToken
// per chunk, and returns the finalized draft. Partial output already
// delivered through onToken is not rolled back on failure.
func (g *Generator) GenerateStream(ctx context.Context, conversation []model.ChatMessage, onToken llm.StreamCallback) (*model.QuoteDraft, error) {
	if g.client == nil {
		return nil, model.E(model.CodeConfigMissing, "", "no inference backend configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := make([]llm.ChatMessage, 0, len(conversation)+1)
	messages = append(messages, llm.ChatMessage{Role: string(model.RoleSystem), Content: SystemInstruction})
	for _, msg := range conversation {
		messages = append(messages, llm.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	start := time.Now()
	resp, err := g.client.CompleteStream(ctx, &llm.CompletionRequest{
		Model:    g.model,
		Messages: messages,
	}, onToken)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.RecordLLMStream(g.model, "timeout", time.Since(start).Seconds(), 0, 0)
			return nil, model.E(model.CodeTimeout, "", "quote generation timed out", err)
		}
		metrics.RecordLLMStream(g.model, "error", time.Since(start).Seconds(), 0, 0)
		return nil, model.E(model.CodeServiceUnavailable, "", "AI service unavailable. Try again later.", err)
	}

	metrics.RecordLLMStream(resp.Model, "ok", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	draft := &model.QuoteDraft{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Text:      strings.TrimSpace(resp.Content),
		Model:     resp.Model,
		CreatedAt: time.Now(),
	}

	g.logger.Info("quote finalized",
		zap.String("quote_id", draft.ID),
		zap.String("model", resp.Model),
		zap.Int("tokens_out", resp.TokensOut),
	)

	return draft, nil
}
