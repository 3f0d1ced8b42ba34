// Package handler contains the HTTP handlers for the quote mint API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/quoteforge/quote-mint/internal/llm"
	"github.com/quoteforge/quote-mint/internal/middleware"
	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/internal/ratelimit"
	"github.com/quoteforge/quote-mint/pkg/logger"
	"github.com/quoteforge/quote-mint/pkg/metrics"
)

// QuoteStreamer produces a streamed, finalized quote for a conversation.
type QuoteStreamer interface {
	GenerateStream(ctx context.Context, conversation []model.ChatMessage, onToken llm.StreamCallback) (*model.QuoteDraft, error)
}

// ChatHandler handles POST /chat.
type ChatHandler struct {
	generator QuoteStreamer
	limiter   *ratelimit.Limiter
	logger    *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(generator QuoteStreamer, limiter *ratelimit.Limiter, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		generator: generator,
		limiter:   limiter,
		logger:    log,
	}
}

// Chat handles POST /chat: it gates the request on the per-identifier
// limiter, forwards the conversation to the quote generator, and streams
// the response as SSE token events.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages cannot be empty")
		return
	}
	for _, m := range req.Messages {
		if err := middleware.ValidateMessageContent(m.Content); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	identifier := chatIdentifier(r, req.Messages)
	if !h.limiter.Allow(identifier) {
		metrics.RecordRateLimitRejection("chat")
		h.logger.Info("chat request rate limited", zap.String("identifier", identifier))
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please wait a minute.")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// SSE headers are sent lazily: failures before the first token can
	// still produce a plain JSON error response.
	streaming := false
	startStream := func() {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		metrics.IncrementSSEConnections()
		streaming = true
	}
	defer func() {
		if streaming {
			metrics.DecrementSSEConnections()
		}
	}()

	draft, err := h.generator.GenerateStream(ctx, req.Messages, func(token string, index int) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !streaming {
			startStream()
		}
		return sendSSEEvent(w, flusher, "token", &model.TokenEvent{Token: token, Index: index})
	})
	if err != nil {
		code := model.CodeOf(err)
		if !streaming {
			writeError(w, model.HTTPStatus(code), errorMessage(err))
			return
		}
		// Tokens already left the building; they are not rolled back,
		// the client discards the partial stream.
		sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
			Code:    string(code),
			Message: errorMessage(err),
		})
		return
	}

	if !streaming {
		startStream()
	}
	sendSSEEvent(w, flusher, "message_complete", &model.QuoteCompleteEvent{Quote: *draft})
	sendSSEEvent(w, flusher, "done", map[string]bool{"success": true})
}

// chatIdentifier resolves the rate-limit identifier: wallet address from
// the user message metadata, else the forwarded network origin, else the
// shared anonymous bucket.
func chatIdentifier(r *http.Request, messages []model.ChatMessage) string {
	var wallet string
	for _, m := range messages {
		if m.Role == model.RoleUser && m.Metadata != nil && m.Metadata.WalletAddress != "" {
			wallet = m.Metadata.WalletAddress
			break
		}
	}

	origin := r.Header.Get("X-Forwarded-For")
	if i := strings.IndexByte(origin, ','); i >= 0 {
		origin = strings.TrimSpace(origin[:i])
	}
	if origin == "" {
		origin = r.RemoteAddr
	}

	return ratelimit.Identify(wallet, origin)
}

func errorMessage(err error) string {
	var e *model.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
