package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/quoteforge/quote-mint/internal/middleware"
	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/pkg/logger"
)

// MintRunner runs the full mint pipeline for one request.
type MintRunner interface {
	Run(ctx context.Context, in model.MintInput) (*model.MintReceipt, error)
}

// MintHandler handles POST /mint.
type MintHandler struct {
	orchestrator MintRunner
	logger       *logger.Logger
}

// NewMintHandler creates a new mint handler.
func NewMintHandler(orchestrator MintRunner, log *logger.Logger) *MintHandler {
	return &MintHandler{
		orchestrator: orchestrator,
		logger:       log,
	}
}

// Mint handles POST /mint: it drives the quote through the full pipeline
// and returns the receipt, or a stage-tagged error. On failure the
// pipeline is back at Idle and the caller may simply retry.
func (h *MintHandler) Mint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in model.MintInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// An authenticated session token may carry the wallet address.
	if in.WalletAddress == "" {
		in.WalletAddress = middleware.GetWalletAddress(ctx)
	}

	receipt, err := h.orchestrator.Run(ctx, in)
	if err != nil {
		code := model.CodeOf(err)
		stage := model.StageOf(err)
		h.logger.Warn("mint request failed",
			zap.String("stage", stage),
			zap.Error(err),
		)

		var e *model.Error
		message := err.Error()
		if errors.As(err, &e) {
			message = e.Message
		}
		writeJSON(w, model.HTTPStatus(code), map[string]string{
			"error": message,
			"stage": stage,
		})
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}
