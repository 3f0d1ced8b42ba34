package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/quoteforge/quote-mint/internal/middleware"
	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/pkg/logger"
)

// NFTLister queries minted quote tokens from the indexing service.
type NFTLister interface {
	ListByContract(ctx context.Context) ([]model.ProcessedNFT, error)
	ListByOwner(ctx context.Context, owner string) ([]model.ProcessedNFT, error)
}

// NFTHandler handles GET /nfts.
type NFTHandler struct {
	indexer NFTLister
	logger  *logger.Logger
}

// NewNFTHandler creates a new NFT listing handler.
func NewNFTHandler(indexer NFTLister, log *logger.Logger) *NFTHandler {
	return &NFTHandler{
		indexer: indexer,
		logger:  log,
	}
}

// List handles GET /nfts?type=all|owner&address=0x...
func (h *NFTHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listType := r.URL.Query().Get("type")
	if listType == "" {
		listType = "all"
	}

	var (
		nfts []model.ProcessedNFT
		err  error
	)
	switch listType {
	case "all":
		nfts, err = h.indexer.ListByContract(ctx)
	case "owner":
		address := r.URL.Query().Get("address")
		if verr := middleware.ValidateWalletAddress(address); verr != nil {
			writeNFTError(w, http.StatusBadRequest, verr.Error())
			return
		}
		nfts, err = h.indexer.ListByOwner(ctx, address)
	default:
		writeNFTError(w, http.StatusBadRequest, "type must be 'all' or 'owner'")
		return
	}

	if err != nil {
		h.logger.Error("NFT listing failed",
			zap.String("type", listType),
			zap.Error(err),
		)
		writeNFTError(w, model.HTTPStatus(model.CodeOf(err)), errorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, model.ListNFTsResponse{
		NFTs:    nfts,
		Total:   len(nfts),
		Success: true,
	})
}

// NFT listing errors carry an explicit success flag alongside the message.
func writeNFTError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":   message,
		"success": false,
	})
}
