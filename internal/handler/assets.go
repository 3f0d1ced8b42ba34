package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/quoteforge/quote-mint/internal/middleware"
	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/pkg/logger"
)

// Renderer renders quote text into the fixed artwork.
type Renderer interface {
	Render(text string) (model.RenderedImage, error)
}

// Publisher pins content to the storage network.
type Publisher interface {
	PublishFile(ctx context.Context, data []byte, name string) (model.PublishedAsset, error)
	PublishJSON(ctx context.Context, doc any, name string) (model.PublishedAsset, error)
}

// AssetHandler handles the standalone render/publish endpoints used by
// clients that drive the mint transaction themselves.
type AssetHandler struct {
	renderer  Renderer
	publisher Publisher
	logger    *logger.Logger
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(renderer Renderer, publisher Publisher, log *logger.Logger) *AssetHandler {
	return &AssetHandler{
		renderer:  renderer,
		publisher: publisher,
		logger:    log,
	}
}

type generateImageRequest struct {
	Quote string `json:"quote"`
}

// GenerateImage handles POST /generate-image: render the quote and pin
// the artwork, returning its content-addressed URI.
func (h *AssetHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quote == "" {
		writeError(w, http.StatusBadRequest, "Missing quote")
		return
	}
	if err := middleware.ValidateQuoteText(req.Quote); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	image, err := h.renderer.Render(req.Quote)
	if err != nil {
		h.logger.Error("image render failed", zap.Error(err))
		writeError(w, model.HTTPStatus(model.CodeOf(err)), errorMessage(err))
		return
	}

	asset, err := h.publisher.PublishFile(ctx, image.Bytes, "quote.png")
	if err != nil {
		h.logger.Error("image publish failed", zap.Error(err))
		writeError(w, model.HTTPStatus(model.CodeOf(err)), errorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"imageUri": asset.URI})
}

// Upload handles POST /upload: pin an arbitrary metadata document as JSON.
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := model.MetadataName
	if n, ok := doc["name"].(string); ok && n != "" {
		name = n
	}

	asset, err := h.publisher.PublishJSON(ctx, doc, name)
	if err != nil {
		h.logger.Error("metadata publish failed", zap.Error(err))
		writeError(w, model.HTTPStatus(model.CodeOf(err)), errorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"ipfsUri": asset.URI})
}
