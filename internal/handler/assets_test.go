package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/pkg/logger"
)

type fakeRenderer struct {
	image model.RenderedImage
	err   error
	calls int
}

func (f *fakeRenderer) Render(text string) (model.RenderedImage, error) {
	f.calls++
	return f.image, f.err
}

type fakePublisher struct {
	fileAsset model.PublishedAsset
	jsonAsset model.PublishedAsset
	fileErr   error
	jsonErr   error
	fileCalls int
	jsonCalls int
	lastName  string
	lastJSON  any
}

func (f *fakePublisher) PublishFile(ctx context.Context, data []byte, name string) (model.PublishedAsset, error) {
	f.fileCalls++
	f.lastName = name
	return f.fileAsset, f.fileErr
}

func (f *fakePublisher) PublishJSON(ctx context.Context, doc any, name string) (model.PublishedAsset, error) {
	f.jsonCalls++
	f.lastName = name
	f.lastJSON = doc
	return f.jsonAsset, f.jsonErr
}

func newAssetHandler(t *testing.T, renderer *fakeRenderer, publisher *fakePublisher) *AssetHandler {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	return NewAssetHandler(renderer, publisher, log)
}

func TestGenerateImageReturnsPinnedURI(t *testing.T) {
	renderer := &fakeRenderer{
		image: model.RenderedImage{Bytes: []byte("png"), Width: 1000, Height: 500},
	}
	publisher := &fakePublisher{
		fileAsset: model.PublishedAsset{URI: "ipfs://QmImage", CID: "QmImage"},
	}
	h := newAssetHandler(t, renderer, publisher)

	req := httptest.NewRequest(http.MethodPost, "/generate-image",
		bytes.NewBufferString(`{"quote":"Stay curious."}`))
	rec := httptest.NewRecorder()

	h.GenerateImage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ipfs://QmImage", resp["imageUri"])
	assert.Equal(t, 1, renderer.calls)
	assert.Equal(t, 1, publisher.fileCalls)
	assert.Equal(t, "quote.png", publisher.lastName)
}

func TestGenerateImageRejectsMissingQuote(t *testing.T) {
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{}
	h := newAssetHandler(t, renderer, publisher)

	req := httptest.NewRequest(http.MethodPost, "/generate-image",
		bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	h.GenerateImage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing quote")
	assert.Equal(t, 0, renderer.calls)
	assert.Equal(t, 0, publisher.fileCalls)
}

func TestGenerateImagePublishFailure(t *testing.T) {
	renderer := &fakeRenderer{
		image: model.RenderedImage{Bytes: []byte("png")},
	}
	publisher := &fakePublisher{
		fileErr: model.E(model.CodePublishFailed, "publish-image", "pin service returned 500", nil),
	}
	h := newAssetHandler(t, renderer, publisher)

	req := httptest.NewRequest(http.MethodPost, "/generate-image",
		bytes.NewBufferString(`{"quote":"Stay curious."}`))
	rec := httptest.NewRecorder()

	h.GenerateImage(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "pin service returned 500")
}

func TestUploadPinsArbitraryJSON(t *testing.T) {
	publisher := &fakePublisher{
		jsonAsset: model.PublishedAsset{URI: "ipfs://QmMeta", CID: "QmMeta"},
	}
	h := newAssetHandler(t, &fakeRenderer{}, publisher)

	req := httptest.NewRequest(http.MethodPost, "/upload",
		bytes.NewBufferString(`{"name":"Custom Quote","description":"hand-made","image":"ipfs://QmImg"}`))
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ipfs://QmMeta", resp["ipfsUri"])
	assert.Equal(t, 1, publisher.jsonCalls)
	assert.Equal(t, "Custom Quote", publisher.lastName)
}

func TestUploadRejectsMalformedBody(t *testing.T) {
	publisher := &fakePublisher{}
	h := newAssetHandler(t, &fakeRenderer{}, publisher)

	req := httptest.NewRequest(http.MethodPost, "/upload",
		bytes.NewBufferString(`{not json`))
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, publisher.jsonCalls)
}
