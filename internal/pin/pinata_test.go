package pin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	return log
}

func TestPublishFile(t *testing.T) {
	var gotAuth, gotContentType string
	var gotFilename string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename

		body, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), body)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "QmImageHash"})
	}))
	defer srv.Close()

	c := NewClient("test-token", time.Second, testLogger(t), WithBaseURL(srv.URL))

	asset, err := c.PublishFile(context.Background(), []byte("png-bytes"), "quote.png")
	require.NoError(t, err)

	assert.Equal(t, "ipfs://QmImageHash", asset.URI)
	assert.Equal(t, "QmImageHash", asset.CID)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Contains(t, gotContentType, "multipart/form-data")
	assert.Equal(t, "quote.png", gotFilename)
}

func TestPublishJSON(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "QmMetaHash"})
	}))
	defer srv.Close()

	c := NewClient("test-token", time.Second, testLogger(t), WithBaseURL(srv.URL))

	doc := model.MetadataDocument{
		Name:        model.MetadataName,
		Description: "Courage is grace under pressure.",
		Image:       "ipfs://QmImageHash",
	}
	asset, err := c.PublishJSON(context.Background(), doc, "")
	require.NoError(t, err)

	assert.Equal(t, "ipfs://QmMetaHash", asset.URI)

	content, ok := gotBody["pinataContent"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "AI Quote NFT", content["name"])
	assert.Equal(t, "Courage is grace under pressure.", content["description"])
	assert.Equal(t, "ipfs://QmImageHash", content["image"])

	meta, ok := gotBody["pinataMetadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "AI Quote NFT", meta["name"])
}

func TestPublishFailedOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-token", time.Second, testLogger(t), WithBaseURL(srv.URL))

	_, err := c.PublishFile(context.Background(), []byte("x"), "quote.png")
	require.Error(t, err)
	assert.Equal(t, model.CodePublishFailed, model.CodeOf(err))
	assert.False(t, model.IsTransient(err), "a server rejection is not safe to retry")
}

func TestPublishTransportErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient("test-token", time.Second, testLogger(t), WithBaseURL(srv.URL))

	_, err := c.PublishJSON(context.Background(), map[string]string{}, "doc")
	require.Error(t, err)
	assert.Equal(t, model.CodePublishFailed, model.CodeOf(err))
	assert.True(t, model.IsTransient(err), "transport failure must be retry-safe")
}

func TestPublishMissingToken(t *testing.T) {
	c := NewClient("", time.Second, testLogger(t))

	_, err := c.PublishFile(context.Background(), []byte("x"), "quote.png")
	require.Error(t, err)
	assert.Equal(t, model.CodeConfigMissing, model.CodeOf(err))

	_, err = c.PublishJSON(context.Background(), map[string]string{}, "doc")
	require.Error(t, err)
	assert.Equal(t, model.CodeConfigMissing, model.CodeOf(err))
}

func TestGatewayURL(t *testing.T) {
	assert.Equal(t, "https://ipfs.io/ipfs/QmHash", GatewayURL("ipfs://QmHash"))
	assert.Equal(t, "https://example.com/a.png", GatewayURL("https://example.com/a.png"))
	assert.Equal(t, "", GatewayURL(""))
}
