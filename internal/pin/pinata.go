// Package pin publishes content to IPFS through the Pinata pinning API.
package pin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/pkg/logger"
	"github.com/quoteforge/quote-mint/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.pinata.cloud"
	pinFilePath    = "/pinning/pinFileToIPFS"
	pinJSONPath    = "/pinning/pinJSONToIPFS"

	// URIScheme is the canonical content-addressed scheme. Downstream
	// consumers resolve it through the gateway of their choice.
	URIScheme = "ipfs://"
)

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// Client is the content publisher. It performs no retries itself; retry
// policy lives in the mint orchestrator, which knows which stages are
// cheap to repeat.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	token   string
	baseURL string
	logger  *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the pinning API host (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a publisher. token may be empty; publishing then fails
// with a config error at call time rather than crashing at startup.
func NewClient(token string, timeout time.Duration, log *logger.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := &Client{
		http:    resty.New().SetTimeout(timeout),
		token:   token,
		baseURL: defaultBaseURL,
		logger:  log,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "pinata",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("pinning service breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckConfig reports whether the client is configured to publish.
// No I/O; callers use it to fail fast before irreversible work.
func (c *Client) CheckConfig() error {
	if c.token == "" {
		return model.E(model.CodeConfigMissing, "", "pinning service token is not configured", nil)
	}
	return nil
}

// PublishFile pins raw binary content as a named file part and returns its
// content-addressed URI.
func (c *Client) PublishFile(ctx context.Context, data []byte, name string) (model.PublishedAsset, error) {
	if err := c.CheckConfig(); err != nil {
		return model.PublishedAsset{}, err
	}

	start := time.Now()
	asset, err := c.execute(ctx, "file", func(ctx context.Context) (*resty.Response, *pinResponse, error) {
		var out pinResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(c.token).
			SetFileReader("file", name, bytes.NewReader(data)).
			SetResult(&out).
			Post(c.baseURL + pinFilePath)
		return resp, &out, err
	})
	metrics.RecordPin("file", statusLabel(err), time.Since(start).Seconds())
	return asset, err
}

// PublishJSON pins a JSON document, wrapped with a display name, and
// returns its content-addressed URI.
func (c *Client) PublishJSON(ctx context.Context, doc any, name string) (model.PublishedAsset, error) {
	if err := c.CheckConfig(); err != nil {
		return model.PublishedAsset{}, err
	}

	if name == "" {
		name = model.MetadataName
	}
	body := map[string]any{
		"pinataContent":  doc,
		"pinataMetadata": map[string]string{"name": name},
	}

	start := time.Now()
	asset, err := c.execute(ctx, "json", func(ctx context.Context) (*resty.Response, *pinResponse, error) {
		var out pinResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(c.token).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			SetResult(&out).
			Post(c.baseURL + pinJSONPath)
		return resp, &out, err
	})
	metrics.RecordPin("json", statusLabel(err), time.Since(start).Seconds())
	return asset, err
}

func (c *Client) execute(ctx context.Context, kind string, call func(context.Context) (*resty.Response, *pinResponse, error)) (model.PublishedAsset, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, out, err := call(ctx)
		if err != nil {
			// Transport failure: no server-side effect was confirmed,
			// so a retry is safe.
			return nil, model.Transient(model.CodePublishFailed, "", "pinning request failed", err)
		}
		if resp.IsError() {
			return nil, model.E(model.CodePublishFailed, "",
				fmt.Sprintf("pinning service returned %d", resp.StatusCode()),
				errors.New(resp.String()))
		}
		if out.IpfsHash == "" {
			return nil, model.E(model.CodePublishFailed, "", "pinning service returned no content hash", nil)
		}
		return out, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return model.PublishedAsset{}, model.E(model.CodePublishFailed, "", "pinning service unavailable", err)
		}
		return model.PublishedAsset{}, err
	}

	out := result.(*pinResponse)
	asset := model.PublishedAsset{
		URI: URIScheme + out.IpfsHash,
		CID: out.IpfsHash,
	}

	c.logger.Info("content pinned",
		zap.String("kind", kind),
		zap.String("cid", out.IpfsHash),
	)
	return asset, nil
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// GatewayURL rewrites a canonical ipfs:// URI to a public gateway URL for
// display. Non-IPFS references pass through untouched.
func GatewayURL(uri string) string {
	if uri == "" {
		return ""
	}
	if len(uri) > len(URIScheme) && uri[:len(URIScheme)] == URIScheme {
		return "https://ipfs.io/ipfs/" + uri[len(URIScheme):]
	}
	return uri
}
