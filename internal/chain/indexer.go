package chain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/internal/pin"
	"github.com/quoteforge/quote-mint/pkg/logger"
)

// Indexer queries the NFT indexing service (Alchemy NFT API) for tokens
// minted under the quote contract.
type Indexer struct {
	http     *resty.Client
	baseURL  string
	contract string
	logger   *logger.Logger
}

// NewIndexer creates an indexer client. baseURL is the Alchemy NFT API
// endpoint including the API key path segment. Either value may be empty;
// queries then fail with a config error.
func NewIndexer(baseURL, contract string, timeout time.Duration, log *logger.Logger) *Indexer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Indexer{
		http:     resty.New().SetTimeout(timeout),
		baseURL:  strings.TrimRight(baseURL, "/"),
		contract: contract,
		logger:   log,
	}
}

func (ix *Indexer) checkConfig() error {
	if ix.baseURL == "" {
		return model.E(model.CodeConfigMissing, "", "NFT indexer RPC is not configured", nil)
	}
	if ix.contract == "" {
		return model.E(model.CodeConfigMissing, "", "quote NFT contract address is not configured", nil)
	}
	return nil
}

// ListByContract returns every token minted under the quote contract.
func (ix *Indexer) ListByContract(ctx context.Context) ([]model.ProcessedNFT, error) {
	if err := ix.checkConfig(); err != nil {
		return nil, err
	}

	var out model.AlchemyContractResponse
	resp, err := ix.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"contractAddress": ix.contract,
			"withMetadata":    "true",
		}).
		SetResult(&out).
		Get(ix.baseURL + "/getNFTsForContract")
	if err != nil {
		return nil, model.E(model.CodeServiceUnavailable, "", "NFT indexer request failed", err)
	}
	if resp.IsError() {
		return nil, model.E(model.CodeServiceUnavailable, "",
			fmt.Sprintf("NFT indexer returned %d", resp.StatusCode()), nil)
	}

	nfts := make([]model.ProcessedNFT, 0, len(out.NFTs))
	for _, nft := range out.NFTs {
		nfts = append(nfts, processNFT(nft, ""))
	}
	return nfts, nil
}

// ListByOwner returns the tokens of the quote contract held by owner.
func (ix *Indexer) ListByOwner(ctx context.Context, owner string) ([]model.ProcessedNFT, error) {
	if err := ix.checkConfig(); err != nil {
		return nil, err
	}

	var out model.AlchemyOwnerResponse
	resp, err := ix.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"owner":               owner,
			"contractAddresses[]": ix.contract,
		}).
		SetResult(&out).
		Get(ix.baseURL + "/getNFTsForOwner")
	if err != nil {
		return nil, model.E(model.CodeServiceUnavailable, "", "NFT indexer request failed", err)
	}
	if resp.IsError() {
		return nil, model.E(model.CodeServiceUnavailable, "",
			fmt.Sprintf("NFT indexer returned %d", resp.StatusCode()), nil)
	}

	nfts := make([]model.ProcessedNFT, 0, len(out.OwnedNFTs))
	for _, nft := range out.OwnedNFTs {
		nfts = append(nfts, processNFT(nft, owner))
	}
	return nfts, nil
}

func processNFT(nft model.AlchemyNFT, owner string) model.ProcessedNFT {
	return model.ProcessedNFT{
		TokenID:  parseTokenID(nft.ID.TokenID),
		TokenURI: nft.TokenURI.Raw,
		Metadata: nft.Metadata,
		ImageURL: imageURL(nft.Metadata.Image),
		Owner:    owner,
		MintedAt: nft.TimeLastUpdated,
	}
}

// Token IDs arrive hex-encoded (0x1a); plain decimal is tolerated.
func parseTokenID(raw string) int64 {
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		if id, err := strconv.ParseInt(raw[2:], 16, 64); err == nil {
			return id
		}
		return 0
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id
	}
	return 0
}

func imageURL(uri string) string {
	if uri == "" {
		return "/placeholder.png"
	}
	return pin.GatewayURL(uri)
}
