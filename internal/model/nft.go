package model

// Wire types for the NFT indexing service (Alchemy NFT API v2).

// AlchemyTokenID identifies a token within a contract.
type AlchemyTokenID struct {
	TokenID string `json:"tokenId"`
}

// AlchemyTokenURI is the raw/gateway pair for a token's metadata URI.
type AlchemyTokenURI struct {
	Gateway string `json:"gateway"`
	Raw     string `json:"raw"`
}

// NFTMetadata is the decoded metadata document of an indexed token.
type NFTMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// AlchemyNFT is one token as returned by the indexer.
type AlchemyNFT struct {
	ID              AlchemyTokenID  `json:"id"`
	TokenURI        AlchemyTokenURI `json:"tokenUri"`
	Metadata        NFTMetadata     `json:"metadata"`
	TimeLastUpdated string          `json:"timeLastUpdated"`
}

// AlchemyContractResponse is the getNFTsForContract response shape.
type AlchemyContractResponse struct {
	NFTs []AlchemyNFT `json:"nfts"`
}

// AlchemyOwnerResponse is the getNFTsForOwner response shape.
type AlchemyOwnerResponse struct {
	OwnedNFTs []AlchemyNFT `json:"ownedNfts"`
}

// ProcessedNFT is the normalized token shape served by GET /nfts.
type ProcessedNFT struct {
	TokenID  int64       `json:"tokenId"`
	TokenURI string      `json:"tokenURI"`
	Metadata NFTMetadata `json:"metadata"`
	ImageURL string      `json:"imageUrl"`
	Owner    string      `json:"owner,omitempty"`
	MintedAt string      `json:"mintedAt"`
}

// ListNFTsResponse is the body of a successful GET /nfts.
type ListNFTsResponse struct {
	NFTs    []ProcessedNFT `json:"nfts"`
	Total   int            `json:"total"`
	Success bool           `json:"success"`
}
