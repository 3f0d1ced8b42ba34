package model

import (
	"time"
)

// MetadataName is the fixed display name for minted quote tokens.
const MetadataName = "AI Quote NFT"

// RenderedImage is a raster image held in memory between the render and
// publish stages. It is never persisted.
type RenderedImage struct {
	Bytes    []byte
	Width    int
	Height   int
	MIMEType string
}

// PublishedAsset is content pinned to the storage network. Immutable once
// returned by the publisher.
type PublishedAsset struct {
	// URI is the canonical content-addressed reference (ipfs://<cid>),
	// never a gateway URL.
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// MetadataDocument is the NFT metadata pinned alongside the image. It is
// constructed once by the orchestrator and never mutated.
type MetadataDocument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// MintInput is what a caller supplies to start the mint pipeline.
type MintInput struct {
	WalletAddress string `json:"walletAddress"`
	QuoteText     string `json:"quoteText"`
}

// MintRequest is the on-chain call payload. It is only constructed after
// both published assets exist with non-empty URIs, and is consumed exactly
// once. The blockchain is the system of record for its outcome.
type MintRequest struct {
	Owner       string `json:"owner"`
	MetadataURI string `json:"metadataUri"`
}

// MintReceipt is returned to the caller after a successful pipeline run.
type MintReceipt struct {
	MintID      string    `json:"mint_id"`
	TxHash      string    `json:"tx_hash"`
	Owner       string    `json:"owner"`
	ImageURI    string    `json:"image_uri"`
	MetadataURI string    `json:"metadata_uri"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// MintEventStatus is the outcome of a single pipeline stage.
type MintEventStatus string

const (
	MintStageStarted   MintEventStatus = "started"
	MintStageSucceeded MintEventStatus = "succeeded"
	MintStageFailed    MintEventStatus = "failed"
)

// MintEvent is a pipeline lifecycle event, published for downstream
// consumers (audit, indexing).
type MintEvent struct {
	MintID    string          `json:"mint_id"`
	Stage     string          `json:"stage"`
	Status    MintEventStatus `json:"status"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
