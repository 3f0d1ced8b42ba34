// Package mint sequences the render -> publish -> publish -> mint
// pipeline that turns a quote into an on-chain token.
package mint

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quoteforge/quote-mint/internal/chain"
	"github.com/quoteforge/quote-mint/internal/events"
	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/pkg/logger"
	"github.com/quoteforge/quote-mint/pkg/metrics"
)

// State is the orchestrator's position in the pipeline. Each run walks
// the states strictly in order; Failed is terminal and reachable from
// every non-terminal state.
type State string

const (
	StateIdle               State = "idle"
	StateRenderingImage     State = "rendering_image"
	StatePublishingImage    State = "publishing_image"
	StatePublishingMetadata State = "publishing_metadata"
	StateMinting            State = "minting"
	StateMinted             State = "minted"
	StateFailed             State = "failed"
)

// Stage tags carried on failures, one per external call boundary.
const (
	StagePrecondition    = "precondition"
	StageRender          = "render"
	StagePublishImage    = "publish-image"
	StagePublishMetadata = "publish-metadata"
	StageMint            = "mint"
)

// Renderer renders quote text into the fixed-size artwork.
type Renderer interface {
	Render(text string) (model.RenderedImage, error)
}

// Publisher pins content to the storage network. CheckConfig is an
// I/O-free readiness probe so the pipeline can refuse a doomed run
// before any irreversible work.
type Publisher interface {
	CheckConfig() error
	PublishFile(ctx context.Context, data []byte, name string) (model.PublishedAsset, error)
	PublishJSON(ctx context.Context, doc any, name string) (model.PublishedAsset, error)
}

// Minter submits the on-chain mint call. CheckConfig is an I/O-free
// readiness probe, same contract as Publisher's.
type Minter interface {
	CheckConfig() error
	Mint(ctx context.Context, req model.MintRequest) (string, error)
}

const (
	// DefaultStageTimeout bounds each external stage so a hung
	// collaborator cannot stall a mint indefinitely.
	DefaultStageTimeout = 20 * time.Second

	// DefaultPublishRetries is the retry budget per publish stage.
	// Retries apply only to transient failures; the mint stage is never
	// retried because its outcome can be ambiguous.
	DefaultPublishRetries = 2
)

// Orchestrator drives one mint request through the pipeline. Runs are
// independent: concurrent mints share no state. Stages are strictly
// sequential because each output feeds the next stage's input.
//
// Every side effect past the precondition check is irreversible (pinned
// content stays pinned, submitted transactions cannot be recalled), so
// cheap preconditions fail the run before any costly stage. Caller
// retries restart from Idle and may leave orphaned pinned assets behind;
// that cost is accepted.
type Orchestrator struct {
	renderer  Renderer
	publisher Publisher
	minter    Minter
	events    events.Publisher
	logger    *logger.Logger

	stageTimeout   time.Duration
	publishRetries uint64
	retryInterval  time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStageTimeout overrides the per-stage timeout.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stageTimeout = d }
}

// WithPublishRetries overrides the per-publish-stage retry budget.
func WithPublishRetries(n uint64) Option {
	return func(o *Orchestrator) { o.publishRetries = n }
}

// WithRetryInterval overrides the initial backoff interval (tests).
func WithRetryInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.retryInterval = d }
}

// NewOrchestrator wires the pipeline collaborators together.
func NewOrchestrator(r Renderer, p Publisher, m Minter, ev events.Publisher, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		renderer:       r,
		publisher:      p,
		minter:         m,
		events:         ev,
		logger:         log,
		stageTimeout:   DefaultStageTimeout,
		publishRetries: DefaultPublishRetries,
		retryInterval:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the full pipeline for one mint request. On failure the
// returned error carries the stage tag and the run is over; the caller
// retries by starting a new run.
func (o *Orchestrator) Run(ctx context.Context, in model.MintInput) (*model.MintReceipt, error) {
	mintID := uuid.Must(uuid.NewV7()).String()
	log := o.logger.With(zap.String("mint_id", mintID))

	// Precondition: fail before any external call when the request is
	// guaranteed to fail at the final stage anyway.
	if in.WalletAddress == "" {
		return nil, o.fail(ctx, mintID, log, StagePrecondition,
			model.E(model.CodeMintPrecondition, StagePrecondition, "no wallet connected", nil))
	}
	if !chain.ValidOwner(in.WalletAddress) {
		return nil, o.fail(ctx, mintID, log, StagePrecondition,
			model.E(model.CodeMintPrecondition, StagePrecondition, "wallet address is not a valid address", nil))
	}

	// Every stage past this point has irreversible side effects, so a
	// collaborator that cannot possibly succeed fails the run here, before
	// anything is rendered or pinned.
	if err := o.publisher.CheckConfig(); err != nil {
		return nil, o.fail(ctx, mintID, log, StagePrecondition, err)
	}
	if err := o.minter.CheckConfig(); err != nil {
		return nil, o.fail(ctx, mintID, log, StagePrecondition, err)
	}

	// Idle -> RenderingImage
	o.enter(ctx, mintID, log, StateRenderingImage, StageRender)
	renderStart := time.Now()
	image, err := o.renderer.Render(in.QuoteText)
	if err != nil {
		return nil, o.fail(ctx, mintID, log, StageRender, err)
	}
	o.leave(ctx, mintID, StageRender, renderStart)

	// RenderingImage -> PublishingImage
	o.enter(ctx, mintID, log, StatePublishingImage, StagePublishImage)
	publishStart := time.Now()
	imageAsset, err := o.publishWithRetry(ctx, func(ctx context.Context) (model.PublishedAsset, error) {
		return o.publisher.PublishFile(ctx, image.Bytes, "quote.png")
	})
	if err != nil {
		return nil, o.fail(ctx, mintID, log, StagePublishImage, err)
	}
	o.leave(ctx, mintID, StagePublishImage, publishStart)

	// The metadata document references the pinned image and is never
	// mutated after this point.
	doc := model.MetadataDocument{
		Name:        model.MetadataName,
		Description: in.QuoteText,
		Image:       imageAsset.URI,
	}

	// PublishingImage -> PublishingMetadata
	o.enter(ctx, mintID, log, StatePublishingMetadata, StagePublishMetadata)
	publishStart = time.Now()
	metadataAsset, err := o.publishWithRetry(ctx, func(ctx context.Context) (model.PublishedAsset, error) {
		return o.publisher.PublishJSON(ctx, doc, doc.Name)
	})
	if err != nil {
		return nil, o.fail(ctx, mintID, log, StagePublishMetadata, err)
	}
	o.leave(ctx, mintID, StagePublishMetadata, publishStart)

	// Invariant: a mint request is only constructed once both assets
	// exist with non-empty URIs.
	if imageAsset.URI == "" || metadataAsset.URI == "" {
		return nil, o.fail(ctx, mintID, log, StagePublishMetadata,
			model.E(model.CodePublishFailed, StagePublishMetadata, "published asset has an empty URI", nil))
	}

	// PublishingMetadata -> Minting
	o.enter(ctx, mintID, log, StateMinting, StageMint)
	mintStart := time.Now()
	mintCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	txHash, err := o.minter.Mint(mintCtx, model.MintRequest{
		Owner:       in.WalletAddress,
		MetadataURI: metadataAsset.URI,
	})
	cancel()
	if err != nil {
		return nil, o.fail(ctx, mintID, log, StageMint, err)
	}
	o.leave(ctx, mintID, StageMint, mintStart)

	// Minting -> Minted
	metrics.RecordMintPipeline("minted")
	log.Info("mint pipeline complete",
		zap.String("state", string(StateMinted)),
		zap.String("tx_hash", txHash),
		zap.String("metadata_uri", metadataAsset.URI),
	)

	return &model.MintReceipt{
		MintID:      mintID,
		TxHash:      txHash,
		Owner:       in.WalletAddress,
		ImageURI:    imageAsset.URI,
		MetadataURI: metadataAsset.URI,
		SubmittedAt: time.Now(),
	}, nil
}

// publishWithRetry runs a publish call under the stage timeout, retrying
// only transient failures (transport errors before any server-side effect
// was confirmed) with exponential backoff.
func (o *Orchestrator) publishWithRetry(ctx context.Context, fn func(context.Context) (model.PublishedAsset, error)) (model.PublishedAsset, error) {
	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	var asset model.PublishedAsset
	operation := func() error {
		a, err := fn(stageCtx)
		if err != nil {
			if model.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		asset = a
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = o.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, o.publishRetries), stageCtx)

	if err := backoff.Retry(operation, policy); err != nil {
		return model.PublishedAsset{}, err
	}
	return asset, nil
}

func (o *Orchestrator) enter(ctx context.Context, mintID string, log *logger.Logger, state State, stage string) {
	log.Info("mint stage started",
		zap.String("state", string(state)),
		zap.String("stage", stage),
	)
	o.emit(ctx, mintID, stage, model.MintStageStarted, "")
}

func (o *Orchestrator) leave(ctx context.Context, mintID, stage string, start time.Time) {
	metrics.RecordMintStage(stage, "succeeded", time.Since(start).Seconds())
	o.emit(ctx, mintID, stage, model.MintStageSucceeded, "")
}

// fail tags the error with its stage, emits the failure event, and leaves
// the run terminal. The caller-visible pipeline state resets to Idle.
func (o *Orchestrator) fail(ctx context.Context, mintID string, log *logger.Logger, stage string, err error) error {
	tagged := withStage(err, stage)

	metrics.RecordMintStage(stage, "failed", 0)
	metrics.RecordMintPipeline("failed")
	o.emit(ctx, mintID, stage, model.MintStageFailed, tagged.Error())

	log.Warn("mint pipeline failed",
		zap.String("state", string(StateFailed)),
		zap.String("stage", stage),
		zap.Error(tagged),
	)
	return tagged
}

func (o *Orchestrator) emit(ctx context.Context, mintID, stage string, status model.MintEventStatus, reason string) {
	if o.events == nil {
		return
	}
	ev := model.MintEvent{
		MintID:    mintID,
		Stage:     stage,
		Status:    status,
		Reason:    reason,
		Timestamp: time.Now(),
	}
	if err := o.events.MintStage(ctx, ev); err != nil {
		o.logger.Warn("failed to publish mint event", zap.Error(err))
	}
}

// withStage re-tags a coded error with the failing stage, or wraps an
// uncoded error with the stage's default code.
func withStage(err error, stage string) error {
	var e *model.Error
	if errors.As(err, &e) {
		tagged := *e
		tagged.Stage = stage
		return &tagged
	}
	return model.E(defaultCode(stage), stage, err.Error(), err)
}

func defaultCode(stage string) model.ErrorCode {
	switch stage {
	case StagePrecondition:
		return model.CodeMintPrecondition
	case StageRender:
		return model.CodeRenderFailed
	case StagePublishImage, StagePublishMetadata:
		return model.CodePublishFailed
	case StageMint:
		return model.CodeMintRejected
	default:
		return model.CodeServiceUnavailable
	}
}
