package mint

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteforge/quote-mint/internal/events"
	"github.com/quoteforge/quote-mint/internal/model"
	"github.com/quoteforge/quote-mint/pkg/logger"
)

const testWallet = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"

type fakeRenderer struct {
	calls int
	err   error
}

func (f *fakeRenderer) Render(text string) (model.RenderedImage, error) {
	f.calls++
	if f.err != nil {
		return model.RenderedImage{}, f.err
	}
	return model.RenderedImage{
		Bytes:    []byte("png:" + text),
		Width:    1000,
		Height:   500,
		MIMEType: "image/png",
	}, nil
}

type fakePublisher struct {
	cfgErr    error
	fileCalls int
	jsonCalls int

	fileErrs []error // consumed per call; nil entry = success
	jsonErrs []error

	gotFileName string
	gotJSONName string
	gotDoc      model.MetadataDocument

	seq int
}

func (f *fakePublisher) nextAsset() model.PublishedAsset {
	f.seq++
	cid := fmt.Sprintf("QmFake%d", f.seq)
	return model.PublishedAsset{URI: "ipfs://" + cid, CID: cid}
}

func takeErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (f *fakePublisher) CheckConfig() error { return f.cfgErr }

func (f *fakePublisher) PublishFile(_ context.Context, _ []byte, name string) (model.PublishedAsset, error) {
	f.fileCalls++
	f.gotFileName = name
	if err := takeErr(&f.fileErrs); err != nil {
		return model.PublishedAsset{}, err
	}
	return f.nextAsset(), nil
}

func (f *fakePublisher) PublishJSON(_ context.Context, doc any, name string) (model.PublishedAsset, error) {
	f.jsonCalls++
	f.gotJSONName = name
	if d, ok := doc.(model.MetadataDocument); ok {
		f.gotDoc = d
	}
	if err := takeErr(&f.jsonErrs); err != nil {
		return model.PublishedAsset{}, err
	}
	return f.nextAsset(), nil
}

type fakeMinter struct {
	cfgErr error
	calls  int
	err    error
	gotReq model.MintRequest
}

func (f *fakeMinter) CheckConfig() error { return f.cfgErr }

func (f *fakeMinter) Mint(_ context.Context, req model.MintRequest) (string, error) {
	f.calls++
	f.gotReq = req
	if f.err != nil {
		return "", f.err
	}
	return "0xdeadbeef", nil
}

type recordingEvents struct {
	events []model.MintEvent
}

func (r *recordingEvents) MintStage(_ context.Context, ev model.MintEvent) error {
	r.events = append(r.events, ev)
	return nil
}
func (r *recordingEvents) Connected() bool { return true }
func (r *recordingEvents) Close()          {}

func newTestOrchestrator(t *testing.T, r *fakeRenderer, p *fakePublisher, m *fakeMinter, ev events.Publisher) *Orchestrator {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	return NewOrchestrator(r, p, m, ev, log,
		WithStageTimeout(time.Second),
		WithRetryInterval(time.Millisecond),
	)
}

func TestRunHappyPath(t *testing.T) {
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{}
	minter := &fakeMinter{}
	sink := &recordingEvents{}
	o := newTestOrchestrator(t, renderer, publisher, minter, sink)

	receipt, err := o.Run(context.Background(), model.MintInput{
		WalletAddress: testWallet,
		QuoteText:     "Courage is grace under pressure.",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, renderer.calls)
	assert.Equal(t, 1, publisher.fileCalls)
	assert.Equal(t, 1, publisher.jsonCalls)
	assert.Equal(t, 1, minter.calls)

	// The metadata document references the image asset and carries the
	// quote text verbatim.
	assert.Equal(t, "AI Quote NFT", publisher.gotDoc.Name)
	assert.Equal(t, "Courage is grace under pressure.", publisher.gotDoc.Description)
	assert.Equal(t, "ipfs://QmFake1", publisher.gotDoc.Image)
	assert.Equal(t, "quote.png", publisher.gotFileName)

	// The mint request consumes the metadata asset, not the image asset.
	assert.Equal(t, testWallet, minter.gotReq.Owner)
	assert.Equal(t, "ipfs://QmFake2", minter.gotReq.MetadataURI)

	assert.Equal(t, "0xdeadbeef", receipt.TxHash)
	assert.Equal(t, "ipfs://QmFake1", receipt.ImageURI)
	assert.Equal(t, "ipfs://QmFake2", receipt.MetadataURI)

	// Stage events: started+succeeded for each of the four stages.
	require.Len(t, sink.events, 8)
	assert.Equal(t, StageRender, sink.events[0].Stage)
	assert.Equal(t, model.MintStageStarted, sink.events[0].Status)
	last := sink.events[len(sink.events)-1]
	assert.Equal(t, StageMint, last.Stage)
	assert.Equal(t, model.MintStageSucceeded, last.Status)
}

func TestRunMissingWalletMakesNoExternalCalls(t *testing.T) {
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{}
	minter := &fakeMinter{}
	o := newTestOrchestrator(t, renderer, publisher, minter, events.Noop{})

	_, err := o.Run(context.Background(), model.MintInput{QuoteText: "x"})
	require.Error(t, err)

	assert.Equal(t, model.CodeMintPrecondition, model.CodeOf(err))
	assert.Equal(t, StagePrecondition, model.StageOf(err))
	assert.Zero(t, renderer.calls)
	assert.Zero(t, publisher.fileCalls)
	assert.Zero(t, publisher.jsonCalls)
	assert.Zero(t, minter.calls)
}

func TestRunInvalidWalletFailsPrecondition(t *testing.T) {
	renderer := &fakeRenderer{}
	o := newTestOrchestrator(t, renderer, &fakePublisher{}, &fakeMinter{}, events.Noop{})

	_, err := o.Run(context.Background(), model.MintInput{WalletAddress: "guest", QuoteText: "x"})
	require.Error(t, err)
	assert.Equal(t, model.CodeMintPrecondition, model.CodeOf(err))
	assert.Zero(t, renderer.calls)
}

func TestRunUnconfiguredMinterFailsBeforeAnyPin(t *testing.T) {
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{}
	minter := &fakeMinter{
		cfgErr: model.E(model.CodeConfigMissing, "", "blockchain RPC endpoint is not configured", nil),
	}
	o := newTestOrchestrator(t, renderer, publisher, minter, events.Noop{})

	_, err := o.Run(context.Background(), model.MintInput{WalletAddress: testWallet, QuoteText: "x"})
	require.Error(t, err)

	assert.Equal(t, model.CodeConfigMissing, model.CodeOf(err))
	assert.Equal(t, StagePrecondition, model.StageOf(err))
	assert.Zero(t, renderer.calls, "nothing may be rendered for a doomed run")
	assert.Zero(t, publisher.fileCalls, "nothing may be pinned for a doomed run")
	assert.Zero(t, publisher.jsonCalls)
	assert.Zero(t, minter.calls)
}

func TestRunUnconfiguredPublisherFailsBeforeRender(t *testing.T) {
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{
		cfgErr: model.E(model.CodeConfigMissing, "", "pinning service token is not configured", nil),
	}
	o := newTestOrchestrator(t, renderer, publisher, &fakeMinter{}, events.Noop{})

	_, err := o.Run(context.Background(), model.MintInput{WalletAddress: testWallet, QuoteText: "x"})
	require.Error(t, err)

	assert.Equal(t, model.CodeConfigMissing, model.CodeOf(err))
	assert.Equal(t, StagePrecondition, model.StageOf(err))
	assert.Zero(t, renderer.calls)
	assert.Zero(t, publisher.fileCalls)
}

func TestRunRenderFailureStopsPipeline(t *testing.T) {
	renderer := &fakeRenderer{err: model.E(model.CodeRenderFailed, "", "quote text is empty", nil)}
	publisher := &fakePublisher{}
	minter := &fakeMinter{}
	o := newTestOrchestrator(t, renderer, publisher, minter, events.Noop{})

	_, err := o.Run(context.Background(), model.MintInput{WalletAddress: testWallet, QuoteText: ""})
	require.Error(t, err)

	assert.Equal(t, model.CodeRenderFailed, model.CodeOf(err))
	assert.Equal(t, StageRender, model.StageOf(err))
	assert.Zero(t, publisher.fileCalls)
	assert.Zero(t, minter.calls)
}

func TestRunImagePublishFailureStopsBeforeMetadata(t *testing.T) {
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{
		fileErrs: []error{model.E(model.CodePublishFailed, "", "pinning service returned 500", nil)},
	}
	minter := &fakeMinter{}
	o := newTestOrchestrator(t, renderer, publisher, minter, events.Noop{})

	_, err := o.Run(context.Background(), model.MintInput{WalletAddress: testWallet, QuoteText: "x"})
	require.Error(t, err)

	assert.Equal(t, model.CodePublishFailed, model.CodeOf(err))
	assert.Equal(t, StagePublishImage, model.StageOf(err))
	assert.Equal(t, 1, publisher.fileCalls, "non-transient failure must not be retried")
	assert.Zero(t, publisher.jsonCalls, "no metadata document may be constructed")
	assert.Zero(t, minter.calls, "no mint call may be attempted")
}

func TestRunRetriesTransientPublishFailure(t *testing.T) {
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{
		fileErrs: []error{
			model.Transient(model.CodePublishFailed, "", "pinning request failed", errors.New("connection reset")),
		},
	}
	minter := &fakeMinter{}
	o := newTestOrchestrator(t, renderer, publisher, minter, events.Noop{})

	receipt, err := o.Run(context.Background(), model.MintInput{WalletAddress: testWallet, QuoteText: "x"})
	require.NoError(t, err)

	assert.Equal(t, 2, publisher.fileCalls, "transient failure retried once then succeeded")
	assert.Equal(t, 1, minter.calls)
	assert.NotEmpty(t, receipt.TxHash)
}

func TestRunTransientFailuresExhaustRetryBudget(t *testing.T) {
	transient := func() error {
		return model.Transient(model.CodePublishFailed, "", "pinning request failed", errors.New("timeout"))
	}
	publisher := &fakePublisher{
		jsonErrs: []error{transient(), transient(), transient()},
	}
	minter := &fakeMinter{}
	o := newTestOrchestrator(t, &fakeRenderer{}, publisher, minter, events.Noop{})

	_, err := o.Run(context.Background(), model.MintInput{WalletAddress: testWallet, QuoteText: "x"})
	require.Error(t, err)

	assert.Equal(t, StagePublishMetadata, model.StageOf(err))
	assert.Equal(t, 3, publisher.jsonCalls, "initial call plus two retries")
	assert.Zero(t, minter.calls)
}

func TestRunMintRejection(t *testing.T) {
	minter := &fakeMinter{err: model.E(model.CodeMintRejected, "", "transaction rejected by node", nil)}
	o := newTestOrchestrator(t, &fakeRenderer{}, &fakePublisher{}, minter, events.Noop{})

	_, err := o.Run(context.Background(), model.MintInput{WalletAddress: testWallet, QuoteText: "x"})
	require.Error(t, err)

	assert.Equal(t, model.CodeMintRejected, model.CodeOf(err))
	assert.Equal(t, StageMint, model.StageOf(err))
	assert.Equal(t, 1, minter.calls, "an ambiguous-outcome stage is never retried")
}

func TestRunsAreIndependent(t *testing.T) {
	publisher := &fakePublisher{}
	minter := &fakeMinter{}
	o := newTestOrchestrator(t, &fakeRenderer{}, publisher, minter, events.Noop{})

	in := model.MintInput{WalletAddress: testWallet, QuoteText: "Courage is grace under pressure."}

	first, err := o.Run(context.Background(), in)
	require.NoError(t, err)
	second, err := o.Run(context.Background(), in)
	require.NoError(t, err)

	// Idempotent in effect-class: both runs are valid but produce
	// distinct assets; nothing is cached or de-duplicated across runs.
	assert.NotEqual(t, first.MintID, second.MintID)
	assert.NotEqual(t, first.ImageURI, second.ImageURI)
	assert.NotEqual(t, first.MetadataURI, second.MetadataURI)
	assert.Equal(t, 2, publisher.fileCalls)
	assert.Equal(t, 2, publisher.jsonCalls)
	assert.Equal(t, 2, minter.calls)
}

func TestFailedEventCarriesStageAndReason(t *testing.T) {
	publisher := &fakePublisher{
		fileErrs: []error{model.E(model.CodePublishFailed, "", "pinning service returned 503", nil)},
	}
	sink := &recordingEvents{}
	o := newTestOrchestrator(t, &fakeRenderer{}, publisher, &fakeMinter{}, sink)

	_, err := o.Run(context.Background(), model.MintInput{WalletAddress: testWallet, QuoteText: "x"})
	require.Error(t, err)

	last := sink.events[len(sink.events)-1]
	assert.Equal(t, StagePublishImage, last.Stage)
	assert.Equal(t, model.MintStageFailed, last.Status)
	assert.Contains(t, last.Reason, "pinning service returned 503")
}
