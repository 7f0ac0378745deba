package publishingimpl_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/filecoin-project/go-statestore"
	"github.com/google/uuid"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	dss "github.com/ipfs/go-datastore/sync"
	"github.com/libp2p/go-libp2p-core/test"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portus-project/go-asset-vault/assetstore"
	"github.com/portus-project/go-asset-vault/depot"
	"github.com/portus-project/go-asset-vault/filestore"
	"github.com/portus-project/go-asset-vault/keyshare"
	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/payloadio"
	"github.com/portus-project/go-asset-vault/policy"
	"github.com/portus-project/go-asset-vault/publishing"
	publishingimpl "github.com/portus-project/go-asset-vault/publishing/impl"
	"github.com/portus-project/go-asset-vault/sealing"
	"github.com/portus-project/go-asset-vault/shared"
	tut "github.com/portus-project/go-asset-vault/shared_testutil"
)

var fastRetries = publishingimpl.RetryPolicy(shared.RetryPolicy{
	MaxAttempts: 3,
	MinBackoff:  time.Millisecond,
	MaxBackoff:  5 * time.Millisecond,
	Factor:      2,
})

type harness struct {
	Ledger      *tut.FakeLedger
	Depot       *tut.FakeDepot
	Registry    *keyshare.Registry
	FS          filestore.FileStore
	Assets      assetstore.AssetStore
	Coordinator *publishingimpl.Coordinator
}

func newHarness(t *testing.T, ds datastore.Batching) *harness {
	fakeLedger := tut.NewFakeLedger()
	fakeLedger.SetBalance(address.TestAddress, abi.NewTokenAmount(1000000000))
	fakeDepot := tut.NewFakeDepot()

	registry := keyshare.NewRegistry(ds)
	for i := 0; i < 3; i++ {
		kp, err := sealing.GenerateKeypair()
		require.NoError(t, err)
		pid, err := test.RandPeerID()
		require.NoError(t, err)
		maddr, err := ma.NewMultiaddr(fmt.Sprintf("/ip4/127.0.0.1/tcp/%d", 6000+i))
		require.NoError(t, err)
		require.NoError(t, registry.Register(keyshare.NewKeyServerInfo(pid, kp.PublicBytes(), []ma.Multiaddr{maddr})))
	}

	fs, err := filestore.NewLocalFileStore(t.TempDir())
	require.NoError(t, err)
	assets := assetstore.NewAssetStore(ds)

	coordinator, err := publishingimpl.NewCoordinator(fakeLedger, fakeDepot, registry, fs, ds, assets, fastRetries)
	require.NoError(t, err)
	t.Cleanup(func() { _ = coordinator.Stop() })

	return &harness{
		Ledger:      fakeLedger,
		Depot:       fakeDepot,
		Registry:    registry,
		FS:          fs,
		Assets:      assets,
		Coordinator: coordinator,
	}
}

func (h *harness) publish(ctx context.Context, t *testing.T, payload []byte) publishing.PublishResult {
	t.Helper()
	result, err := h.Coordinator.Publish(ctx, publishing.PublishParams{
		Payload:   bytes.NewReader(payload),
		Scope:     "subscribers",
		Threshold: 2,
		Owner:     address.TestAddress,
		Retention: abi.ChainEpoch(2880),
		Budget:    abi.NewTokenAmount(1000000),
	})
	require.NoError(t, err)
	return result
}

// awaitTerminal drains the progress stream until the publish settles.
func awaitTerminal(ctx context.Context, t *testing.T, coordinator publishing.Coordinator, policyID policy.ID) []publishing.Progress {
	t.Helper()
	watch, err := coordinator.WatchProgress(ctx, policyID)
	require.NoError(t, err)
	var snapshots []publishing.Progress
	for progress := range watch {
		snapshots = append(snapshots, progress)
	}
	require.NotEmpty(t, snapshots, "progress stream closed without a snapshot")
	require.True(t, snapshots[len(snapshots)-1].Status.Terminal(), "progress stream closed before a terminal status")
	return snapshots
}

func TestPublishRunsToCertified(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h := newHarness(t, dss.MutexWrap(datastore.NewMapDatastore()))

	payload := tut.RandomBytes(64 << 10)
	result := h.publish(ctx, t, payload)

	snapshots := awaitTerminal(ctx, t, h.Coordinator, result.Policy)
	last := -1.0
	for _, snapshot := range snapshots {
		require.GreaterOrEqual(t, snapshot.Percent, last)
		last = snapshot.Percent
	}
	final := snapshots[len(snapshots)-1]
	tut.AssertPublishStatus(t, publishing.PublishStatusCertified, final.Status)
	assert.Equal(t, 100.0, final.Percent)

	publish, err := h.Coordinator.GetPublish(result.Policy)
	require.NoError(t, err)
	assert.NotEmpty(t, publish.Locator)
	require.NotNil(t, publish.RegisterTx)
	assert.Equal(t, publish.CarSize, publish.BytesSent)

	require.Equal(t, []ledger.TxKind{ledger.TxKindReserveFunds, ledger.TxKindRegisterAsset}, h.Ledger.SubmittedKinds())
	onChain, ok := h.Ledger.Asset(result.Asset)
	require.True(t, ok)
	assert.Equal(t, result.Policy, onChain.Policy)
	assert.Equal(t, publish.Locator, onChain.Locator)
	assert.Equal(t, uint64(len(payload)), onChain.Size)

	assert.Equal(t, 1, h.Depot.ReserveCalls(publish.PayloadRoot))
	assert.Equal(t, 1, h.Depot.TransferAttempts())

	info, err := h.Assets.GetAssetInfo(result.Asset)
	require.NoError(t, err)
	assert.Equal(t, assetstore.AssetCertified, info.Status)
	assert.Equal(t, publish.Locator, info.Locator)

	// staged car is cleaned up once certified
	_, err = h.FS.Open(publish.PayloadPath)
	assert.Error(t, err)

	// the certified envelope reads back intact and carries the fresh policy
	rc, err := h.Depot.ReadByLocator(ctx, publish.Locator)
	require.NoError(t, err)
	defer rc.Close() // nolint: errcheck
	root, envelope, err := payloadio.NewPayloadIO(h.FS).DecodePayload(ctx, rc)
	require.NoError(t, err)
	assert.True(t, root.Equals(publish.PayloadRoot))
	var sealed sealing.SealedPayload
	require.NoError(t, sealed.UnmarshalCBOR(bytes.NewReader(envelope)))
	assert.Equal(t, result.Policy, sealed.Policy)
	assert.Equal(t, uint64(2), sealed.Threshold)
	assert.Len(t, sealed.Fragments, 3)
}

func TestPublishRetriesTransientFailures(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h := newHarness(t, dss.MutexWrap(datastore.NewMapDatastore()))
	h.Ledger.FailNextSubmits(1)
	h.Depot.FailNextReserves(1)
	h.Depot.FailNextTransfers(1)
	h.Depot.FailNextCertifies(1)

	result := h.publish(ctx, t, tut.RandomBytes(32<<10))
	snapshots := awaitTerminal(ctx, t, h.Coordinator, result.Policy)
	tut.AssertPublishStatus(t, publishing.PublishStatusCertified, snapshots[len(snapshots)-1].Status)

	publish, err := h.Coordinator.GetPublish(result.Policy)
	require.NoError(t, err)
	assert.Equal(t, publish.CarSize, publish.BytesSent)

	// every stage retried in place: one depot reservation, one extra transfer
	// attempt, and only the successful transactions on the ledger
	assert.Equal(t, 1, h.Depot.ReserveCalls(publish.PayloadRoot))
	assert.Equal(t, 2, h.Depot.TransferAttempts())
	require.Equal(t, []ledger.TxKind{ledger.TxKindReserveFunds, ledger.TxKindRegisterAsset}, h.Ledger.SubmittedKinds())
}

func TestPublishSurfacesLedgerRejectionVerbatim(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h := newHarness(t, dss.MutexWrap(datastore.NewMapDatastore()))
	h.Ledger.RejectNextSubmit(exitcode.ErrInsufficientFunds, "balance 0 below requested budget")

	result := h.publish(ctx, t, tut.RandomBytes(8<<10))
	snapshots := awaitTerminal(ctx, t, h.Coordinator, result.Policy)
	tut.AssertPublishStatus(t, publishing.PublishStatusFailed, snapshots[len(snapshots)-1].Status)

	publish, err := h.Coordinator.GetPublish(result.Policy)
	require.NoError(t, err)
	assert.Equal(t, publishing.ReserveStage, publish.FailedStage)
	rejection := &ledger.RejectionError{Code: exitcode.ErrInsufficientFunds, Reason: "balance 0 below requested budget"}
	assert.Equal(t, rejection.Error(), publish.Message)

	// a rejection is permanent: nothing was retried and the depot was never
	// asked to reserve
	assert.Empty(t, h.Ledger.SubmittedKinds())
	assert.Equal(t, 0, h.Depot.ReserveCalls(publish.PayloadRoot))

	info, err := h.Assets.GetAssetInfo(result.Asset)
	require.NoError(t, err)
	assert.Equal(t, assetstore.AssetFailed, info.Status)
	assert.Equal(t, rejection.Error(), info.Message)

	_, err = h.FS.Open(publish.PayloadPath)
	assert.Error(t, err)
}

func TestPublishFailsWhenRetriesExhaust(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h := newHarness(t, dss.MutexWrap(datastore.NewMapDatastore()))
	h.Depot.FailNextCertifies(3)

	result := h.publish(ctx, t, tut.RandomBytes(8<<10))
	snapshots := awaitTerminal(ctx, t, h.Coordinator, result.Policy)
	tut.AssertPublishStatus(t, publishing.PublishStatusFailed, snapshots[len(snapshots)-1].Status)

	publish, err := h.Coordinator.GetPublish(result.Policy)
	require.NoError(t, err)
	assert.Equal(t, publishing.CertifyStage, publish.FailedStage)
	assert.Contains(t, publish.Message, "depot unavailable")
	assert.Empty(t, publish.Locator)
	assert.Nil(t, publish.RegisterTx)

	// funds were reserved but the asset never registered
	require.Equal(t, []ledger.TxKind{ledger.TxKindReserveFunds}, h.Ledger.SubmittedKinds())
}

func TestPublishRejectsDepotDigestMismatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h := newHarness(t, dss.MutexWrap(datastore.NewMapDatastore()))
	h.Depot.OverrideDigest(tut.GenerateCids(1)[0])

	result := h.publish(ctx, t, tut.RandomBytes(8<<10))
	snapshots := awaitTerminal(ctx, t, h.Coordinator, result.Policy)
	tut.AssertPublishStatus(t, publishing.PublishStatusFailed, snapshots[len(snapshots)-1].Status)

	publish, err := h.Coordinator.GetPublish(result.Policy)
	require.NoError(t, err)
	assert.Equal(t, publishing.ReserveStage, publish.FailedStage)
	assert.Contains(t, publish.Message, "does not match staged payload root")
	assert.Equal(t, 0, h.Depot.TransferAttempts())
}

func TestCoordinatorResumesAcrossRestart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ds := dss.MutexWrap(datastore.NewMapDatastore())
	h := newHarness(t, ds)

	// stage and reserve a payload the way a previous process would have, then
	// persist its publish record mid stream at Transferring
	encoded, err := payloadio.NewPayloadIO(h.FS).EncodePayload(ctx, bytes.NewReader(tut.RandomBytes(16<<10)))
	require.NoError(t, err)
	reservation, err := h.Depot.Reserve(ctx, depot.ReserveProposal{
		Payload:   encoded.Root,
		Size:      encoded.Size,
		Retention: abi.ChainEpoch(2880),
		Owner:     address.TestAddress,
	})
	require.NoError(t, err)

	policyID := tut.MakeTestPolicyID(t)
	assetID := ledger.AssetID(uuid.New().String())
	publish := &publishing.AssetPublish{
		Asset:       assetID,
		Policy:      policyID,
		Owner:       address.TestAddress,
		PayloadSize: 16 << 10,
		CarSize:     encoded.Size,
		PayloadPath: encoded.Path,
		PayloadRoot: encoded.Root,
		Receipt:     reservation.Receipt,
		Retention:   abi.ChainEpoch(2880),
		Budget:      abi.NewTokenAmount(1000000),
		BytesSent:   1 << 10,
		Status:      publishing.PublishStatusTransferring,
	}
	require.NoError(t, h.Assets.TrackAsset(assetstore.AssetInfo{
		Asset:  assetID,
		Policy: policyID,
		Digest: encoded.Root,
		Size:   publish.PayloadSize,
	}))
	uploads := statestore.New(namespace.Wrap(ds, datastore.NewKey(publishingimpl.DSPrefix)))
	require.NoError(t, uploads.Begin(policyID, publish))

	require.NoError(t, h.Coordinator.Start(ctx))
	snapshots := awaitTerminal(ctx, t, h.Coordinator, policyID)
	tut.AssertPublishStatus(t, publishing.PublishStatusCertified, snapshots[len(snapshots)-1].Status)

	restored, err := h.Coordinator.GetPublish(policyID)
	require.NoError(t, err)
	assert.NotEmpty(t, restored.Locator)
	assert.Equal(t, encoded.Size, restored.BytesSent)

	// the receipt recorded before the restart was redeemed, not re-reserved
	assert.Equal(t, 1, h.Depot.ReserveCalls(encoded.Root))

	info, err := h.Assets.GetAssetInfo(assetID)
	require.NoError(t, err)
	assert.Equal(t, assetstore.AssetCertified, info.Status)
}

func TestWatchProgressStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h := newHarness(t, dss.MutexWrap(datastore.NewMapDatastore()))

	result := h.publish(ctx, t, tut.RandomBytes(8<<10))

	watchCtx, watchCancel := context.WithCancel(ctx)
	watch, err := h.Coordinator.WatchProgress(watchCtx, result.Policy)
	require.NoError(t, err)
	watchCancel()
	for range watch {
	}

	// an abandoned watcher does not hold the publish back
	snapshots := awaitTerminal(ctx, t, h.Coordinator, result.Policy)
	tut.AssertPublishStatus(t, publishing.PublishStatusCertified, snapshots[len(snapshots)-1].Status)

	_, err = h.Coordinator.WatchProgress(ctx, tut.MakeTestPolicyID(t))
	assert.Error(t, err, "watching an unknown publish should fail")
}
