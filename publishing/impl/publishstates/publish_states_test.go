package publishstates_test

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/filecoin-project/go-statemachine/fsm"
	fsmtest "github.com/filecoin-project/go-statemachine/fsm/testutil"
	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/depot"
	"github.com/portus-project/go-asset-vault/filestore"
	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/publishing"
	"github.com/portus-project/go-asset-vault/publishing/impl/publishstates"
	tut "github.com/portus-project/go-asset-vault/shared_testutil"
)

func TestReservePayload(t *testing.T) {
	ctx := context.Background()
	eventProcessor, err := fsm.NewEventProcessor(publishing.AssetPublish{}, "Status", publishstates.PublishEvents)
	require.NoError(t, err)
	runReservePayload := makeExecutor(ctx, eventProcessor, publishstates.ReservePayload, publishing.PublishStatusReserving)

	t.Run("succeeds and records the receipt", func(t *testing.T) {
		runReservePayload(t, envParams{}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusReserved, publish.Status)
			require.Equal(t, []byte("claim-receipt"), publish.Receipt)
			require.Equal(t, 1, env.reserveFundsCalls)
			require.Equal(t, 1, env.reserveStorageCalls)
		})
	})

	t.Run("skips remote calls when a receipt is already recorded", func(t *testing.T) {
		runReservePayload(t, envParams{}, func(publish *publishing.AssetPublish) {
			publish.Receipt = []byte("recorded-receipt")
		}, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusReserved, publish.Status)
			require.Equal(t, []byte("recorded-receipt"), publish.Receipt)
			require.Zero(t, env.reserveFundsCalls)
			require.Zero(t, env.reserveStorageCalls)
		})
	})

	t.Run("surfaces ledger rejections verbatim", func(t *testing.T) {
		rejection := &ledger.RejectionError{Code: exitcode.ErrInsufficientFunds, Reason: "balance 0 below requested budget"}
		runReservePayload(t, envParams{reserveFundsErr: rejection}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusFailing, publish.Status)
			require.Equal(t, publishing.ReserveStage, publish.FailedStage)
			require.Equal(t, rejection.Error(), publish.Message)
			require.Zero(t, env.reserveStorageCalls)
		})
	})

	t.Run("fails when the depot reservation errors", func(t *testing.T) {
		runReservePayload(t, envParams{reserveStorageErr: xerrors.New("depot unreachable")}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusFailing, publish.Status)
			require.Equal(t, publishing.ReserveStage, publish.FailedStage)
			require.Contains(t, publish.Message, "depot unreachable")
		})
	})

	t.Run("fails permanently on a digest mismatch", func(t *testing.T) {
		foreign := tut.GenerateCids(1)[0]
		runReservePayload(t, envParams{reservation: depot.Reservation{Digest: foreign}}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusFailing, publish.Status)
			require.Equal(t, publishing.ReserveStage, publish.FailedStage)
			require.Contains(t, publish.Message, "does not match staged payload root")
			require.Empty(t, publish.Receipt)
		})
	})
}

func TestTransferPayload(t *testing.T) {
	ctx := context.Background()
	eventProcessor, err := fsm.NewEventProcessor(publishing.AssetPublish{}, "Status", publishstates.PublishEvents)
	require.NoError(t, err)
	runTransferPayload := makeExecutor(ctx, eventProcessor, publishstates.TransferPayload, publishing.PublishStatusTransferring)

	t.Run("streams under the stored digest and records progress", func(t *testing.T) {
		runTransferPayload(t, envParams{streamProgress: []uint64{1024, 4096}}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusTransferred, publish.Status)
			require.Equal(t, uint64(4096), publish.BytesSent)
			require.Equal(t, []cid.Cid{publish.PayloadRoot}, env.streamedRoots)
		})
	})

	t.Run("fails the stage when streaming gives up", func(t *testing.T) {
		runTransferPayload(t, envParams{streamProgress: []uint64{1024}, streamErr: xerrors.New("stream reset by depot")}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusFailing, publish.Status)
			require.Equal(t, publishing.TransferStage, publish.FailedStage)
			require.Contains(t, publish.Message, "stream reset by depot")
			require.Equal(t, uint64(1024), publish.BytesSent)
		})
	})
}

func TestCertifyPayload(t *testing.T) {
	ctx := context.Background()
	eventProcessor, err := fsm.NewEventProcessor(publishing.AssetPublish{}, "Status", publishstates.PublishEvents)
	require.NoError(t, err)
	runCertifyPayload := makeExecutor(ctx, eventProcessor, publishstates.CertifyPayload, publishing.PublishStatusCertifying)

	t.Run("redeems the receipt, registers and cleans up", func(t *testing.T) {
		registerTx := tut.GenerateCids(1)[0]
		runCertifyPayload(t, envParams{locator: "objects/4f/aa91", registerTx: registerTx}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusCertified, publish.Status)
			require.Equal(t, "objects/4f/aa91", publish.Locator)
			require.NotNil(t, publish.RegisterTx)
			require.True(t, registerTx.Equals(*publish.RegisterTx))
			require.Equal(t, []ledger.AssetID{publish.Asset}, env.completedAssets)
			require.Equal(t, []filestore.Path{publish.PayloadPath}, env.removedPaths)
		})
	})

	t.Run("re-triggers directly when results are already recorded", func(t *testing.T) {
		recordedTx := tut.GenerateCids(1)[0]
		runCertifyPayload(t, envParams{}, func(publish *publishing.AssetPublish) {
			publish.Locator = "objects/recorded"
			publish.RegisterTx = &recordedTx
		}, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusCertified, publish.Status)
			require.Equal(t, "objects/recorded", publish.Locator)
			require.Zero(t, env.certifyCalls)
			require.Zero(t, env.registerCalls)
		})
	})

	t.Run("fails when certification errors", func(t *testing.T) {
		runCertifyPayload(t, envParams{certifyErr: xerrors.New("receipt not recognized")}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusFailing, publish.Status)
			require.Equal(t, publishing.CertifyStage, publish.FailedStage)
			require.Contains(t, publish.Message, "receipt not recognized")
			require.Empty(t, publish.Locator)
			require.Zero(t, env.registerCalls)
		})
	})

	t.Run("surfaces registration rejections verbatim", func(t *testing.T) {
		rejection := &ledger.RejectionError{Code: exitcode.ErrIllegalArgument, Reason: "asset already registered"}
		runCertifyPayload(t, envParams{registerErr: rejection}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusFailing, publish.Status)
			require.Equal(t, publishing.CertifyStage, publish.FailedStage)
			require.Equal(t, rejection.Error(), publish.Message)
			require.Empty(t, publish.Locator)
		})
	})
}

func TestFailPublish(t *testing.T) {
	ctx := context.Background()
	eventProcessor, err := fsm.NewEventProcessor(publishing.AssetPublish{}, "Status", publishstates.PublishEvents)
	require.NoError(t, err)
	runFailPublish := makeExecutor(ctx, eventProcessor, publishstates.FailPublish, publishing.PublishStatusFailing)

	t.Run("annotates the record, drops the staged file and rests", func(t *testing.T) {
		runFailPublish(t, envParams{}, func(publish *publishing.AssetPublish) {
			publish.FailedStage = publishing.TransferStage
			publish.Message = "stream reset by depot"
		}, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusFailed, publish.Status)
			require.Equal(t, publishing.TransferStage, publish.FailedStage)
			require.Equal(t, "stream reset by depot", publish.Message)
			require.Equal(t, []ledger.AssetID{publish.Asset}, env.failedAssets)
			require.Equal(t, []filestore.Path{publish.PayloadPath}, env.removedPaths)
		})
	})

	t.Run("cleanup errors do not block the terminal state", func(t *testing.T) {
		runFailPublish(t, envParams{failErr: xerrors.New("record missing"), removeErr: xerrors.New("already deleted")}, nil,
			func(publish publishing.AssetPublish, env *fakeEnvironment) {
				tut.AssertPublishStatus(t, publishing.PublishStatusFailed, publish.Status)
			})
	})
}

func TestInitiators(t *testing.T) {
	ctx := context.Background()
	eventProcessor, err := fsm.NewEventProcessor(publishing.AssetPublish{}, "Status", publishstates.PublishEvents)
	require.NoError(t, err)

	t.Run("encoded dispatches into reserving", func(t *testing.T) {
		run := makeExecutor(ctx, eventProcessor, publishstates.InitiateReservation, publishing.PublishStatusEncoded)
		run(t, envParams{}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusReserving, publish.Status)
		})
	})

	t.Run("reserved dispatches into transferring", func(t *testing.T) {
		run := makeExecutor(ctx, eventProcessor, publishstates.InitiateTransfer, publishing.PublishStatusReserved)
		run(t, envParams{}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusTransferring, publish.Status)
		})
	})

	t.Run("transferred dispatches into certifying", func(t *testing.T) {
		run := makeExecutor(ctx, eventProcessor, publishstates.InitiateCertification, publishing.PublishStatusTransferred)
		run(t, envParams{}, nil, func(publish publishing.AssetPublish, env *fakeEnvironment) {
			tut.AssertPublishStatus(t, publishing.PublishStatusCertifying, publish.Status)
		})
	})
}

type envParams struct {
	reserveFundsReceipt ledger.TxReceipt
	reserveFundsErr     error
	reservation         depot.Reservation
	reserveStorageErr   error
	streamProgress      []uint64
	streamErr           error
	locator             string
	certifyErr          error
	registerTx          cid.Cid
	registerErr         error
	completeErr         error
	failErr             error
	removeErr           error
}

type executor func(t *testing.T,
	params envParams,
	mutate func(*publishing.AssetPublish),
	inspector func(publish publishing.AssetPublish, env *fakeEnvironment))

func makeExecutor(ctx context.Context,
	eventProcessor fsm.EventProcessor,
	stateEntryFunc publishstates.PublishStateEntryFunc,
	initialStatus publishing.PublishStatus) executor {
	return func(t *testing.T, params envParams, mutate func(*publishing.AssetPublish), inspector func(publish publishing.AssetPublish, env *fakeEnvironment)) {
		publish := tut.MakeTestAssetPublish(t, initialStatus)
		if mutate != nil {
			mutate(&publish)
		}
		if !params.reservation.Digest.Defined() && params.reserveStorageErr == nil {
			params.reservation.Digest = publish.PayloadRoot
		}
		if len(params.reservation.Receipt) == 0 {
			params.reservation.Receipt = []byte("claim-receipt")
		}
		if params.locator == "" && params.certifyErr == nil {
			params.locator = "objects/aa/bb123"
		}
		if !params.registerTx.Defined() && params.registerErr == nil {
			params.registerTx = tut.GenerateCids(1)[0]
		}

		environment := &fakeEnvironment{params: params}
		fsmCtx := fsmtest.NewTestContext(ctx, eventProcessor)
		err := stateEntryFunc(fsmCtx, environment, publish)
		require.NoError(t, err)
		fsmCtx.ReplayEvents(t, &publish)
		inspector(publish, environment)
	}
}

type fakeEnvironment struct {
	params envParams

	reserveFundsCalls   int
	reserveStorageCalls int
	streamCalls         int
	certifyCalls        int
	registerCalls       int
	completedAssets     []ledger.AssetID
	failedAssets        []ledger.AssetID
	removedPaths        []filestore.Path
	streamedRoots       []cid.Cid
}

var _ publishstates.PublishEnvironment = &fakeEnvironment{}

func (e *fakeEnvironment) ReserveFunds(ctx context.Context, publish publishing.AssetPublish) (ledger.TxReceipt, error) {
	e.reserveFundsCalls++
	return e.params.reserveFundsReceipt, e.params.reserveFundsErr
}

func (e *fakeEnvironment) ReserveStorage(ctx context.Context, publish publishing.AssetPublish) (depot.Reservation, error) {
	e.reserveStorageCalls++
	return e.params.reservation, e.params.reserveStorageErr
}

func (e *fakeEnvironment) StreamPayload(ctx context.Context, publish publishing.AssetPublish, progress func(bytesSent uint64)) error {
	e.streamCalls++
	e.streamedRoots = append(e.streamedRoots, publish.PayloadRoot)
	for _, sent := range e.params.streamProgress {
		progress(sent)
	}
	return e.params.streamErr
}

func (e *fakeEnvironment) CertifyStorage(ctx context.Context, publish publishing.AssetPublish) (string, error) {
	e.certifyCalls++
	return e.params.locator, e.params.certifyErr
}

func (e *fakeEnvironment) RegisterAsset(ctx context.Context, publish publishing.AssetPublish, locator string) (cid.Cid, error) {
	e.registerCalls++
	return e.params.registerTx, e.params.registerErr
}

func (e *fakeEnvironment) CompleteAssetRecord(publish publishing.AssetPublish, locator string, registerTx cid.Cid) error {
	e.completedAssets = append(e.completedAssets, publish.Asset)
	return e.params.completeErr
}

func (e *fakeEnvironment) FailAssetRecord(publish publishing.AssetPublish) error {
	e.failedAssets = append(e.failedAssets, publish.Asset)
	return e.params.failErr
}

func (e *fakeEnvironment) RemoveStagedPayload(publish publishing.AssetPublish) error {
	e.removedPaths = append(e.removedPaths, publish.PayloadPath)
	return e.params.removeErr
}
