package publishstates

import (
	"context"

	"github.com/filecoin-project/go-statemachine/fsm"
	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/depot"
	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/publishing"
)

var log = logging.Logger("publishing_impl")

// PublishEnvironment is an abstraction for the dependencies a publish stage
// works against. The ledger and depot calls carry the coordinator's retry
// policy, so an error surfacing here has already exhausted its transient
// retries and ends the stage.
type PublishEnvironment interface {
	// ReserveFunds submits the funds reservation transaction for the staged
	// payload
	ReserveFunds(ctx context.Context, publish publishing.AssetPublish) (ledger.TxReceipt, error)

	// ReserveStorage asks the depot to hold space for the staged payload
	ReserveStorage(ctx context.Context, publish publishing.AssetPublish) (depot.Reservation, error)

	// StreamPayload sends the staged CAR to the depot, reporting cumulative
	// bytes sent through progress
	StreamPayload(ctx context.Context, publish publishing.AssetPublish, progress func(bytesSent uint64)) error

	// CertifyStorage redeems the reservation receipt for a content locator
	CertifyStorage(ctx context.Context, publish publishing.AssetPublish) (string, error)

	// RegisterAsset submits the asset registration transaction
	RegisterAsset(ctx context.Context, publish publishing.AssetPublish, locator string) (cid.Cid, error)

	// CompleteAssetRecord marks the local asset record certified
	CompleteAssetRecord(publish publishing.AssetPublish, locator string, registerTx cid.Cid) error

	// FailAssetRecord annotates the local asset record with the failure
	FailAssetRecord(publish publishing.AssetPublish) error

	// RemoveStagedPayload deletes the staged CAR file
	RemoveStagedPayload(publish publishing.AssetPublish) error
}

// PublishStateEntryFunc is the signature for a stage in publish processing.
type PublishStateEntryFunc func(ctx fsm.Context, environment PublishEnvironment, publish publishing.AssetPublish) error

// InitiateReservation dispatches a freshly tracked publish into the
// reservation stage.
func InitiateReservation(ctx fsm.Context, environment PublishEnvironment, publish publishing.AssetPublish) error {
	return ctx.Trigger(publishing.PublishEventReserveInitiated)
}

// ReservePayload escrows funds on the ledger, then reserves depot space for
// the staged payload. Re-entry with a recorded receipt re-triggers directly,
// so a resumed publish never reserves twice. The depot's echoed digest must
// equal the staged root; a mismatch ends the publish.
func ReservePayload(ctx fsm.Context, environment PublishEnvironment, publish publishing.AssetPublish) error {
	if len(publish.Receipt) > 0 {
		return ctx.Trigger(publishing.PublishEventReserved, publish.Receipt)
	}

	receipt, err := environment.ReserveFunds(ctx.Context(), publish)
	if err != nil {
		return ctx.Trigger(publishing.PublishEventReserveFailed, err)
	}
	log.Infof("publish %s: funds reserved in tx %s", publish.Policy, receipt.TxCid)

	reservation, err := environment.ReserveStorage(ctx.Context(), publish)
	if err != nil {
		return ctx.Trigger(publishing.PublishEventReserveFailed, err)
	}
	if !reservation.Digest.Equals(publish.PayloadRoot) {
		return ctx.Trigger(publishing.PublishEventReserveFailed,
			xerrors.Errorf("depot reservation digest %s does not match staged payload root %s", reservation.Digest, publish.PayloadRoot))
	}

	return ctx.Trigger(publishing.PublishEventReserved, reservation.Receipt)
}

// InitiateTransfer moves a reserved publish into the transfer stage.
func InitiateTransfer(ctx fsm.Context, environment PublishEnvironment, publish publishing.AssetPublish) error {
	return ctx.Trigger(publishing.PublishEventTransferInitiated)
}

// TransferPayload streams the staged CAR to the depot under the digest
// recorded at encode time. A retry re-streams from the start; it never
// re-derives the digest or touches the reservation.
func TransferPayload(ctx fsm.Context, environment PublishEnvironment, publish publishing.AssetPublish) error {
	err := environment.StreamPayload(ctx.Context(), publish, func(bytesSent uint64) {
		_ = ctx.Trigger(publishing.PublishEventTransferProgress, bytesSent)
	})
	if err != nil {
		return ctx.Trigger(publishing.PublishEventTransferFailed, err)
	}
	return ctx.Trigger(publishing.PublishEventTransferred)
}

// InitiateCertification moves a transferred publish into certification.
func InitiateCertification(ctx fsm.Context, environment PublishEnvironment, publish publishing.AssetPublish) error {
	return ctx.Trigger(publishing.PublishEventCertifyInitiated)
}

// CertifyPayload redeems the depot receipt for a content locator, registers
// the asset on the ledger, then completes the local record and drops the
// staged file. Re-entry after both results were recorded re-triggers
// directly.
func CertifyPayload(ctx fsm.Context, environment PublishEnvironment, publish publishing.AssetPublish) error {
	if publish.Locator != "" && publish.RegisterTx != nil {
		return ctx.Trigger(publishing.PublishEventCertified, publish.Locator, *publish.RegisterTx)
	}

	locator, err := environment.CertifyStorage(ctx.Context(), publish)
	if err != nil {
		return ctx.Trigger(publishing.PublishEventCertifyFailed, err)
	}

	registerTx, err := environment.RegisterAsset(ctx.Context(), publish, locator)
	if err != nil {
		return ctx.Trigger(publishing.PublishEventCertifyFailed, err)
	}

	if err := environment.CompleteAssetRecord(publish, locator, registerTx); err != nil {
		log.Warnf("publish %s: completing local asset record: %s", publish.Policy, err)
	}
	if err := environment.RemoveStagedPayload(publish); err != nil {
		log.Warnf("publish %s: removing staged payload: %s", publish.Policy, err)
	}

	return ctx.Trigger(publishing.PublishEventCertified, locator, registerTx)
}

// FailPublish annotates the local asset record and removes the staged file
// before the publish comes to rest in its failed state.
func FailPublish(ctx fsm.Context, environment PublishEnvironment, publish publishing.AssetPublish) error {
	if err := environment.FailAssetRecord(publish); err != nil {
		log.Warnf("publish %s: annotating local asset record: %s", publish.Policy, err)
	}
	if err := environment.RemoveStagedPayload(publish); err != nil {
		log.Warnf("publish %s: removing staged payload: %s", publish.Policy, err)
	}
	log.Errorf("publish %s failed in %s stage: %s", publish.Policy, publish.FailedStage, publish.Message)
	return ctx.Trigger(publishing.PublishEventFailed)
}
