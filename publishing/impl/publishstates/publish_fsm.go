package publishstates

import (
	"github.com/filecoin-project/go-statemachine/fsm"
	"github.com/ipfs/go-cid"

	"github.com/portus-project/go-asset-vault/publishing"
)

// PublishEvents are the transitions of the upload state machine. Stage
// results are recorded here and nowhere else; in particular only
// PublishEventCertified writes the content locator.
var PublishEvents = fsm.Events{
	fsm.Event(publishing.PublishEventOpen).
		From(publishing.PublishStatusEncoded).ToNoChange(),
	fsm.Event(publishing.PublishEventReserveInitiated).
		From(publishing.PublishStatusEncoded).To(publishing.PublishStatusReserving),
	fsm.Event(publishing.PublishEventReserved).
		From(publishing.PublishStatusReserving).To(publishing.PublishStatusReserved).
		Action(func(publish *publishing.AssetPublish, receipt []byte) error {
			publish.Receipt = receipt
			return nil
		}),
	fsm.Event(publishing.PublishEventReserveFailed).
		From(publishing.PublishStatusReserving).To(publishing.PublishStatusFailing).
		Action(func(publish *publishing.AssetPublish, err error) error {
			publish.FailedStage = publishing.ReserveStage
			publish.Message = err.Error()
			return nil
		}),
	fsm.Event(publishing.PublishEventTransferInitiated).
		From(publishing.PublishStatusReserved).To(publishing.PublishStatusTransferring),
	fsm.Event(publishing.PublishEventTransferProgress).
		From(publishing.PublishStatusTransferring).ToJustRecord().
		Action(func(publish *publishing.AssetPublish, bytesSent uint64) error {
			publish.BytesSent = bytesSent
			return nil
		}),
	fsm.Event(publishing.PublishEventTransferred).
		From(publishing.PublishStatusTransferring).To(publishing.PublishStatusTransferred),
	fsm.Event(publishing.PublishEventTransferFailed).
		From(publishing.PublishStatusTransferring).To(publishing.PublishStatusFailing).
		Action(func(publish *publishing.AssetPublish, err error) error {
			publish.FailedStage = publishing.TransferStage
			publish.Message = err.Error()
			return nil
		}),
	fsm.Event(publishing.PublishEventCertifyInitiated).
		From(publishing.PublishStatusTransferred).To(publishing.PublishStatusCertifying),
	fsm.Event(publishing.PublishEventCertified).
		From(publishing.PublishStatusCertifying).To(publishing.PublishStatusCertified).
		Action(func(publish *publishing.AssetPublish, locator string, registerTx cid.Cid) error {
			publish.Locator = locator
			publish.RegisterTx = &registerTx
			return nil
		}),
	fsm.Event(publishing.PublishEventCertifyFailed).
		From(publishing.PublishStatusCertifying).To(publishing.PublishStatusFailing).
		Action(func(publish *publishing.AssetPublish, err error) error {
			publish.FailedStage = publishing.CertifyStage
			publish.Message = err.Error()
			return nil
		}),
	fsm.Event(publishing.PublishEventFailed).
		From(publishing.PublishStatusFailing).To(publishing.PublishStatusFailed),
	fsm.Event(publishing.PublishEventRestart).FromAny().ToNoChange(),
}

// PublishStateEntryFuncs map publish statuses to the handler run on entering
// them.
var PublishStateEntryFuncs = fsm.StateEntryFuncs{
	publishing.PublishStatusEncoded:      InitiateReservation,
	publishing.PublishStatusReserving:    ReservePayload,
	publishing.PublishStatusReserved:     InitiateTransfer,
	publishing.PublishStatusTransferring: TransferPayload,
	publishing.PublishStatusTransferred:  InitiateCertification,
	publishing.PublishStatusCertifying:   CertifyPayload,
	publishing.PublishStatusFailing:      FailPublish,
}

// PublishFinalityStates are the statuses that end processing for a publish.
var PublishFinalityStates = []fsm.StateKey{
	publishing.PublishStatusCertified,
	publishing.PublishStatusFailed,
}
