// Package publishing is the upload coordinator: it seals a payload under a
// fresh policy, stages it as a CAR file, and drives it through funds
// reservation, depot transfer and certification with a persisted state
// machine. Every step is resumable; a restart re-enters the stage the
// publish last rested in.
package publishing

import (
	"context"
	"io"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ipfs/go-cid"

	"github.com/portus-project/go-asset-vault/filestore"
	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/policy"
)

//go:generate cbor-gen-for AssetPublish

// PublishStatus is the stage a publish currently rests in or works through.
type PublishStatus uint64

const (
	// PublishStatusEncoded means the payload is sealed and staged locally
	// and the state machine has not yet been dispatched.
	PublishStatusEncoded PublishStatus = iota

	// PublishStatusReserving means the funds reservation transaction and the
	// depot reservation are in flight.
	PublishStatusReserving

	// PublishStatusReserved means the depot confirmed the reservation and
	// echoed the payload digest.
	PublishStatusReserved

	// PublishStatusTransferring means the staged CAR is streaming to the
	// depot.
	PublishStatusTransferring

	// PublishStatusTransferred means the depot holds all payload bytes.
	PublishStatusTransferred

	// PublishStatusCertifying means the receipt is being redeemed for a
	// locator and the asset registered on the ledger.
	PublishStatusCertifying

	// PublishStatusCertified is the terminal success state: the asset record
	// carries a durable content locator.
	PublishStatusCertified

	// PublishStatusFailing means a stage failed permanently and local
	// cleanup is running.
	PublishStatusFailing

	// PublishStatusFailed is the terminal failure state. FailedStage and
	// Message on the record say which stage gave up and why.
	PublishStatusFailed
)

// PublishStatuses maps publish statuses to human readable strings.
var PublishStatuses = map[PublishStatus]string{
	PublishStatusEncoded:      "PublishStatusEncoded",
	PublishStatusReserving:    "PublishStatusReserving",
	PublishStatusReserved:     "PublishStatusReserved",
	PublishStatusTransferring: "PublishStatusTransferring",
	PublishStatusTransferred:  "PublishStatusTransferred",
	PublishStatusCertifying:   "PublishStatusCertifying",
	PublishStatusCertified:    "PublishStatusCertified",
	PublishStatusFailing:      "PublishStatusFailing",
	PublishStatusFailed:       "PublishStatusFailed",
}

// Terminal reports whether the status is an end state.
func (s PublishStatus) Terminal() bool {
	return s == PublishStatusCertified || s == PublishStatusFailed
}

// Stage labels recorded on a failed publish.
const (
	ReserveStage  = "reserve"
	TransferStage = "transfer"
	CertifyStage  = "certify"
)

// PublishEvent is an event that happens in the publish state machine.
type PublishEvent uint64

const (
	// PublishEventOpen dispatches a freshly tracked publish.
	PublishEventOpen PublishEvent = iota

	// PublishEventReserveInitiated moves a publish out of its resting gate
	// into the reservation stage.
	PublishEventReserveInitiated

	// PublishEventReserved records the depot's claim receipt.
	PublishEventReserved

	// PublishEventReserveFailed ends the reservation stage permanently.
	PublishEventReserveFailed

	// PublishEventTransferInitiated begins streaming the staged CAR.
	PublishEventTransferInitiated

	// PublishEventTransferProgress records bytes sent without changing
	// state.
	PublishEventTransferProgress

	// PublishEventTransferred means every payload byte reached the depot.
	PublishEventTransferred

	// PublishEventTransferFailed ends the transfer stage permanently.
	PublishEventTransferFailed

	// PublishEventCertifyInitiated begins receipt redemption and asset
	// registration.
	PublishEventCertifyInitiated

	// PublishEventCertified records the locator and registration tx. This is
	// the only event that sets the asset's content locator.
	PublishEventCertified

	// PublishEventCertifyFailed ends the certification stage permanently.
	PublishEventCertifyFailed

	// PublishEventFailed concludes cleanup after a stage failure.
	PublishEventFailed

	// PublishEventRestart re-enters the current stage after a process
	// restart.
	PublishEventRestart
)

// PublishEvents maps publish event codes to string names.
var PublishEvents = map[PublishEvent]string{
	PublishEventOpen:              "PublishEventOpen",
	PublishEventReserveInitiated:  "PublishEventReserveInitiated",
	PublishEventReserved:          "PublishEventReserved",
	PublishEventReserveFailed:     "PublishEventReserveFailed",
	PublishEventTransferInitiated: "PublishEventTransferInitiated",
	PublishEventTransferProgress:  "PublishEventTransferProgress",
	PublishEventTransferred:       "PublishEventTransferred",
	PublishEventTransferFailed:    "PublishEventTransferFailed",
	PublishEventCertifyInitiated:  "PublishEventCertifyInitiated",
	PublishEventCertified:         "PublishEventCertified",
	PublishEventCertifyFailed:     "PublishEventCertifyFailed",
	PublishEventFailed:            "PublishEventFailed",
	PublishEventRestart:           "PublishEventRestart",
}

// AssetPublish is the persisted record of one payload moving through the
// upload pipeline. It is the state machine's state type, keyed by policy id.
type AssetPublish struct {
	Asset ledger.AssetID
	// Policy is the freshly bound policy this payload was sealed under.
	Policy policy.ID
	Owner  address.Address
	// PayloadSize is the plaintext length; it becomes the registered asset's
	// size.
	PayloadSize uint64
	// CarSize is the staged CAR length; it is what the depot reserves and
	// what Transfer streams.
	CarSize     uint64
	PayloadPath filestore.Path
	// PayloadRoot is the locally computed storage digest. The depot's
	// reservation must echo it, and transfers always reference it.
	PayloadRoot cid.Cid
	Receipt     []byte
	// Locator is empty until certification succeeds.
	Locator    string
	RegisterTx *cid.Cid
	Retention  abi.ChainEpoch
	Budget     abi.TokenAmount
	BytesSent  uint64
	Status     PublishStatus
	// FailedStage and Message are set when a stage gives up.
	FailedStage string
	Message     string
}

// AssetPublishUndefined is an empty publish record.
var AssetPublishUndefined = AssetPublish{}

// Progress is a watcher-facing snapshot of how far a publish has gotten.
type Progress struct {
	Status  PublishStatus
	Percent float64
	Message string
}

// Progress derives the progress snapshot for this record. Percent never
// decreases along the success path; the transfer stage interpolates on bytes
// sent.
func (p AssetPublish) Progress() Progress {
	return Progress{Status: p.Status, Percent: p.percent(), Message: p.Message}
}

func (p AssetPublish) percent() float64 {
	switch p.Status {
	case PublishStatusEncoded:
		return 0
	case PublishStatusReserving:
		return 5
	case PublishStatusReserved:
		return 15
	case PublishStatusTransferring, PublishStatusTransferred:
		return p.transferPercent()
	case PublishStatusCertifying:
		return 90
	case PublishStatusCertified:
		return 100
	case PublishStatusFailing, PublishStatusFailed:
		switch p.FailedStage {
		case TransferStage:
			return p.transferPercent()
		case CertifyStage:
			return 90
		default:
			return 5
		}
	default:
		return 0
	}
}

func (p AssetPublish) transferPercent() float64 {
	if p.CarSize == 0 {
		return 15
	}
	frac := float64(p.BytesSent) / float64(p.CarSize)
	if frac > 1 {
		frac = 1
	}
	return 15 + 70*frac
}

// PublishParams configures one Publish call.
type PublishParams struct {
	// Payload is the plaintext to protect. It is read in full before Publish
	// returns.
	Payload io.Reader

	// Scope labels the access scope the fresh policy binds under.
	Scope policy.ScopeID

	// Threshold is how many key shares a decryption session must gather.
	Threshold uint64

	// Owner funds the reservation and holds the registered asset.
	Owner address.Address

	// Retention is how long the depot must hold the payload.
	Retention abi.ChainEpoch

	// Budget caps what the funds reservation may escrow.
	Budget abi.TokenAmount
}

// PublishResult identifies a freshly started publish.
type PublishResult struct {
	Asset  ledger.AssetID
	Policy policy.ID
}

// Subscriber is a callback that is run when events are emitted on a publish.
type Subscriber func(event PublishEvent, publish AssetPublish)

// Unsubscribe is a function that gets called to unsubscribe from publish
// events.
type Unsubscribe func()

// Coordinator drives payloads through sealing, staging, reservation,
// transfer and certification, and answers queries about publishes in flight.
type Coordinator interface {
	// Start dispatches publishes persisted by a previous process. It must be
	// called before Publish.
	Start(ctx context.Context) error

	// Stop waits for running state machines to wind down.
	Stop() error

	// Publish seals the payload under a fresh policy, stages it, tracks the
	// asset and begins the upload state machine. It returns as soon as the
	// publish is tracked; completion is observed through events or
	// WatchProgress.
	Publish(ctx context.Context, params PublishParams) (PublishResult, error)

	// GetPublish returns the current record for one publish.
	GetPublish(policyID policy.ID) (AssetPublish, error)

	// ListPublishes returns every tracked publish.
	ListPublishes() ([]AssetPublish, error)

	// SubscribeToEvents registers subscriber to be called on every state
	// machine event until the returned Unsubscribe is called.
	SubscribeToEvents(subscriber Subscriber) Unsubscribe

	// WatchProgress streams progress snapshots for one publish. The channel
	// closes once the publish reaches a terminal status or ctx is cancelled.
	WatchProgress(ctx context.Context, policyID policy.ID) (<-chan Progress, error)
}
