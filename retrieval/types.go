// Package retrieval is the decryption coordinator: it turns a capability held
// on the ledger into the plaintext of a published asset. A download resolves
// the holder's grant, fetches and decodes the sealed payload, establishes a
// short lived decryption session, gathers key shares from the servers guarding
// the policy, and decrypts. Every step fails closed; no partial plaintext is
// ever returned.
package retrieval

import (
	"context"
	"fmt"

	"github.com/filecoin-project/go-address"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/policy"
)

// RetrievalEvent marks a step in a download.
type RetrievalEvent uint64

const (
	// RetrievalEventStarted means a download has begun.
	RetrievalEventStarted RetrievalEvent = iota

	// RetrievalEventCapabilityResolved means the holder's grant was found.
	RetrievalEventCapabilityResolved

	// RetrievalEventPayloadFetched means the sealed payload was read from the
	// depot and its envelope decoded.
	RetrievalEventPayloadFetched

	// RetrievalEventSessionEstablished means a fresh decryption session and
	// its authorization exist.
	RetrievalEventSessionEstablished

	// RetrievalEventShareReceived fires once per granted key share.
	RetrievalEventShareReceived

	// RetrievalEventSharesCollected means the threshold was reached.
	RetrievalEventSharesCollected

	// RetrievalEventCompleted means the plaintext was recovered.
	RetrievalEventCompleted

	// RetrievalEventFailed means the download surfaced an error.
	RetrievalEventFailed
)

// RetrievalEvents maps retrieval events to human readable strings
var RetrievalEvents = map[RetrievalEvent]string{
	RetrievalEventStarted:            "RetrievalEventStarted",
	RetrievalEventCapabilityResolved: "RetrievalEventCapabilityResolved",
	RetrievalEventPayloadFetched:     "RetrievalEventPayloadFetched",
	RetrievalEventSessionEstablished: "RetrievalEventSessionEstablished",
	RetrievalEventShareReceived:      "RetrievalEventShareReceived",
	RetrievalEventSharesCollected:    "RetrievalEventSharesCollected",
	RetrievalEventCompleted:          "RetrievalEventCompleted",
	RetrievalEventFailed:             "RetrievalEventFailed",
}

// AssetRetrieval is the observable state of one download, published alongside
// every event. Fields fill in as the pipeline advances.
type AssetRetrieval struct {
	Asset         ledger.AssetID
	Holder        address.Address
	Policy        policy.ID
	Locator       string
	Threshold     uint64
	SharesGranted uint64
	Size          uint64
	Message       string
}

// Subscriber is a callback that is run when events are published
type Subscriber func(event RetrievalEvent, state AssetRetrieval)

// Unsubscribe is a function that gets called to unsubscribe from events
type Unsubscribe func()

// Coordinator is the downloader-side API for recovering published assets.
type Coordinator interface {
	// Download recovers the plaintext of asset for holder. The holder must
	// hold a capability on the ledger; the asset's payload must still be
	// readable at its depot; and at least Threshold key servers must grant
	// their shares to this download's session.
	Download(ctx context.Context, asset ledger.AssetID, holder address.Address) ([]byte, error)

	// SubscribeToEvents registers subscriber to be called on every download
	// event until the returned Unsubscribe is called.
	SubscribeToEvents(subscriber Subscriber) Unsubscribe
}

// ThresholdNotMetError reports a share fan-out that gathered fewer grants
// than the policy's threshold. Errs aggregates the per-server failures behind
// the shortfall.
type ThresholdNotMetError struct {
	Granted  uint64
	Required uint64
	Errs     error
}

func (e *ThresholdNotMetError) Error() string {
	if e.Errs != nil {
		return fmt.Sprintf("gathered %d of %d required key shares: %s", e.Granted, e.Required, e.Errs)
	}
	return fmt.Sprintf("gathered %d of %d required key shares", e.Granted, e.Required)
}

// IsThresholdNotMet checks if an error indicates a failed share fan-out
func IsThresholdNotMet(err error) bool {
	var te *ThresholdNotMetError
	return xerrors.As(err, &te)
}
