// Package depot defines the storage depot: the external service a publisher
// commits sealed payloads to and a downloader fetches them from.
//
// A commit is a three step handshake. Reserve escrows storage for a proposed
// payload and returns a digest plus a receipt; Transfer streams the payload
// bytes for that digest; Certify redeems the receipt for a durable content
// locator. Only certified payloads are readable through ReadByLocator.
package depot

import (
	"context"
	"fmt"
	"io"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ipfs/go-cid"
	"golang.org/x/xerrors"
)

// ReserveProposal asks a depot to hold space for a payload.
type ReserveProposal struct {
	Payload   cid.Cid
	Size      uint64
	Retention abi.ChainEpoch
	Owner     address.Address
}

// Reservation confirms a proposal. Digest is the depot's own derivation of
// the payload digest and must equal the locally computed root; Receipt is the
// opaque claim ticket Certify redeems.
type Reservation struct {
	Digest  cid.Cid
	Receipt []byte
}

// Service are the depot dependencies consumed by the coordinators.
type Service interface {
	// Reserve escrows storage for the proposal. Reserving the same proposal
	// again returns the original reservation without charging twice
	Reserve(ctx context.Context, proposal ReserveProposal) (Reservation, error)

	// Transfer streams the payload bytes for a previously reserved digest
	Transfer(ctx context.Context, digest cid.Cid, payload io.Reader, size uint64) error

	// Certify redeems a reservation receipt for a durable content locator
	Certify(ctx context.Context, receipt []byte) (string, error)

	// ReadByLocator fetches the bytes of a certified payload
	ReadByLocator(ctx context.Context, locator string) (io.ReadCloser, error)
}

// ContentUnavailableError means a locator does not resolve to readable
// content: never stored, expired, or collected.
type ContentUnavailableError struct {
	Locator string
}

func (e *ContentUnavailableError) Error() string {
	return fmt.Sprintf("content unavailable at locator %q", e.Locator)
}

// IsContentUnavailable checks if an error indicates unreadable content
func IsContentUnavailable(err error) bool {
	var cu *ContentUnavailableError
	return xerrors.As(err, &cu)
}
