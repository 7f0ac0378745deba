package ledger

import (
	"context"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"

	"github.com/portus-project/go-asset-vault/shared"
)

// Service are the node dependencies for talking to the asset ledger.
type Service interface {
	// GetChainHead returns an opaque token for the current chain head and its
	// epoch, used to anchor authorization expirations
	GetChainHead(ctx context.Context) (shared.TipSetToken, abi.ChainEpoch, error)

	// SubmitTransaction synchronously applies a transaction. Acceptance
	// returns a receipt; refusal returns a *RejectionError carrying the
	// ledger's exit code and reason untouched
	SubmitTransaction(ctx context.Context, tx Transaction) (TxReceipt, error)

	// QueryOwnedCapabilities returns one page of the capability records held
	// by holder. A zero cursor starts the scan; a zero Next on the returned
	// page ends it
	QueryOwnedCapabilities(ctx context.Context, holder address.Address, cursor Cursor) (CapabilityPage, error)

	// GetAsset fetches the raw ledger record for an asset id
	GetAsset(ctx context.Context, id AssetID) (RawRecord, error)
}
