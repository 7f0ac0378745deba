package ledger

import (
	"fmt"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/google/uuid"
	"github.com/ipfs/go-cid"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/policy"
)

//go:generate cbor-gen-for Asset Capability ReserveFundsParams RegisterAssetParams GrantCapabilityParams AuthorizationParams

// AssetID identifies an asset on the ledger.
type AssetID string

// NewAssetID mints a fresh unique asset id.
func NewAssetID() AssetID {
	return AssetID(uuid.New().String())
}

func (id AssetID) String() string {
	return string(id)
}

// RawRecord is an unparsed CBOR ledger record. Records must pass through the
// schema validating parsers before use.
type RawRecord []byte

// Cursor positions a capability scan. The zero Cursor starts a scan; a zero
// Next cursor on a returned page means the scan is exhausted.
type Cursor uint64

// CapabilityPage is one page of a capability scan.
type CapabilityPage struct {
	Records []RawRecord
	Next    Cursor
}

// TxKind identifies the ledger operation a Transaction performs.
type TxKind uint64

const (
	TxKindUnknown TxKind = iota
	TxKindReserveFunds
	TxKindRegisterAsset
	TxKindGrantCapability
)

// TxKinds maps TxKind codes to human readable labels
var TxKinds = map[TxKind]string{
	TxKindUnknown:         "Unknown",
	TxKindReserveFunds:    "ReserveFunds",
	TxKindRegisterAsset:   "RegisterAsset",
	TxKindGrantCapability: "GrantCapability",
}

func (k TxKind) String() string {
	s, ok := TxKinds[k]
	if !ok {
		return fmt.Sprintf("TxKind(%d)", uint64(k))
	}
	return s
}

// Transaction is a ledger state transition carrying kind-specific CBOR
// encoded params.
type Transaction struct {
	From   address.Address
	Kind   TxKind
	Params []byte
}

// TxReceipt acknowledges an accepted transaction.
type TxReceipt struct {
	TxCid cid.Cid
	Epoch abi.ChainEpoch
}

// RejectionError is returned when the ledger refuses a transaction. Code and
// Reason carry exactly what the ledger produced; a rejected transaction is
// never retried.
type RejectionError struct {
	Code   exitcode.ExitCode
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("transaction rejected (exit code %d): %s", e.Code, e.Reason)
}

// IsRejection checks if an error is a ledger rejection
func IsRejection(err error) bool {
	var re *RejectionError
	return xerrors.As(err, &re)
}

// Asset is the parsed ledger record for a published asset. Locator is empty
// until the asset's payload has been certified at a depot and registered.
type Asset struct {
	ID         AssetID
	Policy     policy.ID
	Owner      address.Address
	Digest     cid.Cid
	Locator    string
	Size       uint64
	Registered abi.ChainEpoch
}

// Capability is the parsed ledger record for an access grant. Token ids are
// minted in issue order, so the lowest token is the oldest grant.
type Capability struct {
	Token  uint64
	Asset  AssetID
	Holder address.Address
	Issued abi.ChainEpoch
}

// ReserveFundsParams are the params for a TxKindReserveFunds transaction.
type ReserveFundsParams struct {
	Payload   cid.Cid
	Size      uint64
	Retention abi.ChainEpoch
	Budget    abi.TokenAmount
}

// RegisterAssetParams are the params for a TxKindRegisterAsset transaction.
// Registration is what makes a certified locator visible to downloaders.
type RegisterAssetParams struct {
	Asset   AssetID
	Policy  policy.ID
	Digest  cid.Cid
	Locator string
	Size    uint64
}

// GrantCapabilityParams are the params for a TxKindGrantCapability
// transaction.
type GrantCapabilityParams struct {
	Asset  AssetID
	Holder address.Address
}

// AuthorizationParams is the payload a downloader carries to key share
// servers to prove entitlement for the length of a decryption session.
// SessionKey is the session's public sealing key and Expiration is anchored
// at the chain head observed when the session was established.
type AuthorizationParams struct {
	Asset      AssetID
	Policy     policy.ID
	Holder     address.Address
	SessionKey []byte
	Expiration abi.ChainEpoch
}
