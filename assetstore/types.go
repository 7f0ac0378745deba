// Package assetstore keeps a publisher's local records of the assets it has
// published, keyed by asset id. The ledger remains the source of truth for
// downloaders; these records exist so an operator can inspect what this node
// published, where each payload ended up, and why a publish failed.
package assetstore

import (
	"github.com/ipfs/go-cid"

	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/policy"
)

//go:generate cbor-gen-for AssetInfo

// AssetStatus describes where a tracked asset sits in its publish lifecycle.
type AssetStatus uint64

const (
	// AssetUnknown means the record carries no lifecycle information.
	AssetUnknown AssetStatus = iota
	// AssetPublishing is an asset whose payload publish is still in flight.
	AssetPublishing
	// AssetCertified is an asset whose payload was certified at a depot and
	// registered on the ledger.
	AssetCertified
	// AssetFailed is an asset whose publish failed permanently.
	AssetFailed
)

// AssetStatuses maps AssetStatus codes to human readable labels
var AssetStatuses = map[AssetStatus]string{
	AssetUnknown:    "Unknown",
	AssetPublishing: "Publishing",
	AssetCertified:  "Certified",
	AssetFailed:     "Failed",
}

// AssetInfo is this node's record of one published asset. Locator and
// RegisterTx stay empty until certification; Message is only set on failure.
type AssetInfo struct {
	Asset      ledger.AssetID
	Policy     policy.ID
	Digest     cid.Cid
	Locator    string
	Size       uint64
	RegisterTx *cid.Cid
	Status     AssetStatus
	Message    string
}

// AssetInfoUndefined is asset info with no information
var AssetInfoUndefined = AssetInfo{}

// AssetStore is a saved database of published asset records that can be
// modified and queried
type AssetStore interface {
	TrackAsset(info AssetInfo) error
	CompleteAsset(asset ledger.AssetID, locator string, registerTx cid.Cid) error
	FailAsset(asset ledger.AssetID, message string) error
	GetAssetInfo(asset ledger.AssetID) (AssetInfo, error)
	ListAssets() ([]AssetInfo, error)
}
