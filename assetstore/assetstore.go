package assetstore

import (
	"github.com/filecoin-project/go-statestore"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"

	"github.com/portus-project/go-asset-vault/ledger"
)

var DSPrefix = "/publishing/assets"

// NewAssetStore returns an AssetStore persisting records under ds.
func NewAssetStore(ds datastore.Batching) AssetStore {
	return &assetStore{
		store: statestore.New(namespace.Wrap(ds, datastore.NewKey(DSPrefix))),
	}
}

type assetStore struct {
	store *statestore.StateStore
}

// TrackAsset begins tracking an asset as Publishing. Re-tracking an asset id
// replaces the previous record, so a re-publish starts from a clean slate.
func (as *assetStore) TrackAsset(info AssetInfo) error {
	info.Status = AssetPublishing
	info.Message = ""
	has, err := as.store.Has(info.Asset)
	if err != nil {
		return err
	}
	if !has {
		return as.store.Begin(info.Asset, &info)
	}
	return as.store.Get(info.Asset).Mutate(func(existing *AssetInfo) error {
		*existing = info
		return nil
	})
}

// CompleteAsset marks a tracked asset Certified and records where its payload
// lives and the registration transaction that made it visible.
func (as *assetStore) CompleteAsset(asset ledger.AssetID, locator string, registerTx cid.Cid) error {
	return as.mutateAssetInfo(asset, func(info *AssetInfo) error {
		info.Locator = locator
		info.RegisterTx = &registerTx
		info.Status = AssetCertified
		info.Message = ""
		return nil
	})
}

// FailAsset marks a tracked asset Failed with the terminal failure message.
func (as *assetStore) FailAsset(asset ledger.AssetID, message string) error {
	return as.mutateAssetInfo(asset, func(info *AssetInfo) error {
		info.Status = AssetFailed
		info.Message = message
		return nil
	})
}

func (as *assetStore) GetAssetInfo(asset ledger.AssetID) (AssetInfo, error) {
	var out AssetInfo
	if err := as.store.Get(asset).Get(&out); err != nil {
		return AssetInfoUndefined, err
	}
	return out, nil
}

func (as *assetStore) ListAssets() ([]AssetInfo, error) {
	var out []AssetInfo
	if err := as.store.List(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (as *assetStore) mutateAssetInfo(asset ledger.AssetID, mutator interface{}) error {
	return as.store.Get(asset).Mutate(mutator)
}
