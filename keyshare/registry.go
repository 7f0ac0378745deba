package keyshare

import (
	"github.com/filecoin-project/go-statestore"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	"github.com/libp2p/go-libp2p-core/peer"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/sealing"
)

// RegistryDsPrefix is the datastore namespace server records live under.
var RegistryDsPrefix = "/keyservers"

// Registry is the persisted directory of known key servers. Publishing reads
// sealing keys from it; download reads dial info from it. Entries are keyed
// by peer id and re-registration replaces the whole record.
type Registry struct {
	store *statestore.StateStore
}

// NewRegistry builds a Registry over the given datastore.
func NewRegistry(ds datastore.Batching) *Registry {
	return &Registry{
		store: statestore.New(namespace.Wrap(ds, datastore.NewKey(RegistryDsPrefix))),
	}
}

// Register adds or replaces the record for info's server.
func (r *Registry) Register(info KeyServerInfo) error {
	if info.ID == "" {
		return xerrors.Errorf("key server record has no peer id")
	}
	if len(info.SealingKey) != sealing.SealingKeyLen {
		return xerrors.Errorf("key server %s sealing key must be %d bytes, got %d", info.ID, sealing.SealingKeyLen, len(info.SealingKey))
	}
	has, err := r.store.Has(info.ID)
	if err != nil {
		return xerrors.Errorf("checking for key server %s: %w", info.ID, err)
	}
	if !has {
		return r.store.Begin(info.ID, &info)
	}
	return r.store.Get(info.ID).Mutate(func(existing *KeyServerInfo) error {
		*existing = info
		return nil
	})
}

// Get returns the record for one server.
func (r *Registry) Get(id peer.ID) (KeyServerInfo, error) {
	var info KeyServerInfo
	if err := r.store.Get(id).Get(&info); err != nil {
		return KeyServerInfo{}, xerrors.Errorf("fetching key server %s: %w", id, err)
	}
	return info, nil
}

// List returns every registered server.
func (r *Registry) List() ([]KeyServerInfo, error) {
	var infos []KeyServerInfo
	if err := r.store.List(&infos); err != nil {
		return nil, xerrors.Errorf("listing key servers: %w", err)
	}
	return infos, nil
}

// ServerKeys returns the encrypt-time key set, one entry per registered
// server.
func (r *Registry) ServerKeys() ([]sealing.ServerKey, error) {
	infos, err := r.List()
	if err != nil {
		return nil, err
	}
	keys := make([]sealing.ServerKey, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, info.ServerKey())
	}
	return keys, nil
}
