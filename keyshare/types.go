// Package keyshare moves threshold key shares between decryption sessions and
// the key servers that guard them. Sealed fragments travel inside the request,
// so a server holds no per-policy state and only ever sees its own fragment.
package keyshare

import (
	"context"

	"github.com/libp2p/go-libp2p-core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/policy"
	"github.com/portus-project/go-asset-vault/sealing"
)

//go:generate cbor-gen-for ShareRequest ShareResponse KeyServerInfo

// ProtocolID is the libp2p protocol share requests travel over.
const ProtocolID = "/vault/keyshare/1.0.0"

// ShareStatus is a key server's verdict on a share request.
type ShareStatus uint64

const (
	// ShareStatusUnknown is the zero status; a well-formed response never
	// carries it.
	ShareStatusUnknown ShareStatus = iota

	// ShareStatusGranted accompanies a share resealed to the session key.
	ShareStatusGranted

	// ShareStatusDenied means the authorization did not entitle the session
	// to this share. Denials are final; retrying changes nothing.
	ShareStatusDenied

	// ShareStatusErrored means the server could not serve the share right
	// now.
	ShareStatusErrored
)

// ShareStatuses maps share statuses to human readable strings.
var ShareStatuses = map[ShareStatus]string{
	ShareStatusUnknown: "ShareStatusUnknown",
	ShareStatusGranted: "ShareStatusGranted",
	ShareStatusDenied:  "ShareStatusDenied",
	ShareStatusErrored: "ShareStatusErrored",
}

// ShareRequest asks one key server for its share of a policy's key. Fragment
// is the sealed fragment lifted from the payload envelope; AuthTx is the CBOR
// authorization payload the server validates against the ledger; SessionKey
// is the session public key the share must be resealed to.
type ShareRequest struct {
	Policy        policy.ID
	FragmentIndex uint64
	Fragment      []byte
	AuthTx        []byte
	SessionKey    []byte
	Threshold     uint64
}

// ShareRequestUndefined is an empty request.
var ShareRequestUndefined = ShareRequest{}

// ShareResponse answers a ShareRequest. A granted response echoes the
// fragment index and carries the share sealed to the session key; any other
// status leaves Share empty and explains itself in Message.
type ShareResponse struct {
	Status  ShareStatus
	Message string
	Index   uint64
	Share   []byte
}

// ShareResponseUndefined is an empty response.
var ShareResponseUndefined = ShareResponse{}

// AccessValidator decides whether an authorization payload entitles its
// session to key shares. Implementations check the ledger; test doubles
// substitute policy.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, auth ledger.AuthorizationParams) error
}

// KeyServerInfo is a registry entry for one key server: its identity, the
// public sealing key fragments are encrypted to at publish time, and dial
// addresses for download time.
type KeyServerInfo struct {
	ID         peer.ID
	SealingKey []byte
	Addrs      [][]byte
}

// NewKeyServerInfo builds a registry entry from dialable addresses.
func NewKeyServerInfo(id peer.ID, sealingKey []byte, addrs []ma.Multiaddr) KeyServerInfo {
	info := KeyServerInfo{ID: id, SealingKey: sealingKey}
	for _, a := range addrs {
		info.Addrs = append(info.Addrs, a.Bytes())
	}
	return info
}

// Multiaddrs decodes the stored dial addresses.
func (k *KeyServerInfo) Multiaddrs() ([]ma.Multiaddr, error) {
	addrs := make([]ma.Multiaddr, 0, len(k.Addrs))
	for _, b := range k.Addrs {
		a, err := ma.NewMultiaddrBytes(b)
		if err != nil {
			return nil, xerrors.Errorf("decoding address for key server %s: %w", k.ID, err)
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

// ServerKey is the encrypt-time view of this server.
func (k *KeyServerInfo) ServerKey() sealing.ServerKey {
	return sealing.ServerKey{ID: k.ID, SealingKey: k.SealingKey}
}
