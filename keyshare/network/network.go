// Package network carries share requests between decryption sessions and key
// servers over libp2p streams.
package network

import (
	"context"

	"github.com/libp2p/go-libp2p-core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/portus-project/go-asset-vault/keyshare"
)

// ShareStream is a stream for reading and writing messages on the key share
// protocol. One stream carries one request and one response.
type ShareStream interface {
	ReadShareRequest() (keyshare.ShareRequest, error)
	WriteShareRequest(keyshare.ShareRequest) error
	ReadShareResponse() (keyshare.ShareResponse, error)
	WriteShareResponse(keyshare.ShareResponse) error
	RemotePeer() peer.ID
	Close() error
}

// ShareReceiver handles inbound share streams on the serving side.
type ShareReceiver interface {
	HandleShareStream(ShareStream)
}

// KeyShareNetwork is a network abstraction for the key share protocol.
type KeyShareNetwork interface {
	NewShareStream(ctx context.Context, id peer.ID) (ShareStream, error)
	SetDelegate(ShareReceiver) error
	StopHandlingRequests() error
	ID() peer.ID
	AddAddrs(p peer.ID, addrs []ma.Multiaddr)
}
