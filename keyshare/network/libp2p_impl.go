package network

import (
	"bufio"
	"context"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/jpillora/backoff"
	"github.com/libp2p/go-libp2p-core/host"
	"github.com/libp2p/go-libp2p-core/network"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/libp2p/go-libp2p-core/protocol"
	ma "github.com/multiformats/go-multiaddr"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/keyshare"
)

var log = logging.Logger("keyshare_network")

// Option is an option for configuring the libp2p key share network
type Option func(*libp2pKeyShareNetwork)

// RetryParameters changes the default parameters around stream reopening
func RetryParameters(minDuration time.Duration, maxDuration time.Duration, attempts float64, backoffFactor float64) Option {
	return func(impl *libp2pKeyShareNetwork) {
		impl.maxStreamOpenAttempts = attempts
		impl.minAttemptDuration = minDuration
		impl.maxAttemptDuration = maxDuration
		impl.backoffFactor = backoffFactor
	}
}

// NewFromLibp2pHost builds a key share network on top of libp2p
func NewFromLibp2pHost(h host.Host, options ...Option) KeyShareNetwork {
	impl := &libp2pKeyShareNetwork{
		host:                  h,
		maxStreamOpenAttempts: 5,
		minAttemptDuration:    1 * time.Second,
		maxAttemptDuration:    5 * time.Minute,
		backoffFactor:         5,
	}
	for _, option := range options {
		option(impl)
	}
	return impl
}

// libp2pKeyShareNetwork transforms the libp2p host interface into the key
// share network interface.
type libp2pKeyShareNetwork struct {
	host                  host.Host
	maxStreamOpenAttempts float64
	minAttemptDuration    time.Duration
	maxAttemptDuration    time.Duration
	backoffFactor         float64
	// inbound streams from the network are forwarded to the receiver
	receiver ShareReceiver
}

func (impl *libp2pKeyShareNetwork) NewShareStream(ctx context.Context, id peer.ID) (ShareStream, error) {
	s, err := impl.openStream(ctx, id, keyshare.ProtocolID)
	if err != nil {
		log.Warn(err)
		return nil, err
	}
	buffered := bufio.NewReaderSize(s, 16)
	return &shareStream{p: id, rw: s, buffered: buffered}, nil
}

func (impl *libp2pKeyShareNetwork) openStream(ctx context.Context, id peer.ID, protocol protocol.ID) (network.Stream, error) {
	b := &backoff.Backoff{
		Min:    impl.minAttemptDuration,
		Max:    impl.maxAttemptDuration,
		Factor: impl.backoffFactor,
		Jitter: true,
	}

	for {
		s, err := impl.host.NewStream(ctx, id, protocol)
		if err == nil {
			return s, err
		}

		nAttempts := b.Attempt()
		if nAttempts == impl.maxStreamOpenAttempts {
			return nil, xerrors.Errorf("exhausted %d attempts but failed to open stream, err: %w", int(impl.maxStreamOpenAttempts), err)
		}
		d := b.Duration()
		time.Sleep(d)
	}
}

func (impl *libp2pKeyShareNetwork) SetDelegate(r ShareReceiver) error {
	impl.receiver = r
	impl.host.SetStreamHandler(keyshare.ProtocolID, impl.handleNewShareStream)
	return nil
}

func (impl *libp2pKeyShareNetwork) StopHandlingRequests() error {
	impl.receiver = nil
	impl.host.RemoveStreamHandler(keyshare.ProtocolID)
	return nil
}

func (impl *libp2pKeyShareNetwork) handleNewShareStream(s network.Stream) {
	reader := impl.getReaderOrReset(s)
	if reader != nil {
		ss := &shareStream{s.Conn().RemotePeer(), s, reader}
		impl.receiver.HandleShareStream(ss)
	}
}

func (impl *libp2pKeyShareNetwork) getReaderOrReset(s network.Stream) *bufio.Reader {
	if impl.receiver == nil {
		log.Warn("no receiver set")
		s.Reset() // nolint: errcheck,gosec
		return nil
	}
	return bufio.NewReaderSize(s, 16)
}

func (impl *libp2pKeyShareNetwork) ID() peer.ID {
	return impl.host.ID()
}

func (impl *libp2pKeyShareNetwork) AddAddrs(p peer.ID, addrs []ma.Multiaddr) {
	impl.host.Peerstore().AddAddrs(p, addrs, 8*time.Hour)
}
