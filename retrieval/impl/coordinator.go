package retrievalimpl

import (
	"bytes"
	"context"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	pubsub "github.com/hannahhoward/go-pubsub"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/capability"
	"github.com/portus-project/go-asset-vault/depot"
	"github.com/portus-project/go-asset-vault/keyshare"
	"github.com/portus-project/go-asset-vault/keyshare/network"
	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/payloadio"
	"github.com/portus-project/go-asset-vault/retrieval"
	"github.com/portus-project/go-asset-vault/sealing"
	"github.com/portus-project/go-asset-vault/shared"
)

var log = logging.Logger("retrieval_impl")

// DefaultSessionTTL bounds local use of one decryption session's keypair.
var DefaultSessionTTL = 10 * time.Minute

// Coordinator is the production decryption coordinator. It resolves grants
// through the ledger, reads sealed payloads back from the depot, and gathers
// key shares over the share network, retrying transient faults through the
// shared retry policy.
type Coordinator struct {
	node       ledger.Service
	depot      depot.Service
	registry   *keyshare.Registry
	resolver   *capability.Resolver
	net        network.KeyShareNetwork
	retry      shared.RetryPolicy
	sessionTTL time.Duration

	pubSub *pubsub.PubSub
}

var _ retrieval.Coordinator = &Coordinator{}

// CoordinatorOption customises a Coordinator at construction.
type CoordinatorOption func(*Coordinator)

// RetryPolicy overrides the default retry policy.
func RetryPolicy(p shared.RetryPolicy) CoordinatorOption {
	return func(c *Coordinator) {
		c.retry = p
	}
}

// SessionTTL overrides how long a decryption session stays usable locally.
func SessionTTL(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.sessionTTL = d
	}
}

// NewCoordinator builds the decryption coordinator.
func NewCoordinator(
	node ledger.Service,
	depotService depot.Service,
	registry *keyshare.Registry,
	net network.KeyShareNetwork,
	options ...CoordinatorOption,
) *Coordinator {
	c := &Coordinator{
		node:       node,
		depot:      depotService,
		registry:   registry,
		resolver:   capability.NewResolver(node),
		net:        net,
		retry:      shared.DefaultRetryPolicy(),
		sessionTTL: DefaultSessionTTL,
	}
	c.pubSub = pubsub.New(retrievalDispatcher)
	for _, option := range options {
		option(c)
	}
	return c
}

// SubscribeToEvents registers subscriber to be called on every download event
// until the returned Unsubscribe is called.
func (c *Coordinator) SubscribeToEvents(subscriber retrieval.Subscriber) retrieval.Unsubscribe {
	return retrieval.Unsubscribe(c.pubSub.Subscribe(subscriber))
}

// Download recovers the plaintext of asset for holder.
func (c *Coordinator) Download(ctx context.Context, asset ledger.AssetID, holder address.Address) ([]byte, error) {
	state := retrieval.AssetRetrieval{Asset: asset, Holder: holder}
	c.publishEvent(retrieval.RetrievalEventStarted, state)

	plaintext, err := c.download(ctx, &state)
	if err != nil {
		state.Message = err.Error()
		c.publishEvent(retrieval.RetrievalEventFailed, state)
		return nil, err
	}
	c.publishEvent(retrieval.RetrievalEventCompleted, state)
	return plaintext, nil
}

func (c *Coordinator) download(ctx context.Context, state *retrieval.AssetRetrieval) ([]byte, error) {
	err := c.retry.Run(ctx, "capability resolution", func(ctx context.Context) error {
		_, err := c.resolver.Resolve(ctx, state.Asset, state.Holder)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.publishEvent(retrieval.RetrievalEventCapabilityResolved, *state)

	asset, err := c.lookupAsset(ctx, state.Asset)
	if err != nil {
		return nil, err
	}
	if asset.Locator == "" {
		return nil, &depot.ContentUnavailableError{Locator: ""}
	}
	state.Policy = asset.Policy
	state.Locator = asset.Locator
	state.Size = asset.Size

	env, err := c.fetchEnvelope(ctx, asset)
	if err != nil {
		return nil, err
	}
	state.Threshold = env.Threshold
	c.publishEvent(retrieval.RetrievalEventPayloadFetched, *state)

	_, head, err := c.chainHead(ctx)
	if err != nil {
		return nil, err
	}
	session, err := retrieval.NewDecryptionSession(head, c.sessionTTL)
	if err != nil {
		return nil, err
	}
	auth, err := ledger.BuildAuthorization(&ledger.AuthorizationParams{
		Asset:      asset.ID,
		Policy:     asset.Policy,
		Holder:     state.Holder,
		SessionKey: session.PublicKey(),
		Expiration: session.Expiration,
	})
	if err != nil {
		return nil, xerrors.Errorf("serializing authorization: %w", err)
	}
	log.Infof("downloading asset %s for %s under session %s (threshold %d of %d)",
		asset.ID, state.Holder, session.ID, env.Threshold, env.ShareCount)
	c.publishEvent(retrieval.RetrievalEventSessionEstablished, *state)

	if err := session.CheckLive(); err != nil {
		return nil, err
	}
	shares, err := c.gatherShares(ctx, session, env, auth, state)
	if retrieval.IsThresholdNotMet(err) {
		log.Warnf("retrying share collection for asset %s: %s", state.Asset, err)
		state.SharesGranted = 0
		shares, err = c.gatherShares(ctx, session, env, auth, state)
	}
	if err != nil {
		return nil, err
	}
	state.SharesGranted = uint64(len(shares))
	c.publishEvent(retrieval.RetrievalEventSharesCollected, *state)

	if err := session.CheckLive(); err != nil {
		return nil, err
	}
	plaintext, err := sealing.Decrypt(env, shares)
	if err != nil {
		return nil, err
	}
	if uint64(len(plaintext)) != asset.Size {
		log.Warnf("asset %s: plaintext is %d bytes but the ledger record says %d",
			asset.ID, len(plaintext), asset.Size)
	}
	return plaintext, nil
}

func (c *Coordinator) lookupAsset(ctx context.Context, id ledger.AssetID) (ledger.Asset, error) {
	var record ledger.RawRecord
	err := c.retry.Run(ctx, "asset lookup", func(ctx context.Context) error {
		var err error
		record, err = c.node.GetAsset(ctx, id)
		return err
	})
	if err != nil {
		return ledger.Asset{}, xerrors.Errorf("fetching asset %s: %w", id, err)
	}
	return ledger.ParseAsset(record)
}

// fetchEnvelope reads the sealed payload back from the depot and decodes it.
// The decoded root must match the registered digest and the envelope must be
// sealed under the asset's policy; either mismatch fails the download closed.
func (c *Coordinator) fetchEnvelope(ctx context.Context, asset ledger.Asset) (*sealing.SealedPayload, error) {
	var env sealing.SealedPayload
	err := c.retry.Run(ctx, "payload fetch", func(ctx context.Context) error {
		rc, err := c.depot.ReadByLocator(ctx, asset.Locator)
		if err != nil {
			return err
		}
		defer rc.Close() // nolint: errcheck

		root, envelope, err := payloadio.Decode(ctx, rc)
		if err != nil {
			return xerrors.Errorf("decoding payload car: %w", err)
		}
		if !root.Equals(asset.Digest) {
			return xerrors.Errorf("payload root %s does not match registered digest %s", root, asset.Digest)
		}
		if err := env.UnmarshalCBOR(bytes.NewReader(envelope)); err != nil {
			return xerrors.Errorf("decoding sealed envelope: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if env.Policy != asset.Policy {
		return nil, xerrors.Errorf("envelope is sealed under policy %s, asset is bound to %s", env.Policy, asset.Policy)
	}
	return &env, nil
}

func (c *Coordinator) chainHead(ctx context.Context) (shared.TipSetToken, abi.ChainEpoch, error) {
	var token shared.TipSetToken
	var head abi.ChainEpoch
	err := c.retry.Run(ctx, "chain head", func(ctx context.Context) error {
		var err error
		token, head, err = c.node.GetChainHead(ctx)
		return err
	})
	return token, head, err
}

func (c *Coordinator) publishEvent(evt retrieval.RetrievalEvent, state retrieval.AssetRetrieval) {
	if err := c.pubSub.Publish(internalEvent{evt, state}); err != nil {
		log.Errorf("failed to publish retrieval event %d", evt)
	}
}

type internalEvent struct {
	evt   retrieval.RetrievalEvent
	state retrieval.AssetRetrieval
}

func retrievalDispatcher(evt pubsub.Event, fn pubsub.SubscriberFn) error {
	ie, ok := evt.(internalEvent)
	if !ok {
		return xerrors.New("wrong type of event")
	}
	cb, ok := fn.(retrieval.Subscriber)
	if !ok {
		return xerrors.New("wrong type of callback")
	}
	cb(ie.evt, ie.state)
	return nil
}
