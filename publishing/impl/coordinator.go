package publishingimpl

import (
	"bytes"
	"context"
	"io"

	cborutil "github.com/filecoin-project/go-cbor-util"
	"github.com/filecoin-project/go-statemachine/fsm"
	"github.com/google/uuid"
	pubsub "github.com/hannahhoward/go-pubsub"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/assetstore"
	"github.com/portus-project/go-asset-vault/depot"
	"github.com/portus-project/go-asset-vault/filestore"
	"github.com/portus-project/go-asset-vault/keyshare"
	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/payloadio"
	"github.com/portus-project/go-asset-vault/policy"
	"github.com/portus-project/go-asset-vault/publishing"
	"github.com/portus-project/go-asset-vault/publishing/impl/publishstates"
	"github.com/portus-project/go-asset-vault/sealing"
	"github.com/portus-project/go-asset-vault/shared"
)

var log = logging.Logger("publishing_impl")

// DSPrefix is the datastore namespace publish state machines persist under.
var DSPrefix = "/publishing/uploads"

// Coordinator is the production upload coordinator. It seals payloads under
// fresh policies, stages them as CAR files and drives each through the
// publish state machine. It also implements the state machine's environment,
// wrapping every ledger and depot call in the retry policy.
type Coordinator struct {
	node     ledger.Service
	depot    depot.Service
	registry *keyshare.Registry
	pio      payloadio.PayloadIO
	fs       filestore.FileStore
	assets   assetstore.AssetStore
	retry    shared.RetryPolicy

	publishes fsm.Group
	pubSub    *pubsub.PubSub
}

var _ publishing.Coordinator = &Coordinator{}
var _ publishstates.PublishEnvironment = &Coordinator{}

// CoordinatorOption customises a Coordinator at construction.
type CoordinatorOption func(*Coordinator)

// RetryPolicy overrides the default stage retry policy.
func RetryPolicy(p shared.RetryPolicy) CoordinatorOption {
	return func(c *Coordinator) {
		c.retry = p
	}
}

// NewCoordinator builds the upload coordinator. Publish state persists to ds
// under DSPrefix and survives restarts; call Start to re-dispatch unfinished
// publishes.
func NewCoordinator(
	node ledger.Service,
	depotService depot.Service,
	registry *keyshare.Registry,
	fs filestore.FileStore,
	ds datastore.Batching,
	assets assetstore.AssetStore,
	options ...CoordinatorOption,
) (*Coordinator, error) {
	c := &Coordinator{
		node:     node,
		depot:    depotService,
		registry: registry,
		pio:      payloadio.NewPayloadIO(fs),
		fs:       fs,
		assets:   assets,
		retry:    shared.DefaultRetryPolicy(),
	}
	c.pubSub = pubsub.New(publishDispatcher)

	publishes, err := fsm.New(namespace.Wrap(ds, datastore.NewKey(DSPrefix)), fsm.Parameters{
		Environment:     c,
		StateType:       publishing.AssetPublish{},
		StateKeyField:   "Status",
		Events:          publishstates.PublishEvents,
		StateEntryFuncs: publishstates.PublishStateEntryFuncs,
		FinalityStates:  publishstates.PublishFinalityStates,
		Notifier:        c.dispatch,
	})
	if err != nil {
		return nil, err
	}
	c.publishes = publishes

	for _, option := range options {
		option(c)
	}
	return c, nil
}

// Start re-dispatches publishes persisted by a previous process. Terminal
// publishes stay untouched; everything else re-enters its current stage.
func (c *Coordinator) Start(ctx context.Context) error {
	publishes, err := c.ListPublishes()
	if err != nil {
		return xerrors.Errorf("listing persisted publishes: %w", err)
	}
	for _, publish := range publishes {
		if publish.Status.Terminal() {
			continue
		}
		log.Infof("resuming publish %s from %s", publish.Policy, publishing.PublishStatuses[publish.Status])
		if err := c.publishes.Send(publish.Policy, publishing.PublishEventRestart); err != nil {
			return xerrors.Errorf("restarting publish %s: %w", publish.Policy, err)
		}
	}
	return nil
}

// Stop winds the state machines down.
func (c *Coordinator) Stop() error {
	return c.publishes.Stop(context.TODO())
}

// Publish seals the payload under a freshly bound policy, stages it as a CAR
// file, tracks the asset locally and dispatches the upload state machine. It
// returns once the publish is tracked; the stages run asynchronously.
func (c *Coordinator) Publish(ctx context.Context, params publishing.PublishParams) (publishing.PublishResult, error) {
	plaintext, err := io.ReadAll(params.Payload)
	if err != nil {
		return publishing.PublishResult{}, xerrors.Errorf("reading payload: %w", err)
	}

	nonce, err := policy.NewNonce()
	if err != nil {
		return publishing.PublishResult{}, err
	}
	policyID, err := policy.Bind(params.Scope, nonce)
	if err != nil {
		return publishing.PublishResult{}, err
	}

	servers, err := c.registry.ServerKeys()
	if err != nil {
		return publishing.PublishResult{}, err
	}
	sealed, err := sealing.Encrypt(plaintext, policyID, params.Threshold, servers)
	if err != nil {
		return publishing.PublishResult{}, err
	}
	envelope, err := cborutil.Dump(sealed)
	if err != nil {
		return publishing.PublishResult{}, xerrors.Errorf("serializing envelope: %w", err)
	}

	encoded, err := c.pio.EncodePayload(ctx, bytes.NewReader(envelope))
	if err != nil {
		return publishing.PublishResult{}, err
	}

	assetID := ledger.AssetID(uuid.New().String())
	publish := &publishing.AssetPublish{
		Asset:       assetID,
		Policy:      policyID,
		Owner:       params.Owner,
		PayloadSize: uint64(len(plaintext)),
		CarSize:     encoded.Size,
		PayloadPath: encoded.Path,
		PayloadRoot: encoded.Root,
		Retention:   params.Retention,
		Budget:      params.Budget,
		Status:      publishing.PublishStatusEncoded,
	}

	if err := c.assets.TrackAsset(assetstore.AssetInfo{
		Asset:  assetID,
		Policy: policyID,
		Digest: encoded.Root,
		Size:   publish.PayloadSize,
	}); err != nil {
		_ = c.fs.Delete(encoded.Path)
		return publishing.PublishResult{}, xerrors.Errorf("tracking asset: %w", err)
	}

	if err := c.publishes.Begin(policyID, publish); err != nil {
		_ = c.fs.Delete(encoded.Path)
		return publishing.PublishResult{}, xerrors.Errorf("setting up publish tracking: %w", err)
	}
	if err := c.publishes.Send(policyID, publishing.PublishEventOpen); err != nil {
		return publishing.PublishResult{}, xerrors.Errorf("dispatching publish: %w", err)
	}

	log.Infof("publishing asset %s under policy %s (%d payload bytes, %d staged)",
		assetID, policyID, publish.PayloadSize, publish.CarSize)
	return publishing.PublishResult{Asset: assetID, Policy: policyID}, nil
}

// GetPublish returns the current record for one publish.
func (c *Coordinator) GetPublish(policyID policy.ID) (publishing.AssetPublish, error) {
	var out publishing.AssetPublish
	if err := c.publishes.Get(policyID).Get(&out); err != nil {
		return publishing.AssetPublishUndefined, xerrors.Errorf("fetching publish %s: %w", policyID, err)
	}
	return out, nil
}

// ListPublishes returns every tracked publish.
func (c *Coordinator) ListPublishes() ([]publishing.AssetPublish, error) {
	var out []publishing.AssetPublish
	if err := c.publishes.List(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubscribeToEvents registers subscriber to be called on every state machine
// event until the returned Unsubscribe is called.
func (c *Coordinator) SubscribeToEvents(subscriber publishing.Subscriber) publishing.Unsubscribe {
	return publishing.Unsubscribe(c.pubSub.Subscribe(subscriber))
}

// WatchProgress streams progress snapshots for one publish. Notifications
// coalesce: the watcher re-reads the record when poked, so a slow consumer
// never stalls the state machine and never misses the terminal snapshot.
func (c *Coordinator) WatchProgress(ctx context.Context, policyID policy.ID) (<-chan publishing.Progress, error) {
	poke := make(chan struct{}, 1)
	unsubscribe := c.SubscribeToEvents(func(_ publishing.PublishEvent, publish publishing.AssetPublish) {
		if publish.Policy != policyID {
			return
		}
		select {
		case poke <- struct{}{}:
		default:
		}
	})

	current, err := c.GetPublish(policyID)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	out := make(chan publishing.Progress)
	go func() {
		defer close(out)
		defer unsubscribe()
		emitted := false
		var last publishing.Progress
		for {
			progress := current.Progress()
			if !emitted || progress != last {
				select {
				case out <- progress:
				case <-ctx.Done():
					return
				}
				emitted = true
				last = progress
			}
			if current.Status.Terminal() {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-poke:
				refreshed, err := c.GetPublish(policyID)
				if err != nil {
					log.Warnf("watching publish %s: %s", policyID, err)
					return
				}
				current = refreshed
			}
		}
	}()
	return out, nil
}

// ReserveFunds submits the funds reservation transaction for the staged
// payload.
func (c *Coordinator) ReserveFunds(ctx context.Context, publish publishing.AssetPublish) (ledger.TxReceipt, error) {
	params, err := cborutil.Dump(&ledger.ReserveFundsParams{
		Payload:   publish.PayloadRoot,
		Size:      publish.CarSize,
		Retention: publish.Retention,
		Budget:    publish.Budget,
	})
	if err != nil {
		return ledger.TxReceipt{}, xerrors.Errorf("serializing reservation params: %w", err)
	}
	tx := ledger.Transaction{
		From:   publish.Owner,
		Kind:   ledger.TxKindReserveFunds,
		Params: params,
	}

	var receipt ledger.TxReceipt
	err = c.retry.Run(ctx, "funds reservation", func(ctx context.Context) error {
		var err error
		receipt, err = c.node.SubmitTransaction(ctx, tx)
		return err
	})
	return receipt, err
}

// ReserveStorage asks the depot to hold space for the staged payload.
func (c *Coordinator) ReserveStorage(ctx context.Context, publish publishing.AssetPublish) (depot.Reservation, error) {
	proposal := depot.ReserveProposal{
		Payload:   publish.PayloadRoot,
		Size:      publish.CarSize,
		Retention: publish.Retention,
		Owner:     publish.Owner,
	}

	var reservation depot.Reservation
	err := c.retry.Run(ctx, "depot reservation", func(ctx context.Context) error {
		var err error
		reservation, err = c.depot.Reserve(ctx, proposal)
		return err
	})
	return reservation, err
}

// StreamPayload sends the staged CAR to the depot. A retried attempt rewinds
// and re-streams; progress reports stay monotonic through the high-water
// mark, so watchers never see bytes sent go backwards.
func (c *Coordinator) StreamPayload(ctx context.Context, publish publishing.AssetPublish, progress func(bytesSent uint64)) error {
	f, err := c.fs.Open(publish.PayloadPath)
	if err != nil {
		return xerrors.Errorf("opening staged payload: %w", err)
	}
	defer f.Close() // nolint: errcheck

	var highWater uint64
	return c.retry.Run(ctx, "payload transfer", func(ctx context.Context) error {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return xerrors.Errorf("rewinding staged payload: %w", err)
		}
		r := &progressReader{r: f, report: func(sent uint64) {
			if sent > highWater {
				highWater = sent
				progress(sent)
			}
		}}
		return c.depot.Transfer(ctx, publish.PayloadRoot, r, publish.CarSize)
	})
}

// CertifyStorage redeems the reservation receipt for a content locator.
func (c *Coordinator) CertifyStorage(ctx context.Context, publish publishing.AssetPublish) (string, error) {
	var locator string
	err := c.retry.Run(ctx, "payload certification", func(ctx context.Context) error {
		var err error
		locator, err = c.depot.Certify(ctx, publish.Receipt)
		return err
	})
	return locator, err
}

// RegisterAsset submits the asset registration transaction and returns its
// cid.
func (c *Coordinator) RegisterAsset(ctx context.Context, publish publishing.AssetPublish, locator string) (cid.Cid, error) {
	params, err := cborutil.Dump(&ledger.RegisterAssetParams{
		Asset:   publish.Asset,
		Policy:  publish.Policy,
		Digest:  publish.PayloadRoot,
		Locator: locator,
		Size:    publish.PayloadSize,
	})
	if err != nil {
		return cid.Undef, xerrors.Errorf("serializing registration params: %w", err)
	}
	tx := ledger.Transaction{
		From:   publish.Owner,
		Kind:   ledger.TxKindRegisterAsset,
		Params: params,
	}

	var receipt ledger.TxReceipt
	err = c.retry.Run(ctx, "asset registration", func(ctx context.Context) error {
		var err error
		receipt, err = c.node.SubmitTransaction(ctx, tx)
		return err
	})
	if err != nil {
		return cid.Undef, err
	}
	return receipt.TxCid, nil
}

// CompleteAssetRecord marks the local asset record certified.
func (c *Coordinator) CompleteAssetRecord(publish publishing.AssetPublish, locator string, registerTx cid.Cid) error {
	return c.assets.CompleteAsset(publish.Asset, locator, registerTx)
}

// FailAssetRecord annotates the local asset record with the terminal
// failure.
func (c *Coordinator) FailAssetRecord(publish publishing.AssetPublish) error {
	return c.assets.FailAsset(publish.Asset, publish.Message)
}

// RemoveStagedPayload deletes the staged CAR file.
func (c *Coordinator) RemoveStagedPayload(publish publishing.AssetPublish) error {
	if publish.PayloadPath == "" {
		return nil
	}
	return c.fs.Delete(publish.PayloadPath)
}

func (c *Coordinator) dispatch(eventName fsm.EventName, state fsm.StateType) {
	evt, ok := eventName.(publishing.PublishEvent)
	if !ok {
		log.Errorf("dropped bad event %v", eventName)
		return
	}
	publish, ok := state.(publishing.AssetPublish)
	if !ok {
		log.Errorf("not an AssetPublish %v", state)
		return
	}
	if err := c.pubSub.Publish(internalEvent{evt, publish}); err != nil {
		log.Errorf("failed to publish event %d", evt)
	}
}

type internalEvent struct {
	evt     publishing.PublishEvent
	publish publishing.AssetPublish
}

func publishDispatcher(evt pubsub.Event, fn pubsub.SubscriberFn) error {
	ie, ok := evt.(internalEvent)
	if !ok {
		return xerrors.New("wrong type of event")
	}
	cb, ok := fn.(publishing.Subscriber)
	if !ok {
		return xerrors.New("wrong type of callback")
	}
	cb(ie.evt, ie.publish)
	return nil
}

// PublishFSMParameterSpec is a valid set of parameters for a publish FSM - used in doc generation
var PublishFSMParameterSpec = fsm.Parameters{
	Environment:     &Coordinator{},
	StateType:       publishing.AssetPublish{},
	StateKeyField:   "Status",
	Events:          publishstates.PublishEvents,
	StateEntryFuncs: publishstates.PublishStateEntryFuncs,
	FinalityStates:  publishstates.PublishFinalityStates,
}

// progressReader counts cumulative bytes read off the staged file and
// reports after every read.
type progressReader struct {
	r      io.Reader
	sent   uint64
	report func(uint64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.sent += uint64(n)
		pr.report(pr.sent)
	}
	return n, err
}
