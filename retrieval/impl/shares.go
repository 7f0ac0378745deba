package retrievalimpl

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/libp2p/go-libp2p-core/peer"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/keyshare"
	"github.com/portus-project/go-asset-vault/retrieval"
	"github.com/portus-project/go-asset-vault/sealing"
	"github.com/portus-project/go-asset-vault/shared"
)

type shareResult struct {
	share sealing.RawShare
	err   error
}

// gatherShares fans one request out per fragment. Dispatch is concurrent; the
// merge takes granted shares in arrival order until the threshold is met,
// then cancels the rest. Falling short returns a ThresholdNotMetError
// aggregating every server failure behind the shortfall.
func (c *Coordinator) gatherShares(ctx context.Context, session *retrieval.DecryptionSession, env *sealing.SealedPayload, auth []byte, state *retrieval.AssetRetrieval) ([]sealing.RawShare, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan shareResult)
	for _, fragment := range env.Fragments {
		fragment := fragment
		go func() {
			share, err := c.requestShare(ctx, session, env, fragment, auth)
			select {
			case results <- shareResult{share: share, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	var shares []sealing.RawShare
	var errs *multierror.Error
	for range env.Fragments {
		var result shareResult
		select {
		case result = <-results:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if result.err != nil {
			errs = multierror.Append(errs, result.err)
			continue
		}
		shares = append(shares, result.share)
		state.SharesGranted = uint64(len(shares))
		c.publishEvent(retrieval.RetrievalEventShareReceived, *state)
		if uint64(len(shares)) == env.Threshold {
			return shares, nil
		}
	}
	return nil, &retrieval.ThresholdNotMetError{
		Granted:  uint64(len(shares)),
		Required: env.Threshold,
		Errs:     errs.ErrorOrNil(),
	}
}

// requestShare asks the fragment's server for its share and unseals it to the
// session. Transient faults retry through the retry policy; a denial is
// final.
func (c *Coordinator) requestShare(ctx context.Context, session *retrieval.DecryptionSession, env *sealing.SealedPayload, fragment sealing.KeyFragment, auth []byte) (sealing.RawShare, error) {
	info, err := c.registry.Get(fragment.Server)
	if err != nil {
		return sealing.RawShare{}, xerrors.Errorf("key server %s is not registered: %w", fragment.Server, err)
	}
	addrs, err := info.Multiaddrs()
	if err != nil {
		return sealing.RawShare{}, err
	}
	c.net.AddAddrs(info.ID, addrs)

	req := keyshare.ShareRequest{
		Policy:        env.Policy,
		FragmentIndex: fragment.Index,
		Fragment:      fragment.Sealed,
		AuthTx:        auth,
		SessionKey:    session.PublicKey(),
		Threshold:     env.Threshold,
	}

	var resp keyshare.ShareResponse
	err = c.retry.Run(ctx, fmt.Sprintf("share request to %s", fragment.Server), func(ctx context.Context) error {
		var err error
		resp, err = c.exchange(ctx, fragment.Server, req)
		return err
	})
	if err != nil {
		return sealing.RawShare{}, err
	}

	switch resp.Status {
	case keyshare.ShareStatusGranted:
	case keyshare.ShareStatusDenied:
		return sealing.RawShare{}, xerrors.Errorf("server %s denied share %d: %s", fragment.Server, fragment.Index, resp.Message)
	default:
		return sealing.RawShare{}, xerrors.Errorf("server %s sent a malformed response for share %d", fragment.Server, fragment.Index)
	}
	if resp.Index != fragment.Index {
		return sealing.RawShare{}, xerrors.Errorf("server %s answered for share %d, requested %d", fragment.Server, resp.Index, fragment.Index)
	}
	secret, err := session.Unseal(resp.Share)
	if err != nil {
		return sealing.RawShare{}, xerrors.Errorf("unsealing share %d from %s: %w", fragment.Index, fragment.Server, err)
	}
	return sealing.RawShare{Index: fragment.Index, Secret: secret}, nil
}

// exchange performs one request and response on a fresh stream. Stream faults
// and errored verdicts are transient; the server may serve a later attempt.
func (c *Coordinator) exchange(ctx context.Context, server peer.ID, req keyshare.ShareRequest) (keyshare.ShareResponse, error) {
	stream, err := c.net.NewShareStream(ctx, server)
	if err != nil {
		return keyshare.ShareResponseUndefined, shared.TransientError{Cause: err}
	}
	defer stream.Close() // nolint: errcheck

	if err := stream.WriteShareRequest(req); err != nil {
		return keyshare.ShareResponseUndefined, shared.TransientError{Cause: err}
	}
	resp, err := stream.ReadShareResponse()
	if err != nil {
		return keyshare.ShareResponseUndefined, shared.TransientError{Cause: err}
	}
	if resp.Status == keyshare.ShareStatusErrored {
		return keyshare.ShareResponseUndefined, shared.TransientError{Cause: xerrors.Errorf("server error: %s", resp.Message)}
	}
	return resp, nil
}
