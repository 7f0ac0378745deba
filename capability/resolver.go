// Package capability resolves which grant, if any, entitles a holder to an
// asset. Grants live on the ledger as capability records owned by the holder;
// resolution scans the holder's records and never trusts a partial read.
package capability

import (
	"context"
	"fmt"

	"github.com/filecoin-project/go-address"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/ledger"
)

// NotFoundError reports that no capability entitles holder to asset.
type NotFoundError struct {
	Asset  ledger.AssetID
	Holder address.Address
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("no capability for asset %s held by %s", e.Asset, e.Holder)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfe NotFoundError
	return xerrors.As(err, &nfe)
}

// Resolver answers whether a holder has been granted access to an asset.
type Resolver struct {
	ledger ledger.Service
}

// NewResolver builds a Resolver on top of a ledger service.
func NewResolver(svc ledger.Service) *Resolver {
	return &Resolver{ledger: svc}
}

// Resolve returns the capability granting holder access to asset.
//
// The scan always runs to cursor exhaustion; matches on a later page are not
// missed because an earlier page had one. A record that fails to parse aborts
// resolution with the parse error rather than being skipped. Matching is
// exact field equality on asset id and holder. When several capabilities
// match, the lowest token id wins, so repeated grants resolve to the oldest
// one on every run.
func (r *Resolver) Resolve(ctx context.Context, asset ledger.AssetID, holder address.Address) (ledger.Capability, error) {
	var (
		best  ledger.Capability
		found bool
	)
	var cursor ledger.Cursor
	for {
		page, err := r.ledger.QueryOwnedCapabilities(ctx, holder, cursor)
		if err != nil {
			return ledger.Capability{}, xerrors.Errorf("querying capabilities held by %s: %w", holder, err)
		}
		for _, raw := range page.Records {
			c, err := ledger.ParseCapability(raw)
			if err != nil {
				return ledger.Capability{}, xerrors.Errorf("parsing capability record: %w", err)
			}
			if c.Asset != asset || c.Holder != holder {
				continue
			}
			if !found || c.Token < best.Token {
				best = c
				found = true
			}
		}
		if page.Next == 0 {
			break
		}
		cursor = page.Next
	}
	if !found {
		return ledger.Capability{}, NotFoundError{Asset: asset, Holder: holder}
	}
	return best, nil
}
