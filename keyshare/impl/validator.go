package keyshareimpl

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/capability"
	"github.com/portus-project/go-asset-vault/keyshare"
	"github.com/portus-project/go-asset-vault/ledger"
)

// ChainValidator validates authorization payloads against the live ledger:
// the authorization must not have expired, the holder must own a capability
// for the asset, and the asset must be bound to the authorized policy.
type ChainValidator struct {
	ledger   ledger.Service
	resolver *capability.Resolver
}

var _ keyshare.AccessValidator = (*ChainValidator)(nil)

// NewChainValidator builds a validator on top of a ledger service.
func NewChainValidator(svc ledger.Service) *ChainValidator {
	return &ChainValidator{
		ledger:   svc,
		resolver: capability.NewResolver(svc),
	}
}

// ValidateAccess implements keyshare.AccessValidator.
func (v *ChainValidator) ValidateAccess(ctx context.Context, auth ledger.AuthorizationParams) error {
	_, head, err := v.ledger.GetChainHead(ctx)
	if err != nil {
		return xerrors.Errorf("getting chain head: %w", err)
	}
	if auth.Expiration <= head {
		return xerrors.Errorf("authorization expired at epoch %d, chain head is %d", auth.Expiration, head)
	}

	if _, err := v.resolver.Resolve(ctx, auth.Asset, auth.Holder); err != nil {
		return xerrors.Errorf("resolving capability: %w", err)
	}

	record, err := v.ledger.GetAsset(ctx, auth.Asset)
	if err != nil {
		return xerrors.Errorf("fetching asset %s: %w", auth.Asset, err)
	}
	asset, err := ledger.ParseAsset(record)
	if err != nil {
		return xerrors.Errorf("parsing asset %s: %w", auth.Asset, err)
	}
	if asset.Policy != auth.Policy {
		return xerrors.Errorf("asset %s is not bound to the authorized policy", auth.Asset)
	}
	return nil
}
