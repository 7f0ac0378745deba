package ledger

import (
	"bytes"

	"github.com/filecoin-project/go-address"
	cborutil "github.com/filecoin-project/go-cbor-util"
	"golang.org/x/xerrors"
)

// Ledger records are loosely typed CBOR. The parsers here are the only path
// from a RawRecord to a usable struct: wrong arity, truncated input, trailing
// bytes, and zero values in required fields are all errors, never defaulted.

const sessionKeyLen = 32

// ParseAsset validates and decodes an asset record.
func ParseAsset(raw RawRecord) (Asset, error) {
	var a Asset
	r := bytes.NewReader(raw)
	if err := a.UnmarshalCBOR(r); err != nil {
		return Asset{}, xerrors.Errorf("decoding asset record: %w", err)
	}
	if r.Len() > 0 {
		return Asset{}, xerrors.Errorf("asset record: %d trailing bytes", r.Len())
	}
	if a.ID == "" {
		return Asset{}, xerrors.New("asset record: missing id")
	}
	if !a.Policy.Defined() {
		return Asset{}, xerrors.New("asset record: missing policy")
	}
	if a.Owner == address.Undef {
		return Asset{}, xerrors.New("asset record: missing owner")
	}
	if !a.Digest.Defined() {
		return Asset{}, xerrors.New("asset record: missing digest")
	}
	return a, nil
}

// ParseCapability validates and decodes a capability record.
func ParseCapability(raw RawRecord) (Capability, error) {
	var c Capability
	r := bytes.NewReader(raw)
	if err := c.UnmarshalCBOR(r); err != nil {
		return Capability{}, xerrors.Errorf("decoding capability record: %w", err)
	}
	if r.Len() > 0 {
		return Capability{}, xerrors.Errorf("capability record: %d trailing bytes", r.Len())
	}
	if c.Token == 0 {
		return Capability{}, xerrors.New("capability record: missing token id")
	}
	if c.Asset == "" {
		return Capability{}, xerrors.New("capability record: missing asset id")
	}
	if c.Holder == address.Undef {
		return Capability{}, xerrors.New("capability record: missing holder")
	}
	return c, nil
}

// BuildAuthorization serializes an authorization payload for transport to
// key share servers.
func BuildAuthorization(params *AuthorizationParams) ([]byte, error) {
	return cborutil.Dump(params)
}

// ParseAuthorization validates and decodes an authorization payload on the
// serving side.
func ParseAuthorization(raw []byte) (AuthorizationParams, error) {
	var p AuthorizationParams
	r := bytes.NewReader(raw)
	if err := p.UnmarshalCBOR(r); err != nil {
		return AuthorizationParams{}, xerrors.Errorf("decoding authorization: %w", err)
	}
	if r.Len() > 0 {
		return AuthorizationParams{}, xerrors.Errorf("authorization: %d trailing bytes", r.Len())
	}
	if p.Asset == "" {
		return AuthorizationParams{}, xerrors.New("authorization: missing asset id")
	}
	if !p.Policy.Defined() {
		return AuthorizationParams{}, xerrors.New("authorization: missing policy")
	}
	if p.Holder == address.Undef {
		return AuthorizationParams{}, xerrors.New("authorization: missing holder")
	}
	if len(p.SessionKey) != sessionKeyLen {
		return AuthorizationParams{}, xerrors.Errorf("authorization: session key must be %d bytes, got %d", sessionKeyLen, len(p.SessionKey))
	}
	if p.Expiration <= 0 {
		return AuthorizationParams{}, xerrors.New("authorization: missing expiration")
	}
	return p, nil
}
