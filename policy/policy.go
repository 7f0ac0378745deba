// Package policy derives the identifiers that bind an asset's access policy.
// A policy id commits to an access scope and a fresh nonce; every publish
// binds a new policy so that revocation and key distribution stay per-asset.
package policy

import (
	"crypto/rand"
	"fmt"
	"io"

	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/xerrors"

	"github.com/multiformats/go-multibase"
	mh "github.com/multiformats/go-multihash"
)

// MinNonceLen is the smallest nonce Bind accepts, in bytes. Anything shorter
// makes policy ids enumerable within a scope.
const MinNonceLen = 5

// DefaultNonceLen is the nonce size NewNonce generates.
const DefaultNonceLen = 16

// IDLen is the length of a policy id in bytes (a SHA2-256 digest).
const IDLen = 32

// ScopeID labels the access scope a policy is bound under. Opaque to this
// package beyond being non-empty.
type ScopeID string

// ID identifies a bound policy: the SHA2-256 multihash digest over the scope
// bytes followed by the nonce.
type ID [IDLen]byte

// Undef is the zero policy id.
var Undef = ID{}

// InvalidScopeError is returned by Bind when the scope or nonce cannot
// produce a well-formed policy id.
type InvalidScopeError struct {
	Reason string
}

func (e InvalidScopeError) Error() string {
	return fmt.Sprintf("invalid policy scope: %s", e.Reason)
}

// IsInvalidScope reports whether err is an InvalidScopeError.
func IsInvalidScope(err error) bool {
	var ise InvalidScopeError
	return xerrors.As(err, &ise)
}

// Bind derives the policy id for the given scope and nonce. It is
// deterministic in its inputs; uniqueness of ids comes from nonce freshness.
func Bind(scope ScopeID, nonce []byte) (ID, error) {
	if len(scope) == 0 {
		return Undef, InvalidScopeError{Reason: "scope must not be empty"}
	}
	if len(nonce) < MinNonceLen {
		return Undef, InvalidScopeError{Reason: fmt.Sprintf("nonce must be at least %d bytes, got %d", MinNonceLen, len(nonce))}
	}

	buf := make([]byte, 0, len(scope)+len(nonce))
	buf = append(buf, scope...)
	buf = append(buf, nonce...)

	sum, err := mh.Sum(buf, mh.SHA2_256, -1)
	if err != nil {
		return Undef, xerrors.Errorf("hashing policy binding: %w", err)
	}
	dec, err := mh.Decode(sum)
	if err != nil {
		return Undef, xerrors.Errorf("decoding policy digest: %w", err)
	}

	var id ID
	copy(id[:], dec.Digest)
	return id, nil
}

// NewNonce draws a fresh random nonce of DefaultNonceLen bytes.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, DefaultNonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, xerrors.Errorf("reading nonce randomness: %w", err)
	}
	return nonce, nil
}

// Defined reports whether the id is set.
func (id ID) Defined() bool {
	return id != Undef
}

// Bytes returns the raw digest bytes.
func (id ID) Bytes() []byte {
	return id[:]
}

// FromBytes parses a policy id from its raw digest bytes.
func FromBytes(b []byte) (ID, error) {
	if len(b) != IDLen {
		return Undef, xerrors.Errorf("policy id must be %d bytes, got %d", IDLen, len(b))
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// String renders the id in base32 multibase. Policy ids key the publish state
// machine, so this doubles as the datastore key form.
func (id ID) String() string {
	s, err := multibase.Encode(multibase.Base32, id[:])
	if err != nil {
		// the base32 encoder cannot fail on a fixed-length input
		panic(err)
	}
	return s
}

// Parse decodes a policy id from its multibase string form.
func Parse(s string) (ID, error) {
	_, b, err := multibase.Decode(s)
	if err != nil {
		return Undef, xerrors.Errorf("decoding policy id: %w", err)
	}
	return FromBytes(b)
}

// MarshalCBOR encodes the id as a CBOR byte string.
func (id *ID) MarshalCBOR(w io.Writer) error {
	header := cbg.CborEncodeMajorType(cbg.MajByteString, uint64(IDLen))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(id[:]); err != nil {
		return err
	}
	return nil
}

// UnmarshalCBOR decodes the id from a CBOR byte string.
func (id *ID) UnmarshalCBOR(br io.Reader) error {
	maj, extra, err := cbg.CborReadHeader(br)
	if err != nil {
		return err
	}
	if maj != cbg.MajByteString {
		return fmt.Errorf("cbor input for policy id was not a byte string (%x)", maj)
	}
	if extra != IDLen {
		return fmt.Errorf("policy id must be %d bytes, got %d", IDLen, extra)
	}
	if _, err := io.ReadFull(br, id[:]); err != nil {
		return err
	}
	return nil
}
