package sealing

import (
	"fmt"

	"github.com/libp2p/go-libp2p-core/peer"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/policy"
)

//go:generate cbor-gen-for SealedPayload KeyFragment

// EnvelopeVersion is the current sealed payload wire version.
const EnvelopeVersion = 1

// MaxPayloadLen caps the plaintext a single envelope may carry.
const MaxPayloadLen = 64 << 20

// MaxShareCount caps how many key servers one policy can be split across.
const MaxShareCount = 64

// SealingKeyLen is the length of a server or session public sealing key.
const SealingKeyLen = 32

// shareSecretLen is an unsealed share: id scalar ++ value scalar.
const shareSecretLen = 64

// ServerKey identifies a key server and its public sealing key at encrypt
// time.
type ServerKey struct {
	ID         peer.ID
	SealingKey []byte
}

// SealedPayload is the ciphertext envelope: the symmetrically sealed body
// plus one sealed key fragment per server. It travels with the payload, so
// key servers stay stateless per policy.
type SealedPayload struct {
	Version    uint64
	Policy     policy.ID
	Threshold  uint64
	ShareCount uint64
	Fragments  []KeyFragment
	Nonce      []byte
	Body       []byte
}

// KeyFragment carries one server's share of the master key, sealed to that
// server's sealing key. Index mirrors the share's scalar id (1-based).
type KeyFragment struct {
	Index  uint64
	Server peer.ID
	Sealed []byte
}

// RawShare is an unsealed share as exchanged between a key server and a
// decryption session.
type RawShare struct {
	Index  uint64
	Secret []byte
}

// EncryptionError reports a failure to seal a payload. It never carries key
// material; messages are structural only.
type EncryptionError struct {
	Reason string
}

func (e EncryptionError) Error() string {
	return fmt.Sprintf("encrypting payload: %s", e.Reason)
}

// IsEncryptionError reports whether err is an EncryptionError.
func IsEncryptionError(err error) bool {
	var ee EncryptionError
	return xerrors.As(err, &ee)
}

// DecryptionError reports a failure to recover a payload. Decryption fails
// closed: no partial plaintext is ever returned alongside one.
type DecryptionError struct {
	Reason string
}

func (e DecryptionError) Error() string {
	return fmt.Sprintf("decrypting payload: %s", e.Reason)
}

// IsDecryptionError reports whether err is a DecryptionError.
func IsDecryptionError(err error) bool {
	var de DecryptionError
	return xerrors.As(err, &de)
}

// MaxOverhead bounds the envelope size beyond the plaintext for a split
// across n servers: a fixed header cost plus a fixed per-fragment cost,
// independent of payload size.
func MaxOverhead(n uint64) uint64 {
	return 256 + 256*n
}
