// Package sealing seals asset payloads under a bound policy and splits the
// master key across independent key servers in a threshold scheme. It is
// pure computation: nothing here touches the network.
//
// The construction: a random ristretto255 scalar is the master secret. The
// data key is HKDF-SHA256(master, salt=policy id), and the payload is sealed
// with AES-256-GCM using the policy id as associated data. The master scalar
// is Shamir-split so that any Threshold shares recover it, and each share is
// sealed to one server's X25519 key with an anonymous box.
package sealing

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/cloudflare/circl/group"
	"github.com/cloudflare/circl/secretsharing"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/policy"
)

const dekInfo = "go-asset-vault/dek/v1"

var sharingGroup = group.Ristretto255

// Encrypt seals plaintext under policyID, splitting the master key across
// the given servers so that any threshold of them can authorize recovery.
// The server list order fixes fragment indices.
func Encrypt(plaintext []byte, policyID policy.ID, threshold uint64, servers []ServerKey) (*SealedPayload, error) {
	if !policyID.Defined() {
		return nil, EncryptionError{Reason: "policy id is not set"}
	}
	if len(plaintext) > MaxPayloadLen {
		return nil, EncryptionError{Reason: "payload exceeds maximum size"}
	}
	n := uint64(len(servers))
	if n == 0 {
		return nil, EncryptionError{Reason: "no key servers"}
	}
	if n > MaxShareCount {
		return nil, EncryptionError{Reason: "too many key servers"}
	}
	if threshold < 1 || threshold > n {
		return nil, EncryptionError{Reason: "threshold must be between 1 and the server count"}
	}
	for _, s := range servers {
		if len(s.SealingKey) != SealingKeyLen {
			return nil, EncryptionError{Reason: "malformed server sealing key"}
		}
	}

	master := sharingGroup.RandomScalar(rand.Reader)
	ss := secretsharing.New(rand.Reader, uint(threshold-1), master)
	shares := ss.Share(uint(n))

	dek, err := deriveDataKey(master, policyID)
	if err != nil {
		return nil, EncryptionError{Reason: "deriving data key"}
	}
	aead, err := newPayloadAEAD(dek)
	if err != nil {
		return nil, EncryptionError{Reason: "initializing cipher"}
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, EncryptionError{Reason: "reading nonce randomness"}
	}
	body := aead.Seal(nil, nonce, plaintext, policyID.Bytes())

	fragments := make([]KeyFragment, 0, n)
	for i, share := range shares {
		secret, err := marshalShare(share)
		if err != nil {
			return nil, EncryptionError{Reason: "encoding key share"}
		}
		sealed, err := SealTo(servers[i].SealingKey, secret)
		if err != nil {
			return nil, EncryptionError{Reason: "sealing key fragment"}
		}
		fragments = append(fragments, KeyFragment{
			Index:  uint64(i + 1),
			Server: servers[i].ID,
			Sealed: sealed,
		})
	}

	return &SealedPayload{
		Version:    EnvelopeVersion,
		Policy:     policyID,
		Threshold:  threshold,
		ShareCount: n,
		Fragments:  fragments,
		Nonce:      nonce,
		Body:       body,
	}, nil
}

// Decrypt recovers the plaintext from an envelope given at least Threshold
// distinct unsealed shares. Any authentication failure fails closed.
func Decrypt(env *SealedPayload, shares []RawShare) ([]byte, error) {
	if env == nil {
		return nil, DecryptionError{Reason: "no envelope"}
	}
	if env.Version != EnvelopeVersion {
		return nil, DecryptionError{Reason: "unsupported envelope version"}
	}
	if !env.Policy.Defined() {
		return nil, DecryptionError{Reason: "envelope has no policy id"}
	}

	distinct := make([]secretsharing.Share, 0, env.Threshold)
	seen := make(map[uint64]struct{}, len(shares))
	for _, share := range shares {
		if _, dup := seen[share.Index]; dup {
			continue
		}
		parsed, err := unmarshalShare(share.Secret)
		if err != nil {
			return nil, DecryptionError{Reason: "malformed key share"}
		}
		seen[share.Index] = struct{}{}
		distinct = append(distinct, parsed)
		if uint64(len(distinct)) == env.Threshold {
			break
		}
	}
	if uint64(len(distinct)) < env.Threshold {
		return nil, DecryptionError{Reason: "not enough distinct key shares"}
	}

	master, err := secretsharing.Recover(uint(env.Threshold-1), distinct)
	if err != nil {
		return nil, DecryptionError{Reason: "reconstructing master key"}
	}
	dek, err := deriveDataKey(master, env.Policy)
	if err != nil {
		return nil, DecryptionError{Reason: "deriving data key"}
	}
	aead, err := newPayloadAEAD(dek)
	if err != nil {
		return nil, DecryptionError{Reason: "initializing cipher"}
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, DecryptionError{Reason: "malformed envelope nonce"}
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Body, env.Policy.Bytes())
	if err != nil {
		return nil, DecryptionError{Reason: "payload authentication failed"}
	}
	return plaintext, nil
}

func deriveDataKey(master group.Scalar, policyID policy.ID) ([]byte, error) {
	masterBytes, err := master.MarshalBinary()
	if err != nil {
		return nil, err
	}
	dek := make([]byte, 32)
	kdf := hkdf.New(sha256.New, masterBytes, policyID.Bytes(), []byte(dekInfo))
	if _, err := io.ReadFull(kdf, dek); err != nil {
		return nil, err
	}
	return dek, nil
}

func newPayloadAEAD(dek []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func marshalShare(s secretsharing.Share) ([]byte, error) {
	id, err := s.ID.MarshalBinary()
	if err != nil {
		return nil, err
	}
	value, err := s.Value.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(id, value...), nil
}

func unmarshalShare(secret []byte) (secretsharing.Share, error) {
	if len(secret) != shareSecretLen {
		return secretsharing.Share{}, xerrors.Errorf("share secret must be %d bytes", shareSecretLen)
	}
	id := sharingGroup.NewScalar()
	if err := id.UnmarshalBinary(secret[:shareSecretLen/2]); err != nil {
		return secretsharing.Share{}, xerrors.Errorf("decoding share id: %w", err)
	}
	value := sharingGroup.NewScalar()
	if err := value.UnmarshalBinary(secret[shareSecretLen/2:]); err != nil {
		return secretsharing.Share{}, xerrors.Errorf("decoding share value: %w", err)
	}
	return secretsharing.Share{ID: id, Value: value}, nil
}

// Keypair is an X25519 sealing keypair, used both by key servers (to receive
// fragments) and by decryption sessions (to receive shares).
type Keypair struct {
	public *[32]byte
	secret *[32]byte
}

// GenerateKeypair draws a fresh sealing keypair.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, xerrors.Errorf("generating sealing keypair: %w", err)
	}
	return &Keypair{public: pub, secret: priv}, nil
}

// PublicBytes returns the public sealing key.
func (k *Keypair) PublicBytes() []byte {
	out := make([]byte, SealingKeyLen)
	copy(out, k.public[:])
	return out
}

// Unseal opens an anonymous box addressed to this keypair. The error carries
// no detail beyond the failure itself.
func (k *Keypair) Unseal(sealed []byte) ([]byte, error) {
	msg, ok := box.OpenAnonymous(nil, sealed, k.public, k.secret)
	if !ok {
		return nil, xerrors.New("sealed box authentication failed")
	}
	return msg, nil
}

// SealTo seals msg to a 32-byte public sealing key with an anonymous box.
func SealTo(recipient []byte, msg []byte) ([]byte, error) {
	if len(recipient) != SealingKeyLen {
		return nil, xerrors.Errorf("recipient key must be %d bytes", SealingKeyLen)
	}
	var pub [32]byte
	copy(pub[:], recipient)
	sealed, err := box.SealAnonymous(nil, msg, &pub, rand.Reader)
	if err != nil {
		return nil, xerrors.Errorf("sealing to recipient: %w", err)
	}
	return sealed, nil
}
