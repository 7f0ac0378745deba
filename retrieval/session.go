package retrieval

import (
	"fmt"
	"time"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/sealing"
)

// SessionTTLEpochs is how far past the observed chain head an authorization
// stays valid. Key servers refuse authorizations whose expiration has passed
// their own view of the head.
const SessionTTLEpochs = abi.ChainEpoch(60)

// DecryptionSession is the short lived identity of one download: a fresh
// sealing keypair shares are resealed to, plus the two expirations bounding
// its use. ExpiresAt bounds the session locally; Expiration is the epoch the
// authorization carries for servers to check.
type DecryptionSession struct {
	ID         uuid.UUID
	Expiration abi.ChainEpoch
	ExpiresAt  time.Time

	keypair *sealing.Keypair
}

// SessionExpiredError means a session lapsed before its download finished.
// The download fails closed; the stale session key is not used to request or
// unseal anything further.
type SessionExpiredError struct {
	ID uuid.UUID
}

func (e SessionExpiredError) Error() string {
	return fmt.Sprintf("decryption session %s expired", e.ID)
}

// IsSessionExpired checks if an error indicates a lapsed session
func IsSessionExpired(err error) bool {
	var se SessionExpiredError
	return xerrors.As(err, &se)
}

// NewDecryptionSession draws a fresh session keypair good for ttl of local
// use, with its authorization expiration anchored at the given chain head.
func NewDecryptionSession(head abi.ChainEpoch, ttl time.Duration) (*DecryptionSession, error) {
	keypair, err := sealing.GenerateKeypair()
	if err != nil {
		return nil, xerrors.Errorf("establishing decryption session: %w", err)
	}
	return &DecryptionSession{
		ID:         uuid.New(),
		Expiration: head + SessionTTLEpochs,
		ExpiresAt:  time.Now().Add(ttl),
		keypair:    keypair,
	}, nil
}

// PublicKey returns the session public sealing key servers reseal shares to.
func (s *DecryptionSession) PublicKey() []byte {
	return s.keypair.PublicBytes()
}

// Unseal opens a share sealed to the session key.
func (s *DecryptionSession) Unseal(sealed []byte) ([]byte, error) {
	return s.keypair.Unseal(sealed)
}

// CheckLive fails once the session has lapsed. It runs before any share is
// requested and again before reconstruction, so a stale session key is never
// used for either.
func (s *DecryptionSession) CheckLive() error {
	if time.Now().After(s.ExpiresAt) {
		return SessionExpiredError{ID: s.ID}
	}
	return nil
}
