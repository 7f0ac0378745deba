package shared_testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/ipfs/go-cid"
	"github.com/ipld/go-car"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/depot"
	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/shared"
)

// FakeDepot is an in-memory depot.Service honoring the reserve, transfer,
// certify handshake. Reservations are idempotent per payload digest, a
// transfer must parse as a CAR stream rooted at the reserved digest, and only
// certified payloads are readable back through their locator.
type FakeDepot struct {
	lk           sync.Mutex
	reservations map[cid.Cid]*fakeReservation
	receipts     map[string]cid.Cid
	contents     map[string][]byte

	reserveCalls     map[cid.Cid]int
	transferAttempts int

	reserveTransient  int
	transferTransient int
	certifyTransient  int
	rejection         *ledger.RejectionError
	digestOverride    *cid.Cid
}

type fakeReservation struct {
	proposal    depot.ReserveProposal
	receipt     []byte
	transferred []byte
	locator     string
}

// NewFakeDepot constructs an empty depot
func NewFakeDepot() *FakeDepot {
	return &FakeDepot{
		reservations: make(map[cid.Cid]*fakeReservation),
		receipts:     make(map[string]cid.Cid),
		contents:     make(map[string][]byte),
		reserveCalls: make(map[cid.Cid]int),
	}
}

var _ depot.Service = &FakeDepot{}

// FailNextReserves makes the next n Reserve calls fail with a transient error
func (f *FakeDepot) FailNextReserves(n int) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.reserveTransient = n
}

// FailNextTransfers makes the next n Transfer calls fail with a transient
// error before consuming the payload stream
func (f *FakeDepot) FailNextTransfers(n int) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.transferTransient = n
}

// FailNextCertifies makes the next n Certify calls fail with a transient error
func (f *FakeDepot) FailNextCertifies(n int) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.certifyTransient = n
}

// RejectNextReserve makes the next Reserve call fail with a permanent
// rejection carrying the given exit code and reason
func (f *FakeDepot) RejectNextReserve(code exitcode.ExitCode, reason string) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.rejection = &ledger.RejectionError{Code: code, Reason: reason}
}

// OverrideDigest makes subsequent reservations report the given digest
// instead of echoing the proposed payload digest
func (f *FakeDepot) OverrideDigest(c cid.Cid) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.digestOverride = &c
}

// ReserveCalls reports how many times a reservation was requested for a digest
func (f *FakeDepot) ReserveCalls(digest cid.Cid) int {
	f.lk.Lock()
	defer f.lk.Unlock()
	return f.reserveCalls[digest]
}

// TransferAttempts reports how many Transfer calls were made in total
func (f *FakeDepot) TransferAttempts() int {
	f.lk.Lock()
	defer f.lk.Unlock()
	return f.transferAttempts
}

// Content returns the certified bytes stored under a locator
func (f *FakeDepot) Content(locator string) ([]byte, bool) {
	f.lk.Lock()
	defer f.lk.Unlock()
	data, ok := f.contents[locator]
	return data, ok
}

// Expire drops the content stored under a locator, simulating lapsed retention
func (f *FakeDepot) Expire(locator string) {
	f.lk.Lock()
	defer f.lk.Unlock()
	delete(f.contents, locator)
}

// Reserve escrows storage for the proposal. Repeating a proposal for an
// already reserved digest returns the original receipt without charging again.
func (f *FakeDepot) Reserve(ctx context.Context, proposal depot.ReserveProposal) (depot.Reservation, error) {
	f.lk.Lock()
	defer f.lk.Unlock()

	if f.reserveTransient > 0 {
		f.reserveTransient--
		return depot.Reservation{}, shared.TransientError{Cause: fmt.Errorf("depot unavailable")}
	}
	if f.rejection != nil {
		rejection := f.rejection
		f.rejection = nil
		return depot.Reservation{}, rejection
	}

	f.reserveCalls[proposal.Payload]++

	digest := proposal.Payload
	if f.digestOverride != nil {
		digest = *f.digestOverride
	}

	if existing, ok := f.reservations[proposal.Payload]; ok {
		return depot.Reservation{Digest: digest, Receipt: existing.receipt}, nil
	}

	receipt := []byte("depot-claim:" + proposal.Payload.String())
	f.reservations[proposal.Payload] = &fakeReservation{proposal: proposal, receipt: receipt}
	f.receipts[string(receipt)] = proposal.Payload
	return depot.Reservation{Digest: digest, Receipt: receipt}, nil
}

// Transfer consumes the payload stream for a reserved digest. The bytes must
// parse as a CAR whose single root equals the digest and whose length equals
// the declared size.
func (f *FakeDepot) Transfer(ctx context.Context, digest cid.Cid, payload io.Reader, size uint64) error {
	f.lk.Lock()
	defer f.lk.Unlock()

	f.transferAttempts++
	if f.transferTransient > 0 {
		f.transferTransient--
		return shared.TransientError{Cause: fmt.Errorf("depot stream reset")}
	}

	res, ok := f.reservations[digest]
	if !ok {
		return xerrors.Errorf("no reservation for digest %s", digest)
	}

	data, err := io.ReadAll(payload)
	if err != nil {
		return err
	}
	if uint64(len(data)) != size {
		return xerrors.Errorf("transferred %d bytes, declared %d", len(data), size)
	}

	ch, err := car.NewCarReader(bytes.NewReader(data))
	if err != nil {
		return xerrors.Errorf("parsing transferred payload: %w", err)
	}
	if len(ch.Header.Roots) != 1 || !ch.Header.Roots[0].Equals(digest) {
		return xerrors.Errorf("transferred payload roots %v do not match reserved digest %s", ch.Header.Roots, digest)
	}

	res.transferred = data
	return nil
}

// Certify redeems a receipt for a locator once the payload has been
// transferred. Redeeming the same receipt again returns the same locator.
func (f *FakeDepot) Certify(ctx context.Context, receipt []byte) (string, error) {
	f.lk.Lock()
	defer f.lk.Unlock()

	if f.certifyTransient > 0 {
		f.certifyTransient--
		return "", shared.TransientError{Cause: fmt.Errorf("depot unavailable")}
	}

	digest, ok := f.receipts[string(receipt)]
	if !ok {
		return "", xerrors.Errorf("unknown depot receipt %q", receipt)
	}
	res := f.reservations[digest]
	if len(res.transferred) == 0 {
		return "", xerrors.Errorf("no payload transferred for digest %s", digest)
	}
	if res.locator == "" {
		res.locator = "objects/" + digest.String()
		f.contents[res.locator] = res.transferred
	}
	return res.locator, nil
}

// ReadByLocator returns the certified bytes stored under a locator
func (f *FakeDepot) ReadByLocator(ctx context.Context, locator string) (io.ReadCloser, error) {
	f.lk.Lock()
	defer f.lk.Unlock()

	data, ok := f.contents[locator]
	if !ok {
		return nil, &depot.ContentUnavailableError{Locator: locator}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
