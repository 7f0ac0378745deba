package shared_testutil

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/filecoin-project/go-address"
	cborutil "github.com/filecoin-project/go-cbor-util"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/exitcode"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/shared"
)

// FakeLedger is an in-memory ledger.Service. Transactions apply synchronously
// against held balances, asset records and capability grants. Capability
// pages are deliberately small so every scan exercises pagination.
type FakeLedger struct {
	lk sync.Mutex

	epoch     abi.ChainEpoch
	pageSize  int
	nextToken uint64

	balances     map[address.Address]abi.TokenAmount
	assets       map[ledger.AssetID]ledger.Asset
	capabilities map[address.Address][]ledger.Capability
	garbage      map[address.Address][]ledger.RawRecord

	submitted       []ledger.Transaction
	submitTransient int
	queryTransient  int
	rejectNext      *ledger.RejectionError
}

var _ ledger.Service = (*FakeLedger)(nil)

// NewFakeLedger returns a ledger at epoch 100 with two-record capability
// pages and no balances tracked (untracked owners never run out of funds).
func NewFakeLedger() *FakeLedger {
	return &FakeLedger{
		epoch:        100,
		pageSize:     2,
		nextToken:    1,
		balances:     map[address.Address]abi.TokenAmount{},
		assets:       map[ledger.AssetID]ledger.Asset{},
		capabilities: map[address.Address][]ledger.Capability{},
		garbage:      map[address.Address][]ledger.RawRecord{},
	}
}

// SetEpoch moves the chain head.
func (f *FakeLedger) SetEpoch(e abi.ChainEpoch) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.epoch = e
}

// SetBalance starts tracking funds for addr.
func (f *FakeLedger) SetBalance(addr address.Address, amt abi.TokenAmount) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.balances[addr] = amt
}

// Balance reports the tracked funds for addr.
func (f *FakeLedger) Balance(addr address.Address) abi.TokenAmount {
	f.lk.Lock()
	defer f.lk.Unlock()
	amt, ok := f.balances[addr]
	if !ok {
		return big.Zero()
	}
	return amt
}

// FailNextSubmits makes the next n SubmitTransaction calls fail transiently.
func (f *FakeLedger) FailNextSubmits(n int) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.submitTransient = n
}

// FailNextQueries makes the next n QueryOwnedCapabilities calls fail
// transiently.
func (f *FakeLedger) FailNextQueries(n int) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.queryTransient = n
}

// RejectNextSubmit makes the next SubmitTransaction call fail with a ledger
// rejection carrying exactly this code and reason.
func (f *FakeLedger) RejectNextSubmit(code exitcode.ExitCode, reason string) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.rejectNext = &ledger.RejectionError{Code: code, Reason: reason}
}

// InjectGarbageRecord appends an unparseable record to the holder's
// capability stream.
func (f *FakeLedger) InjectGarbageRecord(holder address.Address, raw []byte) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.garbage[holder] = append(f.garbage[holder], raw)
}

// Grant mints a capability for holder on asset, bypassing the transaction
// path. Tokens are issued sequentially from 1.
func (f *FakeLedger) Grant(asset ledger.AssetID, holder address.Address) ledger.Capability {
	f.lk.Lock()
	defer f.lk.Unlock()
	return f.grantLocked(asset, holder)
}

// AddCapability inserts a capability record verbatim, token and all.
func (f *FakeLedger) AddCapability(c ledger.Capability) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.capabilities[c.Holder] = append(f.capabilities[c.Holder], c)
}

// SeedAsset inserts an asset record directly.
func (f *FakeLedger) SeedAsset(a ledger.Asset) {
	f.lk.Lock()
	defer f.lk.Unlock()
	f.assets[a.ID] = a
}

// Asset returns the stored record for id, if any.
func (f *FakeLedger) Asset(id ledger.AssetID) (ledger.Asset, bool) {
	f.lk.Lock()
	defer f.lk.Unlock()
	a, ok := f.assets[id]
	return a, ok
}

// Submitted returns every transaction accepted so far.
func (f *FakeLedger) Submitted() []ledger.Transaction {
	f.lk.Lock()
	defer f.lk.Unlock()
	out := make([]ledger.Transaction, len(f.submitted))
	copy(out, f.submitted)
	return out
}

// SubmittedKinds returns the kinds of accepted transactions in order.
func (f *FakeLedger) SubmittedKinds() []ledger.TxKind {
	f.lk.Lock()
	defer f.lk.Unlock()
	kinds := make([]ledger.TxKind, 0, len(f.submitted))
	for _, tx := range f.submitted {
		kinds = append(kinds, tx.Kind)
	}
	return kinds
}

func (f *FakeLedger) grantLocked(asset ledger.AssetID, holder address.Address) ledger.Capability {
	c := ledger.Capability{
		Token:  f.nextToken,
		Asset:  asset,
		Holder: holder,
		Issued: f.epoch,
	}
	f.nextToken++
	f.capabilities[holder] = append(f.capabilities[holder], c)
	return c
}

// GetChainHead implements ledger.Service.
func (f *FakeLedger) GetChainHead(ctx context.Context) (shared.TipSetToken, abi.ChainEpoch, error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	return MakeTestTipSetToken(), f.epoch, nil
}

// SubmitTransaction implements ledger.Service.
func (f *FakeLedger) SubmitTransaction(ctx context.Context, tx ledger.Transaction) (ledger.TxReceipt, error) {
	f.lk.Lock()
	defer f.lk.Unlock()

	if f.submitTransient > 0 {
		f.submitTransient--
		return ledger.TxReceipt{}, shared.TransientError{Cause: fmt.Errorf("ledger unavailable")}
	}
	if f.rejectNext != nil {
		rejection := f.rejectNext
		f.rejectNext = nil
		return ledger.TxReceipt{}, rejection
	}

	switch tx.Kind {
	case ledger.TxKindReserveFunds:
		var params ledger.ReserveFundsParams
		if err := params.UnmarshalCBOR(bytes.NewReader(tx.Params)); err != nil {
			return ledger.TxReceipt{}, xerrors.Errorf("decoding reserve params: %w", err)
		}
		if bal, ok := f.balances[tx.From]; ok {
			if bal.LessThan(params.Budget) {
				return ledger.TxReceipt{}, &ledger.RejectionError{
					Code:   exitcode.ErrInsufficientFunds,
					Reason: fmt.Sprintf("balance %s below budget %s", bal, params.Budget),
				}
			}
			f.balances[tx.From] = big.Sub(bal, params.Budget)
		}
	case ledger.TxKindRegisterAsset:
		var params ledger.RegisterAssetParams
		if err := params.UnmarshalCBOR(bytes.NewReader(tx.Params)); err != nil {
			return ledger.TxReceipt{}, xerrors.Errorf("decoding register params: %w", err)
		}
		f.assets[params.Asset] = ledger.Asset{
			ID:         params.Asset,
			Policy:     params.Policy,
			Owner:      tx.From,
			Digest:     params.Digest,
			Locator:    params.Locator,
			Size:       params.Size,
			Registered: f.epoch,
		}
	case ledger.TxKindGrantCapability:
		var params ledger.GrantCapabilityParams
		if err := params.UnmarshalCBOR(bytes.NewReader(tx.Params)); err != nil {
			return ledger.TxReceipt{}, xerrors.Errorf("decoding grant params: %w", err)
		}
		f.grantLocked(params.Asset, params.Holder)
	default:
		return ledger.TxReceipt{}, &ledger.RejectionError{
			Code:   exitcode.ErrIllegalArgument,
			Reason: fmt.Sprintf("unsupported transaction kind %d", tx.Kind),
		}
	}

	f.submitted = append(f.submitted, tx)
	return ledger.TxReceipt{TxCid: blockGenerator.Next().Cid(), Epoch: f.epoch}, nil
}

// QueryOwnedCapabilities implements ledger.Service.
func (f *FakeLedger) QueryOwnedCapabilities(ctx context.Context, holder address.Address, cursor ledger.Cursor) (ledger.CapabilityPage, error) {
	f.lk.Lock()
	defer f.lk.Unlock()

	if f.queryTransient > 0 {
		f.queryTransient--
		return ledger.CapabilityPage{}, shared.TransientError{Cause: fmt.Errorf("ledger unavailable")}
	}

	records := make([]ledger.RawRecord, 0, len(f.capabilities[holder]))
	for i := range f.capabilities[holder] {
		raw, err := cborutil.Dump(&f.capabilities[holder][i])
		if err != nil {
			return ledger.CapabilityPage{}, xerrors.Errorf("encoding capability record: %w", err)
		}
		records = append(records, raw)
	}
	records = append(records, f.garbage[holder]...)

	start := int(cursor)
	if start >= len(records) {
		return ledger.CapabilityPage{}, nil
	}
	end := start + f.pageSize
	if end > len(records) {
		end = len(records)
	}
	page := ledger.CapabilityPage{Records: records[start:end]}
	if end < len(records) {
		page.Next = ledger.Cursor(end)
	}
	return page, nil
}

// GetAsset implements ledger.Service.
func (f *FakeLedger) GetAsset(ctx context.Context, id ledger.AssetID) (ledger.RawRecord, error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	a, ok := f.assets[id]
	if !ok {
		return nil, xerrors.Errorf("no ledger record for asset %s", id)
	}
	return cborutil.Dump(&a)
}
