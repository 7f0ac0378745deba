package shared_testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/libp2p/go-libp2p-core/host"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/stretchr/testify/require"

	"github.com/portus-project/go-asset-vault/keyshare"
	keyshareimpl "github.com/portus-project/go-asset-vault/keyshare/impl"
	"github.com/portus-project/go-asset-vault/keyshare/network"
	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/sealing"
)

// SwitchValidator is an AccessValidator whose verdict can be swapped at will.
// The zero value allows everything. A forced error wins over the delegate, so
// tests can script denials and transient faults on top of real validation.
type SwitchValidator struct {
	lk       sync.Mutex
	err      error
	limit    int
	delegate keyshare.AccessValidator
	calls    int
}

var _ keyshare.AccessValidator = (*SwitchValidator)(nil)

// Set forces every validation to return err until cleared with Set(nil).
func (v *SwitchValidator) Set(err error) {
	v.lk.Lock()
	defer v.lk.Unlock()
	v.err = err
	v.limit = -1
}

// SetFor forces the next n validations to return err, then clears itself.
func (v *SwitchValidator) SetFor(err error, n int) {
	v.lk.Lock()
	defer v.lk.Unlock()
	v.err = err
	v.limit = n
}

// Delegate forwards validations without a forced error to d.
func (v *SwitchValidator) Delegate(d keyshare.AccessValidator) {
	v.lk.Lock()
	defer v.lk.Unlock()
	v.delegate = d
}

// Calls reports how many validations this server has been asked for.
func (v *SwitchValidator) Calls() int {
	v.lk.Lock()
	defer v.lk.Unlock()
	return v.calls
}

// ValidateAccess implements keyshare.AccessValidator.
func (v *SwitchValidator) ValidateAccess(ctx context.Context, auth ledger.AuthorizationParams) error {
	v.lk.Lock()
	v.calls++
	err := v.err
	if err != nil && v.limit > 0 {
		v.limit--
		if v.limit == 0 {
			v.err = nil
		}
	}
	delegate := v.delegate
	v.lk.Unlock()

	if err != nil {
		return err
	}
	if delegate != nil {
		return delegate.ValidateAccess(ctx, auth)
	}
	return nil
}

// TestKeyServer is one in-process key server: a mocknet host, its sealing
// keypair, a running provider and its swappable validator.
type TestKeyServer struct {
	Host      host.Host
	Keypair   *sealing.Keypair
	Provider  *keyshareimpl.Provider
	Validator *SwitchValidator
}

// Info describes this server as a registry entry.
func (s *TestKeyServer) Info() keyshare.KeyServerInfo {
	return keyshare.NewKeyServerInfo(s.Host.ID(), s.Keypair.PublicBytes(), s.Host.Addrs())
}

// StartTestKeyServers spins up count key servers on mn, serving until the
// test ends. Validators start out allowing everything.
func StartTestKeyServers(ctx context.Context, t *testing.T, mn mocknet.Mocknet, count int) []*TestKeyServer {
	servers := make([]*TestKeyServer, 0, count)
	for i := 0; i < count; i++ {
		h, err := mn.GenPeer()
		require.NoError(t, err)
		kp, err := sealing.GenerateKeypair()
		require.NoError(t, err)

		validator := &SwitchValidator{}
		provider := keyshareimpl.NewProvider(network.NewFromLibp2pHost(h), kp, validator)
		require.NoError(t, provider.Start(ctx))

		server := &TestKeyServer{Host: h, Keypair: kp, Provider: provider, Validator: validator}
		t.Cleanup(func() { _ = server.Provider.Stop() })
		servers = append(servers, server)
	}
	require.NoError(t, mn.LinkAll())
	return servers
}
