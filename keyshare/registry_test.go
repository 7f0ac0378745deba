package keyshare_test

import (
	"testing"

	"github.com/ipfs/go-datastore"
	dss "github.com/ipfs/go-datastore/sync"
	"github.com/libp2p/go-libp2p-core/test"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portus-project/go-asset-vault/keyshare"
	"github.com/portus-project/go-asset-vault/sealing"
)

func testServerInfo(t *testing.T, addr string) (keyshare.KeyServerInfo, *sealing.Keypair) {
	t.Helper()
	kp, err := sealing.GenerateKeypair()
	require.NoError(t, err)
	pid, err := test.RandPeerID()
	require.NoError(t, err)
	maddr, err := ma.NewMultiaddr(addr)
	require.NoError(t, err)
	return keyshare.NewKeyServerInfo(pid, kp.PublicBytes(), []ma.Multiaddr{maddr}), kp
}

func TestRegistryRoundTrip(t *testing.T) {
	registry := keyshare.NewRegistry(dss.MutexWrap(datastore.NewMapDatastore()))

	info, kp := testServerInfo(t, "/ip4/127.0.0.1/tcp/5001")
	require.NoError(t, registry.Register(info))

	got, err := registry.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, info, got)
	assert.Equal(t, kp.PublicBytes(), got.ServerKey().SealingKey)

	addrs, err := got.Multiaddrs()
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "/ip4/127.0.0.1/tcp/5001", addrs[0].String())
}

func TestRegistryReplacesOnReregister(t *testing.T) {
	registry := keyshare.NewRegistry(dss.MutexWrap(datastore.NewMapDatastore()))

	info, _ := testServerInfo(t, "/ip4/127.0.0.1/tcp/5001")
	require.NoError(t, registry.Register(info))

	// same server moves host and rotates its sealing key
	rotated, err := sealing.GenerateKeypair()
	require.NoError(t, err)
	moved, err := ma.NewMultiaddr("/ip4/10.0.0.7/tcp/5001")
	require.NoError(t, err)
	next := keyshare.NewKeyServerInfo(info.ID, rotated.PublicBytes(), []ma.Multiaddr{moved})
	require.NoError(t, registry.Register(next))

	got, err := registry.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, next, got)

	infos, err := registry.List()
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestRegistrySurvivesReopen(t *testing.T) {
	ds := dss.MutexWrap(datastore.NewMapDatastore())

	info, _ := testServerInfo(t, "/ip4/127.0.0.1/tcp/5001")
	require.NoError(t, keyshare.NewRegistry(ds).Register(info))

	reopened := keyshare.NewRegistry(ds)
	got, err := reopened.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestRegistryServerKeys(t *testing.T) {
	registry := keyshare.NewRegistry(dss.MutexWrap(datastore.NewMapDatastore()))

	want := map[string][]byte{}
	for i, addr := range []string{"/ip4/127.0.0.1/tcp/5001", "/ip4/127.0.0.1/tcp/5002", "/ip4/127.0.0.1/tcp/5003"} {
		info, _ := testServerInfo(t, addr)
		require.NoError(t, registry.Register(info), "server %d", i)
		want[string(info.ID)] = info.SealingKey
	}

	keys, err := registry.ServerKeys()
	require.NoError(t, err)
	require.Len(t, keys, len(want))
	for _, key := range keys {
		assert.Equal(t, want[string(key.ID)], key.SealingKey)
	}
}

func TestRegistryRejectsInvalidRecords(t *testing.T) {
	registry := keyshare.NewRegistry(dss.MutexWrap(datastore.NewMapDatastore()))

	t.Run("missing peer id", func(t *testing.T) {
		info, _ := testServerInfo(t, "/ip4/127.0.0.1/tcp/5001")
		info.ID = ""
		require.Error(t, registry.Register(info))
	})

	t.Run("truncated sealing key", func(t *testing.T) {
		info, _ := testServerInfo(t, "/ip4/127.0.0.1/tcp/5001")
		info.SealingKey = info.SealingKey[:16]
		require.Error(t, registry.Register(info))
	})
}

func TestRegistryGetMissing(t *testing.T) {
	registry := keyshare.NewRegistry(dss.MutexWrap(datastore.NewMapDatastore()))
	pid, err := test.RandPeerID()
	require.NoError(t, err)
	_, err = registry.Get(pid)
	require.Error(t, err)
}
