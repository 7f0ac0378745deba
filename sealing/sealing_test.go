package sealing_test

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portus-project/go-asset-vault/policy"
	"github.com/portus-project/go-asset-vault/sealing"
)

func makeServers(t *testing.T, n int) ([]sealing.ServerKey, []*sealing.Keypair) {
	t.Helper()
	servers := make([]sealing.ServerKey, 0, n)
	keypairs := make([]*sealing.Keypair, 0, n)
	for i := 0; i < n; i++ {
		kp, err := sealing.GenerateKeypair()
		require.NoError(t, err)
		servers = append(servers, sealing.ServerKey{
			ID:         peer.ID(fmt.Sprintf("keyserver-%d", i)),
			SealingKey: kp.PublicBytes(),
		})
		keypairs = append(keypairs, kp)
	}
	return servers, keypairs
}

func unsealShare(t *testing.T, env *sealing.SealedPayload, keypairs []*sealing.Keypair, idx int) sealing.RawShare {
	t.Helper()
	frag := env.Fragments[idx]
	secret, err := keypairs[idx].Unseal(frag.Sealed)
	require.NoError(t, err)
	return sealing.RawShare{Index: frag.Index, Secret: secret}
}

func testPolicy(t *testing.T) policy.ID {
	t.Helper()
	nonce, err := policy.NewNonce()
	require.NoError(t, err)
	id, err := policy.Bind("catalog/test", nonce)
	require.NoError(t, err)
	return id
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"empty": {},
		"small": []byte("the quick brown fox"),
	}
	large := make([]byte, 4<<20)
	_, err := rand.Read(large)
	require.NoError(t, err)
	payloads["4MiB"] = large

	for name, plaintext := range payloads {
		t.Run(name, func(t *testing.T) {
			policyID := testPolicy(t)
			servers, keypairs := makeServers(t, 3)

			env, err := sealing.Encrypt(plaintext, policyID, 2, servers)
			require.NoError(t, err)
			require.EqualValues(t, sealing.EnvelopeVersion, env.Version)
			require.Equal(t, policyID, env.Policy)
			require.Len(t, env.Fragments, 3)

			shares := []sealing.RawShare{
				unsealShare(t, env, keypairs, 0),
				unsealShare(t, env, keypairs, 2),
			}
			out, err := sealing.Decrypt(env, shares)
			require.NoError(t, err)
			require.True(t, bytes.Equal(plaintext, out))
		})
	}
}

func TestThresholdSensitivity(t *testing.T) {
	policyID := testPolicy(t)
	servers, keypairs := makeServers(t, 3)
	plaintext := []byte("guarded content")

	env, err := sealing.Encrypt(plaintext, policyID, 2, servers)
	require.NoError(t, err)

	all := []sealing.RawShare{
		unsealShare(t, env, keypairs, 0),
		unsealShare(t, env, keypairs, 1),
		unsealShare(t, env, keypairs, 2),
	}

	t.Run("every pair recovers", func(t *testing.T) {
		pairs := [][2]int{{0, 1}, {0, 2}, {1, 2}}
		for _, pair := range pairs {
			out, err := sealing.Decrypt(env, []sealing.RawShare{all[pair[0]], all[pair[1]]})
			require.NoError(t, err)
			require.Equal(t, plaintext, out)
		}
	})

	t.Run("single shares fail", func(t *testing.T) {
		for i := range all {
			_, err := sealing.Decrypt(env, []sealing.RawShare{all[i]})
			require.Error(t, err)
			assert.True(t, sealing.IsDecryptionError(err))
		}
	})

	t.Run("duplicate shares do not count", func(t *testing.T) {
		_, err := sealing.Decrypt(env, []sealing.RawShare{all[0], all[0]})
		require.Error(t, err)
		assert.True(t, sealing.IsDecryptionError(err))
	})

	t.Run("extra shares are harmless", func(t *testing.T) {
		out, err := sealing.Decrypt(env, all)
		require.NoError(t, err)
		require.Equal(t, plaintext, out)
	})
}

func TestDecryptFailsClosed(t *testing.T) {
	policyID := testPolicy(t)
	servers, keypairs := makeServers(t, 3)
	plaintext := []byte("guarded content")

	env, err := sealing.Encrypt(plaintext, policyID, 2, servers)
	require.NoError(t, err)
	shares := []sealing.RawShare{
		unsealShare(t, env, keypairs, 0),
		unsealShare(t, env, keypairs, 1),
	}

	t.Run("tampered body", func(t *testing.T) {
		tampered := *env
		tampered.Body = append([]byte{}, env.Body...)
		tampered.Body[0] ^= 0xff
		_, err := sealing.Decrypt(&tampered, shares)
		require.Error(t, err)
		assert.True(t, sealing.IsDecryptionError(err))
	})

	t.Run("policy substitution", func(t *testing.T) {
		tampered := *env
		tampered.Policy = testPolicy(t)
		_, err := sealing.Decrypt(&tampered, shares)
		require.Error(t, err)
		assert.True(t, sealing.IsDecryptionError(err))
	})

	t.Run("garbage share", func(t *testing.T) {
		bad := shares[0]
		bad.Secret = bytes.Repeat([]byte{0x01}, 10)
		_, err := sealing.Decrypt(env, []sealing.RawShare{bad, shares[1]})
		require.Error(t, err)
		assert.True(t, sealing.IsDecryptionError(err))
	})

	t.Run("nil envelope", func(t *testing.T) {
		_, err := sealing.Decrypt(nil, shares)
		require.Error(t, err)
		assert.True(t, sealing.IsDecryptionError(err))
	})
}

func TestEncryptValidation(t *testing.T) {
	policyID := testPolicy(t)
	servers, _ := makeServers(t, 3)
	plaintext := []byte("content")

	testCases := map[string]func() error{
		"zero threshold": func() error {
			_, err := sealing.Encrypt(plaintext, policyID, 0, servers)
			return err
		},
		"threshold above server count": func() error {
			_, err := sealing.Encrypt(plaintext, policyID, 4, servers)
			return err
		},
		"no servers": func() error {
			_, err := sealing.Encrypt(plaintext, policyID, 1, nil)
			return err
		},
		"undefined policy": func() error {
			_, err := sealing.Encrypt(plaintext, policy.Undef, 2, servers)
			return err
		},
		"malformed sealing key": func() error {
			bad := []sealing.ServerKey{{ID: "srv", SealingKey: []byte("short")}}
			_, err := sealing.Encrypt(plaintext, policyID, 1, bad)
			return err
		},
		"oversized payload": func() error {
			huge := make([]byte, sealing.MaxPayloadLen+1)
			_, err := sealing.Encrypt(huge, policyID, 2, servers)
			return err
		},
	}
	for name, run := range testCases {
		t.Run(name, func(t *testing.T) {
			err := run()
			require.Error(t, err)
			assert.True(t, sealing.IsEncryptionError(err))
		})
	}
}

func TestEnvelopeOverheadBounded(t *testing.T) {
	policyID := testPolicy(t)
	for _, n := range []int{1, 3, 16} {
		servers, _ := makeServers(t, n)
		plaintext := make([]byte, 1<<20)
		_, err := rand.Read(plaintext)
		require.NoError(t, err)

		env, err := sealing.Encrypt(plaintext, policyID, uint64(n), servers)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, env.MarshalCBOR(&buf))
		require.LessOrEqual(t, uint64(buf.Len()), uint64(len(plaintext))+sealing.MaxOverhead(uint64(n)),
			"envelope overhead for %d servers", n)
	}
}

func TestEnvelopeCBORRoundTrip(t *testing.T) {
	policyID := testPolicy(t)
	servers, keypairs := makeServers(t, 3)
	plaintext := []byte("content travels whole")

	env, err := sealing.Encrypt(plaintext, policyID, 2, servers)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, env.MarshalCBOR(&buf))

	var decoded sealing.SealedPayload
	require.NoError(t, decoded.UnmarshalCBOR(&buf))
	require.Equal(t, *env, decoded)

	// a decoded envelope still decrypts
	shares := []sealing.RawShare{
		unsealShare(t, &decoded, keypairs, 1),
		unsealShare(t, &decoded, keypairs, 2),
	}
	out, err := sealing.Decrypt(&decoded, shares)
	require.NoError(t, err)
	require.Equal(t, plaintext, out)
}

func TestKeypairSealUnseal(t *testing.T) {
	kp, err := sealing.GenerateKeypair()
	require.NoError(t, err)
	other, err := sealing.GenerateKeypair()
	require.NoError(t, err)

	msg := []byte("fragment bytes")
	sealed, err := sealing.SealTo(kp.PublicBytes(), msg)
	require.NoError(t, err)

	out, err := kp.Unseal(sealed)
	require.NoError(t, err)
	require.Equal(t, msg, out)

	_, err = other.Unseal(sealed)
	require.Error(t, err)

	_, err = sealing.SealTo([]byte("short"), msg)
	require.Error(t, err)
}
