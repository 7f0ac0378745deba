package policy_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portus-project/go-asset-vault/policy"
)

func TestBind(t *testing.T) {
	scope := policy.ScopeID("catalog/images")
	nonce := []byte("abcdefgh")

	id, err := policy.Bind(scope, nonce)
	require.NoError(t, err)
	require.True(t, id.Defined())

	t.Run("deterministic", func(t *testing.T) {
		again, err := policy.Bind(scope, nonce)
		require.NoError(t, err)
		require.Equal(t, id, again)
	})

	t.Run("scope contributes", func(t *testing.T) {
		other, err := policy.Bind(policy.ScopeID("catalog/audio"), nonce)
		require.NoError(t, err)
		require.NotEqual(t, id, other)
	})

	t.Run("nonce contributes", func(t *testing.T) {
		other, err := policy.Bind(scope, []byte("hgfedcba"))
		require.NoError(t, err)
		require.NotEqual(t, id, other)
	})
}

func TestBindRejectsBadInputs(t *testing.T) {
	testCases := map[string]struct {
		scope policy.ScopeID
		nonce []byte
	}{
		"empty scope":     {scope: "", nonce: []byte("abcdefgh")},
		"nil nonce":       {scope: "catalog", nonce: nil},
		"four byte nonce": {scope: "catalog", nonce: []byte("abcd")},
		"empty nonce":     {scope: "catalog", nonce: []byte{}},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := policy.Bind(tc.scope, tc.nonce)
			require.Error(t, err)
			assert.True(t, policy.IsInvalidScope(err))
		})
	}

	t.Run("five byte nonce accepted", func(t *testing.T) {
		id, err := policy.Bind("catalog", []byte("abcde"))
		require.NoError(t, err)
		require.True(t, id.Defined())
	})
}

func TestBindUniqueness(t *testing.T) {
	scope := policy.ScopeID("catalog/images")
	seen := make(map[policy.ID]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		nonce, err := policy.NewNonce()
		require.NoError(t, err)
		id, err := policy.Bind(scope, nonce)
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "policy id collision after %d nonces", i)
		seen[id] = struct{}{}
	}
}

func TestIDStringRoundTrip(t *testing.T) {
	id, err := policy.Bind("catalog", []byte("abcdefgh"))
	require.NoError(t, err)

	parsed, err := policy.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = policy.FromBytes([]byte("short"))
	require.Error(t, err)
}

func TestIDCBORRoundTrip(t *testing.T) {
	id, err := policy.Bind("catalog", []byte("abcdefgh"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, id.MarshalCBOR(&buf))

	var out policy.ID
	require.NoError(t, out.UnmarshalCBOR(&buf))
	require.Equal(t, id, out)
}
