package shared_testutil

import (
	"bytes"
	"testing"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/google/uuid"
	"github.com/ipfs/go-cid"
	blocksutil "github.com/ipfs/go-ipfs-blocksutil"
	random "github.com/jbenet/go-random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portus-project/go-asset-vault/filestore"
	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/policy"
	"github.com/portus-project/go-asset-vault/publishing"
	"github.com/portus-project/go-asset-vault/shared"
)

var blockGenerator = blocksutil.NewBlockGenerator()

var seedSeq int64

// RandomBytes returns a byte array of the given size with random values.
func RandomBytes(n int64) []byte {
	data := new(bytes.Buffer)
	random.WritePseudoRandomBytes(n, data, seedSeq) // nolint: gosec,errcheck
	seedSeq++
	return data.Bytes()
}

// GenerateCids produces n content identifiers.
func GenerateCids(n int) []cid.Cid {
	cids := make([]cid.Cid, 0, n)
	for i := 0; i < n; i++ {
		c := blockGenerator.Next().Cid()
		cids = append(cids, c)
	}
	return cids
}

// MakeTestTipSetToken produces a fake chain head token.
func MakeTestTipSetToken() shared.TipSetToken {
	return RandomBytes(32)
}

// MakeTestPolicyID binds a policy under a throwaway scope with a fresh nonce.
func MakeTestPolicyID(t *testing.T) policy.ID {
	nonce, err := policy.NewNonce()
	require.NoError(t, err)
	id, err := policy.Bind("test-scope", nonce)
	require.NoError(t, err)
	return id
}

// MakeTestAssetPublish produces a publish record resting at the given status
// with a staged payload already recorded.
func MakeTestAssetPublish(t *testing.T, status publishing.PublishStatus) publishing.AssetPublish {
	return publishing.AssetPublish{
		Asset:       ledger.AssetID(uuid.New().String()),
		Policy:      MakeTestPolicyID(t),
		Owner:       address.TestAddress,
		PayloadSize: 2048,
		CarSize:     4096,
		PayloadPath: filestore.Path("staged-payload.car"),
		PayloadRoot: GenerateCids(1)[0],
		Retention:   abi.ChainEpoch(2880),
		Budget:      abi.NewTokenAmount(1000000),
		Status:      status,
	}
}

// AssertPublishStatus asserts equality of publish statuses with readable
// error messaging.
func AssertPublishStatus(t *testing.T, expected publishing.PublishStatus, actual publishing.PublishStatus) {
	assert.Equal(t, expected, actual,
		"Unexpected publish status\nexpected: %s (%d)\nactual  : %s (%d)",
		publishing.PublishStatuses[expected], expected,
		publishing.PublishStatuses[actual], actual)
}
