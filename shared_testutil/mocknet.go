package shared_testutil

import (
	"context"
	"testing"

	"github.com/libp2p/go-libp2p-core/host"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/stretchr/testify/require"
)

// Libp2pTestData is a linked pair of mocknet hosts for exercising the share
// protocol without real transports.
type Libp2pTestData struct {
	Ctx   context.Context
	Host1 host.Host
	Host2 host.Host

	MockNet mocknet.Mocknet
}

func NewLibp2pTestData(ctx context.Context, t *testing.T) *Libp2pTestData {
	testData := &Libp2pTestData{}
	testData.Ctx = ctx

	mn := mocknet.New()
	var err error
	testData.Host1, err = mn.GenPeer()
	require.NoError(t, err)
	testData.Host2, err = mn.GenPeer()
	require.NoError(t, err)
	err = mn.LinkAll()
	require.NoError(t, err)
	testData.MockNet = mn

	return testData
}
