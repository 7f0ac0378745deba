package network_test

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portus-project/go-asset-vault/keyshare"
	"github.com/portus-project/go-asset-vault/keyshare/network"
	"github.com/portus-project/go-asset-vault/shared_testutil"
)

type testReceiver struct {
	t                  *testing.T
	shareStreamHandler func(network.ShareStream)
}

var _ network.ShareReceiver = &testReceiver{}

func (tr *testReceiver) HandleShareStream(s network.ShareStream) {
	defer s.Close()
	if tr.shareStreamHandler != nil {
		tr.shareStreamHandler(s)
	}
}

func makeTestShareRequest(t *testing.T) keyshare.ShareRequest {
	return keyshare.ShareRequest{
		Policy:        shared_testutil.MakeTestPolicyID(t),
		FragmentIndex: 2,
		Fragment:      shared_testutil.RandomBytes(80),
		AuthTx:        shared_testutil.RandomBytes(120),
		SessionKey:    shared_testutil.RandomBytes(32),
		Threshold:     2,
	}
}

func makeTestShareResponse() keyshare.ShareResponse {
	return keyshare.ShareResponse{
		Status:  keyshare.ShareStatusGranted,
		Message: "granted",
		Index:   2,
		Share:   shared_testutil.RandomBytes(112),
	}
}

func TestShareStreamSendReceiveRequest(t *testing.T) {
	ctx := context.Background()
	td := shared_testutil.NewLibp2pTestData(ctx, t)

	fromNetwork := network.NewFromLibp2pHost(td.Host1)
	toNetwork := network.NewFromLibp2pHost(td.Host2)
	toHost := td.Host2.ID()

	rchan := make(chan keyshare.ShareRequest)
	tr := &testReceiver{t: t, shareStreamHandler: func(s network.ShareStream) {
		readReq, err := s.ReadShareRequest()
		require.NoError(t, err)
		rchan <- readReq
	}}
	require.NoError(t, toNetwork.SetDelegate(tr))

	assertShareRequestReceived(ctx, t, fromNetwork, toHost, rchan)
}

func TestShareStreamSendReceiveMultipleSuccessful(t *testing.T) {
	// send request, read in handler, send response back, read response
	ctxBg := context.Background()
	td := shared_testutil.NewLibp2pTestData(ctxBg, t)
	nw1 := network.NewFromLibp2pHost(td.Host1)
	nw2 := network.NewFromLibp2pHost(td.Host2)
	require.NoError(t, td.Host1.Connect(ctxBg, peer.AddrInfo{ID: td.Host2.ID()}))

	// host2 gets a request and sends a response
	sr := makeTestShareResponse()
	done := make(chan bool)
	tr2 := &testReceiver{t: t, shareStreamHandler: func(s network.ShareStream) {
		_, err := s.ReadShareRequest()
		require.NoError(t, err)

		require.NoError(t, s.WriteShareResponse(sr))
		done <- true
	}}
	require.NoError(t, nw2.SetDelegate(tr2))

	ctx, cancel := context.WithTimeout(ctxBg, 10*time.Second)
	defer cancel()

	ss, err := nw1.NewShareStream(ctx, td.Host2.ID())
	require.NoError(t, err)

	require.NoError(t, ss.WriteShareRequest(makeTestShareRequest(t)))
	resp, err := ss.ReadShareResponse()
	require.NoError(t, err)

	select {
	case <-ctx.Done():
		t.Error("response not received")
	case <-done:
	}

	assert.Equal(t, sr, resp)
}

func TestShareStreamRemotePeer(t *testing.T) {
	ctx := context.Background()
	td := shared_testutil.NewLibp2pTestData(ctx, t)

	fromNetwork := network.NewFromLibp2pHost(td.Host1)
	toNetwork := network.NewFromLibp2pHost(td.Host2)

	pchan := make(chan peer.ID)
	tr := &testReceiver{t: t, shareStreamHandler: func(s network.ShareStream) {
		pchan <- s.RemotePeer()
	}}
	require.NoError(t, toNetwork.SetDelegate(tr))

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ss, err := fromNetwork.NewShareStream(reqCtx, td.Host2.ID())
	require.NoError(t, err)
	defer ss.Close()
	assert.Equal(t, td.Host2.ID(), ss.RemotePeer())

	require.NoError(t, ss.WriteShareRequest(makeTestShareRequest(t)))

	select {
	case <-reqCtx.Done():
		t.Error("inbound stream not received")
	case remote := <-pchan:
		assert.Equal(t, td.Host1.ID(), remote)
	}
}

// assertShareRequestReceived performs the verification that a ShareRequest is received
func assertShareRequestReceived(inCtx context.Context, t *testing.T, fromNetwork network.KeyShareNetwork, toHost peer.ID, rchan chan keyshare.ShareRequest) {
	ctx, cancel := context.WithTimeout(inCtx, 10*time.Second)
	defer cancel()

	ss, err := fromNetwork.NewShareStream(ctx, toHost)
	require.NoError(t, err)

	// send request to host2
	req := makeTestShareRequest(t)
	require.NoError(t, ss.WriteShareRequest(req))

	var inReq keyshare.ShareRequest
	select {
	case <-ctx.Done():
		t.Error("msg not received")
	case inReq = <-rchan:
	}
	require.NotNil(t, inReq)
	assert.Equal(t, req, inReq)
}
