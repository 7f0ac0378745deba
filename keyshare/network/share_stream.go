package network

import (
	"bufio"

	cborutil "github.com/filecoin-project/go-cbor-util"
	"github.com/libp2p/go-libp2p-core/mux"
	"github.com/libp2p/go-libp2p-core/peer"

	"github.com/portus-project/go-asset-vault/keyshare"
)

type shareStream struct {
	p        peer.ID
	rw       mux.MuxedStream
	buffered *bufio.Reader
}

var _ ShareStream = (*shareStream)(nil)

func (ss *shareStream) ReadShareRequest() (keyshare.ShareRequest, error) {
	var req keyshare.ShareRequest

	if err := req.UnmarshalCBOR(ss.buffered); err != nil {
		log.Warn(err)
		return keyshare.ShareRequestUndefined, err
	}

	return req, nil
}

func (ss *shareStream) WriteShareRequest(req keyshare.ShareRequest) error {
	return cborutil.WriteCborRPC(ss.rw, &req)
}

func (ss *shareStream) ReadShareResponse() (keyshare.ShareResponse, error) {
	var resp keyshare.ShareResponse

	if err := resp.UnmarshalCBOR(ss.buffered); err != nil {
		log.Warn(err)
		return keyshare.ShareResponseUndefined, err
	}

	return resp, nil
}

func (ss *shareStream) WriteShareResponse(resp keyshare.ShareResponse) error {
	return cborutil.WriteCborRPC(ss.rw, &resp)
}

func (ss *shareStream) RemotePeer() peer.ID {
	return ss.p
}

func (ss *shareStream) Close() error {
	return ss.rw.Close()
}
