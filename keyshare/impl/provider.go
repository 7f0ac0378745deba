package keyshareimpl

import (
	"bytes"
	"context"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/portus-project/go-asset-vault/keyshare"
	"github.com/portus-project/go-asset-vault/keyshare/network"
	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/sealing"
	"github.com/portus-project/go-asset-vault/shared"
)

var log = logging.Logger("keyshare_impl")

// requestTimeout bounds ledger validation for one inbound share request.
var requestTimeout = 30 * time.Second

// Provider serves key shares for one key server. It owns the server's sealing
// keypair, validates authorization payloads through the injected validator,
// and reseals granted shares to the requesting session key. Every request is
// answered on its own stream; the provider keeps no per-session state.
type Provider struct {
	net       network.KeyShareNetwork
	keypair   *sealing.Keypair
	validator keyshare.AccessValidator

	ctx context.Context
}

var _ network.ShareReceiver = (*Provider)(nil)

// NewProvider returns a new key share provider
func NewProvider(net network.KeyShareNetwork, keypair *sealing.Keypair, validator keyshare.AccessValidator) *Provider {
	return &Provider{
		net:       net,
		keypair:   keypair,
		validator: validator,
		ctx:       context.Background(),
	}
}

// Info describes this server as a registry entry, using the addresses the
// host currently listens on.
func (p *Provider) Info() keyshare.KeyServerInfo {
	return keyshare.KeyServerInfo{
		ID:         p.net.ID(),
		SealingKey: p.keypair.PublicBytes(),
	}
}

// Start begins serving share requests until Stop.
func (p *Provider) Start(ctx context.Context) error {
	p.ctx = ctx
	return p.net.SetDelegate(p)
}

// Stop detaches the provider from the network.
func (p *Provider) Stop() error {
	return p.net.StopHandlingRequests()
}

// HandleShareStream reads one request, decides it, and writes one response.
func (p *Provider) HandleShareStream(s network.ShareStream) {
	defer s.Close()

	req, err := s.ReadShareRequest()
	if err != nil {
		log.Warnf("reading share request from %s: %s", s.RemotePeer(), err)
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, requestTimeout)
	defer cancel()

	resp := p.decide(ctx, req)
	log.Infof("share request from %s for policy %s fragment %d (threshold %d): %s",
		s.RemotePeer(), req.Policy, req.FragmentIndex, req.Threshold, keyshare.ShareStatuses[resp.Status])

	if err := s.WriteShareResponse(resp); err != nil {
		log.Warnf("writing share response to %s: %s", s.RemotePeer(), err)
	}
}

func (p *Provider) decide(ctx context.Context, req keyshare.ShareRequest) keyshare.ShareResponse {
	auth, err := ledger.ParseAuthorization(req.AuthTx)
	if err != nil {
		return denied(req, "malformed authorization payload")
	}
	if auth.Policy != req.Policy {
		return denied(req, "authorization does not cover the requested policy")
	}
	if !bytes.Equal(auth.SessionKey, req.SessionKey) {
		return denied(req, "authorization is bound to a different session key")
	}

	if err := p.validator.ValidateAccess(ctx, auth); err != nil {
		if shared.IsTransient(err) {
			log.Warnf("validating authorization for asset %s: %s", auth.Asset, err)
			return errored(req, "ledger validation unavailable")
		}
		return denied(req, err.Error())
	}

	secret, err := p.keypair.Unseal(req.Fragment)
	if err != nil {
		return errored(req, "fragment is not sealed to this server")
	}
	share, err := sealing.SealTo(auth.SessionKey, secret)
	if err != nil {
		return errored(req, "resealing share to session key")
	}

	return keyshare.ShareResponse{
		Status: keyshare.ShareStatusGranted,
		Index:  req.FragmentIndex,
		Share:  share,
	}
}

func denied(req keyshare.ShareRequest, msg string) keyshare.ShareResponse {
	return keyshare.ShareResponse{
		Status:  keyshare.ShareStatusDenied,
		Message: msg,
		Index:   req.FragmentIndex,
	}
}

func errored(req keyshare.ShareRequest, msg string) keyshare.ShareResponse {
	return keyshare.ShareResponse{
		Status:  keyshare.ShareStatusErrored,
		Message: msg,
		Index:   req.FragmentIndex,
	}
}
