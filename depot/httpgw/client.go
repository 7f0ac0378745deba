// Package httpgw implements the depot Service over a depot gateway's
// HTTP/JSON API.
//
// Status mapping: 402 carries a ledger rejection and is returned as a
// *ledger.RejectionError with the gateway's code and reason untouched; 404
// and 410 on content reads become ContentUnavailableError; 429 and 5xx, plus
// transport level failures, are shared.TransientError and eligible for
// retry by the caller's policy.
package httpgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/depot"
	"github.com/portus-project/go-asset-vault/ledger"
	"github.com/portus-project/go-asset-vault/shared"
)

var log = logging.Logger("depot_httpgw")

const defaultRequestTimeout = 60 * time.Second

// Client talks to a depot gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ depot.Service = (*Client)(nil)

// Option allows custom configuration of a gateway client
type Option func(c *Client)

// WithHTTPClient overrides the underlying http client, for custom transports
// or timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a gateway client for the depot at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, xerrors.Errorf("parsing depot gateway url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, xerrors.Errorf("unsupported depot gateway scheme %q", u.Scheme)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

type reserveRequest struct {
	Payload   string `json:"payload"`
	Size      uint64 `json:"size"`
	Retention int64  `json:"retention"`
	Owner     string `json:"owner"`
}

type reserveResponse struct {
	Digest  string `json:"digest"`
	Receipt []byte `json:"receipt"`
}

type certifyRequest struct {
	Receipt []byte `json:"receipt"`
}

type certifyResponse struct {
	Locator string `json:"locator"`
}

type errorResponse struct {
	Code   int64  `json:"code"`
	Reason string `json:"reason"`
}

func (c *Client) Reserve(ctx context.Context, proposal depot.ReserveProposal) (depot.Reservation, error) {
	body := reserveRequest{
		Payload:   proposal.Payload.String(),
		Size:      proposal.Size,
		Retention: int64(proposal.Retention),
		Owner:     proposal.Owner.String(),
	}
	var parsed reserveResponse
	if err := c.postJSON(ctx, "/v1/reservations", &body, &parsed); err != nil {
		return depot.Reservation{}, err
	}
	digest, err := cid.Parse(parsed.Digest)
	if err != nil {
		return depot.Reservation{}, xerrors.Errorf("parsing reservation digest %q: %w", parsed.Digest, err)
	}
	if len(parsed.Receipt) == 0 {
		return depot.Reservation{}, xerrors.New("reservation response missing receipt")
	}
	return depot.Reservation{Digest: digest, Receipt: parsed.Receipt}, nil
}

func (c *Client) Transfer(ctx context.Context, digest cid.Cid, payload io.Reader, size uint64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/v1/transfers/"+digest.String(), payload)
	if err != nil {
		return err
	}
	req.ContentLength = int64(size)
	req.Header.Set("Content-Type", "application/vnd.ipld.car")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.statusError(resp)
	}
	return nil
}

func (c *Client) Certify(ctx context.Context, receipt []byte) (string, error) {
	var parsed certifyResponse
	if err := c.postJSON(ctx, "/v1/certifications", &certifyRequest{Receipt: receipt}, &parsed); err != nil {
		return "", err
	}
	if parsed.Locator == "" {
		return "", xerrors.New("certification response missing locator")
	}
	return parsed.Locator, nil
}

func (c *Client) ReadByLocator(ctx context.Context, locator string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/content/"+url.PathEscape(locator), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		resp.Body.Close()
		return nil, &depot.ContentUnavailableError{Locator: locator}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.statusError(resp)
	}
	return resp.Body, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return xerrors.Errorf("decoding depot response: %w", err)
	}
	return nil
}

// statusError maps a non-success gateway response onto the error taxonomy.
func (c *Client) statusError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	if err != nil {
		raw = nil
	}
	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		var rejection errorResponse
		if err := json.Unmarshal(raw, &rejection); err != nil {
			log.Warnf("depot sent undecodable rejection body: %s", err)
			return &ledger.RejectionError{Code: exitcode.ErrForbidden, Reason: string(raw)}
		}
		return &ledger.RejectionError{Code: exitcode.ExitCode(rejection.Code), Reason: rejection.Reason}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return shared.TransientError{Cause: fmt.Errorf("depot gateway returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))}
	default:
		return xerrors.Errorf("depot gateway returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
}

// transportError classifies a failed round trip. Cancellation surfaces as the
// context error so callers do not retry it.
func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return shared.TransientError{Cause: err}
}
