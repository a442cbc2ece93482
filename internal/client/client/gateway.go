package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskdesk/internal/common"
	"github.com/dmitrijs2005/taskdesk/internal/logging"
	"github.com/google/uuid"
)

const maxErrorBody = 64 << 10

// AuthFailure describes a 401 observed by the gateway.
type AuthFailure struct {
	// Credential is the credential stamped on the rejected request; empty
	// when the request went out unauthenticated.
	Credential string
	Method     string
	Path       string
	RequestID  string
}

// GatewayConfig configures NewGateway.
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
	// Transport is the underlying round tripper; http.DefaultTransport if nil.
	Transport http.RoundTripper
	Logger    logging.Logger
}

// Gateway is the shared HTTP client configuration: credential stamping on
// the way out, 401 observation on the way back.
type Gateway struct {
	base   *url.URL
	http   *http.Client
	logger logging.Logger

	credMu     sync.RWMutex
	credential string

	obsMu     sync.Mutex
	observers map[uint64]func(AuthFailure)
	nextObsID uint64
}

func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q is not absolute", common.ErrValidation, cfg.BaseURL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	g := &Gateway{
		base:      base,
		logger:    logger.With("component", "gateway"),
		observers: make(map[uint64]func(AuthFailure)),
	}
	g.http = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &stampingTransport{next: transport, g: g},
	}
	return g, nil
}

// SetCredential attaches tok to every subsequent request.
func (g *Gateway) SetCredential(tok string) {
	g.credMu.Lock()
	g.credential = tok
	g.credMu.Unlock()
}

// ClearCredential detaches the credential; later requests go out unauthenticated.
func (g *Gateway) ClearCredential() {
	g.SetCredential("")
}

func (g *Gateway) Credential() string {
	g.credMu.RLock()
	defer g.credMu.RUnlock()
	return g.credential
}

// OnAuthFailure registers fn to be called for every 401 response. The
// returned disposer unregisters it and is safe to call more than once.
// fn runs on the goroutine that issued the request and must not block.
func (g *Gateway) OnAuthFailure(fn func(AuthFailure)) (dispose func()) {
	g.obsMu.Lock()
	id := g.nextObsID
	g.nextObsID++
	g.observers[id] = fn
	g.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.obsMu.Lock()
			delete(g.observers, id)
			g.obsMu.Unlock()
		})
	}
}

// ObserverCount reports how many 401 observers are installed.
func (g *Gateway) ObserverCount() int {
	g.obsMu.Lock()
	defer g.obsMu.Unlock()
	return len(g.observers)
}

func (g *Gateway) notify(f AuthFailure) {
	g.obsMu.Lock()
	fns := make([]func(AuthFailure), 0, len(g.observers))
	for _, fn := range g.observers {
		fns = append(fns, fn)
	}
	g.obsMu.Unlock()

	for _, fn := range fns {
		fn(f)
	}
}

// Do sends one JSON request to path (relative to the base URL) and returns
// the raw response body. body, when non-nil, is JSON-encoded. Non-2xx
// responses return *APIError.
func (g *Gateway) Do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	u := g.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %v", ErrUnavailable, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(method, path, resp.StatusCode, data)
	}
	return data, nil
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}
	return &APIError{Method: method, Path: path, Status: status, Message: msg, Kind: kindForStatus(status)}
}

type unauthenticatedKey struct{}

// withoutCredential marks a request as a credential exchange: it goes out
// without the bearer credential, so its 401 cannot downgrade the session.
func withoutCredential(ctx context.Context) context.Context {
	return context.WithValue(ctx, unauthenticatedKey{}, true)
}

// stampingTransport adds the credential and a request id, logs the
// exchange and reports 401s to the gateway observers.
type stampingTransport struct {
	next http.RoundTripper
	g    *Gateway
}

func (t *stampingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	req = req.Clone(ctx)

	cred := t.g.Credential()
	if skip, _ := ctx.Value(unauthenticatedKey{}).(bool); skip {
		cred = ""
	}
	if cred != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+cred)
	}
	reqID := req.Header.Get(common.RequestIDHeaderName)
	if reqID == "" {
		reqID = uuid.NewString()
		req.Header.Set(common.RequestIDHeaderName, reqID)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	log := t.g.logger.With("method", req.Method, "path", req.URL.Path, "request_id", reqID, "duration", time.Since(start))
	if err != nil {
		log.Debug(ctx, "request failed", "error", err)
		return nil, err
	}
	log.Debug(ctx, "request done", "status", resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		log.Warn(ctx, "authorization failure")
		t.g.notify(AuthFailure{
			Credential: cred,
			Method:     req.Method,
			Path:       req.URL.Path,
			RequestID:  reqID,
		})
	}
	return resp, nil
}
