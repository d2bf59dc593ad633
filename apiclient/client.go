package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/go-task-client/internal/config"
	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/jrsteele09/go-task-client/sessions"
)

const tracerName = "github.com/jrsteele09/go-task-client/apiclient"

// Client performs authenticated calls against the task API. It attaches the
// stored access token to every request and, when the API rejects it,
// refreshes it once and resends the request.
type Client struct {
	baseURL    *url.URL
	refreshURL *url.URL
	httpClient *http.Client
	store      sessions.Store
	logger     zerolog.Logger
	tracer     trace.Tracer

	refreshGroup singleflight.Group
}

type Option func(*Client)

// WithHTTPClient replaces the default client, whose timeout comes from config
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = provider.Tracer(tracerName)
	}
}

// New creates a client for the API described by cfg. A relative base URL
// (the default "/api/") is resolved against cfg.GetOrigin().
func New(cfg config.APIConfig, store sessions.Store, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("[apiclient New] session store is required")
	}

	baseURL, err := resolveBaseURL(cfg.GetOrigin(), cfg.GetBaseURL())
	if err != nil {
		return nil, fmt.Errorf("[apiclient New] %w", err)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.GetRequestTimeout()},
		store:      store,
		logger:     log.Logger.With().Str("component", "apiclient").Logger(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.refreshURL, err = c.ResolveURL(cfg.GetRefreshPath())
	if err != nil {
		return nil, fmt.Errorf("[apiclient New] refresh path: %w", err)
	}
	return c, nil
}

func resolveBaseURL(origin, base string) (*url.URL, error) {
	if base == "" {
		base = config.DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", base, err)
	}
	if baseURL.IsAbs() {
		return baseURL, nil
	}

	originURL, err := url.Parse(origin)
	if err != nil || !originURL.IsAbs() {
		return nil, fmt.Errorf("relative base url %q needs an absolute origin, got %q", base, origin)
	}
	return originURL.ResolveReference(baseURL), nil
}

// BaseURL returns the absolute base every request path is resolved against
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ResolveURL joins path onto the base URL. A leading slash does not escape
// the base: "/tasks/" and "tasks/" both resolve to "<base>tasks/".
func (c *Client) ResolveURL(path string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, fmt.Errorf("path %q must be relative to the base url", path)
	}
	return c.baseURL.ResolveReference(ref), nil
}

// Store returns the session store the client reads credentials from
func (c *Client) Store() sessions.Store {
	return c.store
}

// Do sends req and returns the response for any 2xx status. Errors are
// apierrors.ErrNetwork (no response), apierrors.ErrAuthExpired (the access
// token was rejected and could not be refreshed; the session has been
// cleared) or *apierrors.HTTPError for every other non-2xx response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "apiclient.Do", trace.WithAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.Path),
	))
	defer span.End()

	cl, err := c.prepare(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("request.id", cl.requestID))

	resp, err := c.execute(ctx, cl)
	span.SetAttributes(attribute.Int("auth.retries", cl.attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, nil
}

func (c *Client) prepare(req *Request) (*call, error) {
	if req == nil || req.Method == "" {
		return nil, fmt.Errorf("[apiclient Do] %w: method is required", apierrors.ErrInvalidRequest)
	}

	target, err := c.ResolveURL(req.Path)
	if err != nil {
		return nil, fmt.Errorf("[apiclient Do] %w: %w", apierrors.ErrInvalidRequest, err)
	}
	if len(req.Query) > 0 {
		q := target.Query()
		for k, values := range req.Query {
			for _, v := range values {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("[apiclient Do] %w: %w", apierrors.ErrInvalidRequest, err)
	}

	requestID := req.Header.Get(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	return &call{
		req:         req,
		url:         target.String(),
		body:        body,
		contentType: contentType,
		requestID:   requestID,
	}, nil
}

// execute runs the send, refresh, resend sequence for one call. The resend
// uses the token produced by the refresh, never a second store read, so a
// concurrent login cannot swap the credential between refresh and resend.
func (c *Client) execute(ctx context.Context, cl *call) (*Response, error) {
	access, err := c.currentAccessToken(ctx, cl)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, cl, access)
	if err != nil {
		return nil, err
	}
	if !apierrors.IsAuthStatus(resp.StatusCode) || !cl.canRetryAuth() {
		return checkStatus(resp)
	}

	cl.attempt++
	c.logger.Debug().
		Str("request_id", cl.requestID).
		Int("status", resp.StatusCode).
		Msg("Access token rejected, refreshing")

	fresh, err := c.refreshAccess(ctx, access)
	if err != nil {
		return nil, err
	}

	resp, err = c.send(ctx, cl, fresh)
	if err != nil {
		return nil, err
	}
	return checkStatus(resp)
}

func (c *Client) currentAccessToken(ctx context.Context, cl *call) (string, error) {
	if cl.req.NoAuth {
		return "", nil
	}
	session, err := c.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("[apiclient Do] read session: %w", err)
	}
	return session.AccessToken, nil
}

func (c *Client) send(ctx context.Context, cl *call, access string) (*Response, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, cl.req.Method, cl.url, body)
	if err != nil {
		return nil, fmt.Errorf("[apiclient send] %w: %w", apierrors.ErrInvalidRequest, err)
	}
	for k, values := range cl.req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if cl.contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", cl.contentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", contentTypeJSON)
	}
	httpReq.Header.Set(headerRequestID, cl.requestID)
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	return c.roundTrip(httpReq, cl.attempt)
}

func (c *Client) roundTrip(httpReq *http.Request, attempt int) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).
			Str("method", httpReq.Method).
			Str("url", httpReq.URL.Redacted()).
			Msg("Request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", apierrors.ErrNetwork, httpReq.Method, httpReq.URL.Redacted(), err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %w", apierrors.ErrNetwork, httpReq.Method, httpReq.URL.Redacted(), err)
	}

	c.logger.Debug().
		Str("method", httpReq.Method).
		Str("url", httpReq.URL.Redacted()).
		Str("request_id", httpReq.Header.Get(headerRequestID)).
		Int("status", httpResp.StatusCode).
		Int("attempt", attempt).
		Msg("Request completed")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func checkStatus(resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, &apierrors.HTTPError{StatusCode: resp.StatusCode, Body: resp.Body}
}
