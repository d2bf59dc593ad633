package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
)

const refreshFlightKey = "refresh"

var errNoRefreshToken = errors.New("no refresh token stored")

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// refreshAccess returns an access token to resend a request whose token
// stale was rejected. Concurrent callers share one refresh; a caller whose
// stale token has already been replaced gets the current one without a
// refresh at all.
func (c *Client) refreshAccess(ctx context.Context, stale string) (string, error) {
	if access, ok, err := c.replacedAccessToken(ctx, stale); err != nil || ok {
		return access, err
	}

	// The shared refresh must not die with the first caller's context,
	// other waiters depend on its outcome.
	ch := c.refreshGroup.DoChan(refreshFlightKey, func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx), stale)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: waiting for token refresh: %w", apierrors.ErrNetwork, ctx.Err())
	}
}

// replacedAccessToken reports the stored access token when it differs from stale.
func (c *Client) replacedAccessToken(ctx context.Context, stale string) (string, bool, error) {
	session, err := c.store.Get(ctx)
	if err != nil {
		return "", false, fmt.Errorf("[apiclient refresh] read session: %w", err)
	}
	if session.AccessToken != "" && session.AccessToken != stale {
		return session.AccessToken, true, nil
	}
	return "", false, nil
}

// refresh runs inside the single flight. Any failure to obtain a new access
// token ends the session.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "apiclient.refresh")
	defer span.End()

	session, err := c.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("[apiclient refresh] read session: %w", err)
	}
	if session.AccessToken != "" && session.AccessToken != stale {
		return session.AccessToken, nil
	}
	if session.RefreshToken == "" {
		return "", c.expire(ctx, errNoRefreshToken)
	}

	access, err := c.requestAccessToken(ctx, session.RefreshToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		return "", c.expire(ctx, err)
	}

	if err := c.store.SetAccessToken(ctx, access); err != nil {
		if errors.Is(err, apierrors.ErrNoSession) {
			// Logged out while the refresh was in flight
			return "", fmt.Errorf("%w: %v", apierrors.ErrAuthExpired, err)
		}
		return "", fmt.Errorf("[apiclient refresh] store access token: %w", err)
	}

	c.logger.Debug().Msg("Access token refreshed")
	return access, nil
}

func (c *Client) requestAccessToken(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", fmt.Errorf("encode refresh request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.refreshURL.String(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build refresh request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set(headerRequestID, uuid.NewString())

	resp, err := c.roundTrip(httpReq, 0)
	if err != nil {
		return "", err
	}
	if _, err := checkStatus(resp); err != nil {
		return "", err
	}

	var out refreshResponse
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", fmt.Errorf("refresh response has no access token")
	}
	return out.Access, nil
}

// expire clears the session after an unrecoverable credential failure and
// returns the ErrAuthExpired the caller surfaces.
func (c *Client) expire(ctx context.Context, cause error) error {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Msg("Failed to clear session after refresh failure")
	}
	c.logger.Warn().Err(cause).Msg("Token refresh failed, session cleared")
	return fmt.Errorf("%w: %v", apierrors.ErrAuthExpired, cause)
}
