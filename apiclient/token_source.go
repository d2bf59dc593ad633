package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
)

type sessionTokenSource struct {
	ctx    context.Context
	client *Client
}

// TokenSource exposes the stored session as an oauth2.TokenSource. A token
// whose exp claim has passed is refreshed first, through the same single
// flight Do uses.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &sessionTokenSource{ctx: ctx, client: c}
}

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	session, err := s.client.store.Get(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("[apiclient Token] read session: %w", err)
	}
	if session.IsZero() {
		return nil, apierrors.ErrNoSession
	}

	tok := session.OAuth2Token()
	if tok.Valid() {
		return tok, nil
	}

	access, err := s.client.refreshAccess(s.ctx, session.AccessToken)
	if err != nil {
		return nil, err
	}
	session.AccessToken = access
	return session.OAuth2Token(), nil
}

// HTTPClient returns an http.Client that authorises requests with the session
// token, for URLs outside the API base such as attachment downloads. It does
// not retry on 401.
func (c *Client) HTTPClient(ctx context.Context) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, c.TokenSource(ctx))
}
