package bluesky

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"

	"github.com/rmkenv/bluesky-auto/app/post"
)

const (
	DefaultHost    = "https://bsky.social"
	postCollection = "app.bsky.feed.post"

	// Access tokens expire after about two hours.
	sessionMaxAge = 90 * time.Minute
)

var ErrNotLoggedIn = errors.New("bluesky session not established")

type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish post: %v", e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

type Client struct {
	xrpcc    *xrpc.Client
	handle   string
	password string
	now      func() time.Time

	mu        sync.Mutex
	sessionAt time.Time
}

func NewClient(host, handle, password string) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		xrpcc: &xrpc.Client{
			Client: &http.Client{Timeout: 30 * time.Second},
			Host:   host,
		},
		handle:   handle,
		password: password,
		now:      time.Now,
	}
}

// Login creates a new session with the handle and app password.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	c.xrpcc.Auth = nil

	session, err := comatproto.ServerCreateSession(ctx, c.xrpcc, &comatproto.ServerCreateSession_Input{
		Identifier: c.handle,
		Password:   c.password,
	})
	if err != nil {
		return fmt.Errorf("failed to create session for %s: %w", c.handle, err)
	}

	c.xrpcc.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}
	c.sessionAt = c.now()

	slog.Info("Bluesky session created", "handle", session.Handle, "did", session.Did)
	return nil
}

// refresh swaps an ageing session for a new one, falling back to a full
// login when the refresh token is rejected.
func (c *Client) refresh(ctx context.Context) error {
	if c.xrpcc.Auth == nil {
		return ErrNotLoggedIn
	}
	if c.now().Sub(c.sessionAt) < sessionMaxAge {
		return nil
	}

	session, err := comatproto.ServerRefreshSession(ctx, c.xrpcc)
	if err != nil {
		slog.Warn("Session refresh failed, logging in again", "error", err)
		return c.login(ctx)
	}

	c.xrpcc.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}
	c.sessionAt = c.now()

	slog.Debug("Bluesky session refreshed", "handle", session.Handle)
	return nil
}

// Publish creates a post record and returns its at:// URI.
func (c *Client) Publish(ctx context.Context, text string, facets []post.Facet) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refresh(ctx); err != nil {
		return "", &PublishError{Err: err}
	}

	record := &bsky.FeedPost{
		LexiconTypeID: postCollection,
		Text:          text,
		CreatedAt:     c.now().UTC().Format(time.RFC3339),
		Facets:        RichtextFacets(facets),
	}

	out, err := comatproto.RepoCreateRecord(ctx, c.xrpcc, &comatproto.RepoCreateRecord_Input{
		Collection: postCollection,
		Repo:       c.xrpcc.Auth.Did,
		Record:     &lexutil.LexiconTypeDecoder{Val: record},
	})
	if err != nil {
		return "", &PublishError{Err: err}
	}

	return out.Uri, nil
}

// RichtextFacets converts byte-range facets into app.bsky.richtext.facet
// values.
func RichtextFacets(facets []post.Facet) []*bsky.RichtextFacet {
	if len(facets) == 0 {
		return nil
	}

	out := make([]*bsky.RichtextFacet, 0, len(facets))
	for _, f := range facets {
		var feature *bsky.RichtextFacet_Features_Elem
		switch f.Kind {
		case post.FacetLink:
			feature = &bsky.RichtextFacet_Features_Elem{
				RichtextFacet_Link: &bsky.RichtextFacet_Link{
					LexiconTypeID: "app.bsky.richtext.facet#link",
					Uri:           f.Payload,
				},
			}
		case post.FacetTag:
			feature = &bsky.RichtextFacet_Features_Elem{
				RichtextFacet_Tag: &bsky.RichtextFacet_Tag{
					LexiconTypeID: "app.bsky.richtext.facet#tag",
					Tag:           f.Payload,
				},
			}
		default:
			continue
		}

		out = append(out, &bsky.RichtextFacet{
			Index: &bsky.RichtextFacet_ByteSlice{
				ByteStart: int64(f.ByteStart),
				ByteEnd:   int64(f.ByteEnd),
			},
			Features: []*bsky.RichtextFacet_Features_Elem{feature},
		})
	}
	return out
}
