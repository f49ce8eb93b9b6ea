package dictionary

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"lexatlas/client/internal/gateway"
)

// Client fetches lexical data over the gateway. All dictionary routes are
// public: anonymous users can search words.
type Client struct {
	gw *gateway.Gateway
}

func NewClient(gw *gateway.Gateway) *Client {
	return &Client{gw: gw}
}

// Word fetches the plain dictionary record for a word.
func (c *Client) Word(ctx context.Context, word string) (LexicalRecord, error) {
	var out LexicalRecord
	err := c.gw.Do(ctx, http.MethodGet, "/dictionary/"+escapeWord(word), nil, &out)
	return out, err
}

// SemanticWord fetches the semantic-service record for a word. Same shape as
// Word; the service enriches it with a translation when one is available.
func (c *Client) SemanticWord(ctx context.Context, word string) (LexicalRecord, error) {
	var out LexicalRecord
	err := c.gw.Do(ctx, http.MethodGet, "/semantic/word/"+escapeWord(word), nil, &out)
	return out, err
}

// NestedWord fetches the server-side composed shape. The client-side
// Composer produces the same result from two plain fetches; this endpoint
// lets the server do the composition instead.
func (c *Client) NestedWord(ctx context.Context, word string) (ComposedLookupResult, error) {
	var out ComposedLookupResult
	err := c.gw.Do(ctx, http.MethodGet, "/semantic/word/"+escapeWord(word)+"/nested", nil, &out)
	return out, err
}

// Network fetches the extended relational data for a word.
func (c *Client) Network(ctx context.Context, word string) (SemanticNetwork, error) {
	var out SemanticNetwork
	err := c.gw.Do(ctx, http.MethodGet, "/semantic/semantic-network/"+escapeWord(word), nil, &out)
	return out, err
}

// escapeWord normalizes the way the service expects: lowercased, trimmed,
// then path-escaped.
func escapeWord(word string) string {
	return url.PathEscape(strings.ToLower(strings.TrimSpace(word)))
}
