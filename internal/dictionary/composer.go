package dictionary

import (
	"context"
	"log"
)

// Fetcher retrieves a single word's record. Client.Word and
// Client.SemanticWord both satisfy it.
type Fetcher func(ctx context.Context, word string) (LexicalRecord, error)

// Composer performs the two-level nested lookup on the client: the word's
// own record, then the record of its first synonym.
type Composer struct {
	fetch Fetcher
}

func NewComposer(fetch Fetcher) *Composer {
	return &Composer{fetch: fetch}
}

// Lookup fetches term's record and, when it lists a synonym, the synonym's
// record. The two fetches are sequential: the second depends on the first
// and is never issued when the first fails. Only the primary fetch can fail
// the operation; a synonym whose own lookup fails leaves NestedSynonym nil.
// The composer never retries; that is the caller's decision.
func (c *Composer) Lookup(ctx context.Context, term string) (ComposedLookupResult, error) {
	primary, err := c.fetch(ctx, term)
	if err != nil {
		return ComposedLookupResult{}, err
	}

	result := ComposedLookupResult{Primary: primary}
	synonym := primary.FirstSynonym()
	if synonym == "" {
		return result, nil
	}

	nested, err := c.fetch(ctx, synonym)
	if err != nil {
		log.Printf("dictionary: nested lookup for %q failed: %v", synonym, err)
		return result, nil
	}
	result.NestedSynonym = &nested
	return result, nil
}
