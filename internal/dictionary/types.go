// Package dictionary is the client for the lexical lookup endpoints and the
// nested synonym composition built on top of them.
package dictionary

// Definition is one sense of a meaning.
type Definition struct {
	Definition string `json:"definition"`
	Example    string `json:"example,omitempty"`
}

// Meaning groups a word's definitions under a part of speech.
type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech"`
	Definitions  []Definition `json:"definitions"`
	Synonyms     []string     `json:"synonyms"`
}

// LexicalRecord is the service's record for a single word. Immutable once
// returned; never cached beyond the query that produced it.
type LexicalRecord struct {
	Word        string    `json:"word"`
	Phonetic    string    `json:"phonetic,omitempty"`
	Meanings    []Meaning `json:"meanings"`
	Translation string    `json:"translation,omitempty"`
}

// FirstSynonym returns the first element of the first non-empty synonyms
// list, scanning meanings in declaration order. No ranking is applied.
func (r LexicalRecord) FirstSynonym() string {
	for _, m := range r.Meanings {
		if len(m.Synonyms) > 0 {
			return m.Synonyms[0]
		}
	}
	return ""
}

// ComposedLookupResult pairs a word's record with the record of its first
// synonym. NestedSynonym is nil when the word lists no synonyms or when the
// synonym's own lookup failed.
type ComposedLookupResult struct {
	Primary       LexicalRecord  `json:"primary"`
	NestedSynonym *LexicalRecord `json:"nestedSynonym"`
}

// ScoredRelation is a related word with a relation kind and similarity score.
type ScoredRelation struct {
	Word       string  `json:"word"`
	Type       string  `json:"type"`
	Similarity float64 `json:"similarity"`
}

// SemanticNetwork is the extended relational view of a word: etymology,
// scored synonyms and antonyms, and cognates across languages.
type SemanticNetwork struct {
	Word       string           `json:"word"`
	Etymology  string           `json:"etymology,omitempty"`
	WordFamily string           `json:"wordFamily,omitempty"`
	Synonyms   []ScoredRelation `json:"synonyms"`
	Antonyms   []ScoredRelation `json:"antonyms"`
	Related    []ScoredRelation `json:"relatedWords"`
	Cognates   []string         `json:"cognates"`
}
