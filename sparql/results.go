package sparql

import (
	"encoding/json"
	"fmt"
)

// Term is one RDF term in a result binding, as defined by the SPARQL
// 1.1 Query Results JSON Format.
type Term struct {
	Type     string `json:"type"` // uri | literal | bnode
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Binding maps variable names to terms for one solution.
type Binding map[string]Term

// Results is a parsed SPARQL query result document. SELECT queries fill
// Head and Bindings; ASK queries fill Boolean.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

// ParseResults decodes a results document from raw response bytes.
func ParseResults(raw []byte) (*Results, error) {
	var r Results
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("sparql: decode results: %w", err)
	}
	return &r, nil
}

// IsAsk reports whether the document answers an ASK query.
func (r *Results) IsAsk() bool { return r.Boolean != nil }

// Len returns the number of solutions.
func (r *Results) Len() int { return len(r.Results.Bindings) }

// Column collects the values bound to one variable across all solutions.
// Unbound rows are skipped.
func (r *Results) Column(name string) []string {
	out := make([]string, 0, r.Len())
	for _, b := range r.Results.Bindings {
		if term, ok := b[name]; ok {
			out = append(out, term.Value)
		}
	}
	return out
}
