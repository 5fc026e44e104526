package sparql

import "testing"

const selectDoc = `{
  "head": {"vars": ["item", "itemLabel"]},
  "results": {"bindings": [
    {"item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q42"},
     "itemLabel": {"type": "literal", "value": "Douglas Adams", "xml:lang": "en"}},
    {"item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q1"}}
  ]}
}`

func TestParseResults_Select(t *testing.T) {
	r, err := ParseResults([]byte(selectDoc))
	if err != nil {
		t.Fatalf("ParseResults failed: %v", err)
	}

	if got := r.Head.Vars; len(got) != 2 || got[0] != "item" {
		t.Errorf("Vars = %v", got)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
	if r.IsAsk() {
		t.Error("SELECT document should not report IsAsk")
	}

	label := r.Results.Bindings[0]["itemLabel"]
	if label.Value != "Douglas Adams" || label.Lang != "en" {
		t.Errorf("itemLabel = %+v", label)
	}

	// Column skips the row without an itemLabel binding.
	if got := r.Column("itemLabel"); len(got) != 1 || got[0] != "Douglas Adams" {
		t.Errorf("Column(itemLabel) = %v", got)
	}
	if got := r.Column("item"); len(got) != 2 {
		t.Errorf("Column(item) = %v", got)
	}
}

func TestParseResults_Ask(t *testing.T) {
	r, err := ParseResults([]byte(`{"head":{},"boolean":true}`))
	if err != nil {
		t.Fatalf("ParseResults failed: %v", err)
	}
	if !r.IsAsk() || !*r.Boolean {
		t.Errorf("ASK document = %+v, want boolean true", r)
	}
}

func TestParseResults_Corrupt(t *testing.T) {
	if _, err := ParseResults([]byte("<html>not json</html>")); err == nil {
		t.Error("ParseResults should reject non-JSON input")
	}
}
