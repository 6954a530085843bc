package domain

import "github.com/goccy/go-json"

// Document is one named-collection entry: a store identifier plus an
// arbitrary field map. The identifier is never itself a field — it lives on
// the wrapper and is recombined with the content only when the document is
// rendered to a caller.
type Document struct {
	ID     string
	Fields map[string]any
}

// MarshalJSON renders the document as a flat object with the identifier
// folded in as "id".
func (d Document) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		m[k] = v
	}
	m["id"] = d.ID
	return json.Marshal(m)
}
