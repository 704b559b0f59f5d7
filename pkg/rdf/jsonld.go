package rdf

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/piprate/json-gold/ld"
)

// JSONLDParser parses JSON-LD documents into quads. Expansion, context
// processing, and RDF conversion are delegated to the json-gold
// processor; its N-Quads output feeds the native N-Quads parser so the
// rest of the pipeline sees the same term model as every other format.
type JSONLDParser struct {
	mode    Mode
	baseIRI string
}

// NewJSONLDParser creates a JSON-LD parser.
func NewJSONLDParser(mode Mode) *JSONLDParser {
	return &JSONLDParser{mode: mode}
}

// SetBaseURI sets the base IRI used during context processing.
func (p *JSONLDParser) SetBaseURI(base string) {
	p.baseIRI = base
}

// Parse reads a complete JSON-LD document and returns its quads.
func (p *JSONLDParser) Parse(reader io.Reader) ([]*Quad, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading JSON-LD: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing JSON-LD: %w", err)
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions(p.baseIRI)
	opts.Format = "application/n-quads"
	nquads, err := proc.ToRDF(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("error converting JSON-LD to RDF: %w", err)
	}
	serialized, ok := nquads.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected JSON-LD serialization type %T", nquads)
	}

	return NewNQuadsParser(serialized, p.mode).Parse()
}
