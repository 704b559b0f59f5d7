package rdf

import (
	"fmt"
	"io"
	"strings"
)

// RDFParser is the interface for parsing RDF data in various formats
type RDFParser interface {
	// Parse parses RDF data from a reader and returns quads
	Parse(reader io.Reader) ([]*Quad, error)

	// ContentType returns the MIME type this parser handles
	ContentType() string
}

// NewParser creates an RDF parser for the content type. The mode is
// threaded into every parser: Strict surfaces syntax errors, Lenient
// recovers past them.
func NewParser(contentType string, mode Mode) (RDFParser, error) {
	// Normalize content type (remove parameters like charset)
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}

	switch ct {
	case "application/n-triples", "text/plain":
		return &NTriplesIOParser{Mode: mode}, nil
	case "application/n-quads":
		return &NQuadsIOParser{Mode: mode}, nil
	case "text/turtle", "application/x-turtle":
		return &TurtleIOParser{Mode: mode}, nil
	case "application/trig", "application/x-trig":
		return &TriGIOParser{Mode: mode}, nil
	case "application/rdf+xml":
		return &RDFXMLIOParser{Mode: mode}, nil
	case "application/ld+json":
		return &JSONLDIOParser{Mode: mode}, nil
	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

// NTriplesIOParser parses N-Triples format (triples only, default graph)
type NTriplesIOParser struct {
	Mode Mode
}

func (p *NTriplesIOParser) ContentType() string {
	return "application/n-triples"
}

func (p *NTriplesIOParser) Parse(reader io.Reader) ([]*Quad, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}
	quads, err := NewNTriplesParser(string(data), p.Mode).Parse()
	if err != nil {
		return nil, fmt.Errorf("error parsing N-Triples: %w", err)
	}
	return quads, nil
}

// NQuadsIOParser parses N-Quads format (quads with optional graph)
type NQuadsIOParser struct {
	Mode Mode
}

func (p *NQuadsIOParser) ContentType() string {
	return "application/n-quads"
}

func (p *NQuadsIOParser) Parse(reader io.Reader) ([]*Quad, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}
	quads, err := NewNQuadsParser(string(data), p.Mode).Parse()
	if err != nil {
		return nil, fmt.Errorf("error parsing N-Quads: %w", err)
	}
	return quads, nil
}

// TurtleIOParser parses Turtle format (triples with prefixes, default graph)
type TurtleIOParser struct {
	Mode Mode
	Base string
}

func (p *TurtleIOParser) ContentType() string {
	return "text/turtle"
}

func (p *TurtleIOParser) Parse(reader io.Reader) ([]*Quad, error) {
	parser := NewTurtleParserFromReader(reader, p.Mode)
	parser.SetBaseURI(p.Base)
	quads, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("error parsing Turtle: %w", err)
	}
	return quads, nil
}

// TriGIOParser parses TriG format (Turtle + named graphs, quads)
type TriGIOParser struct {
	Mode Mode
	Base string
}

func (p *TriGIOParser) ContentType() string {
	return "application/trig"
}

func (p *TriGIOParser) Parse(reader io.Reader) ([]*Quad, error) {
	parser := NewTriGParserFromReader(reader, p.Mode)
	parser.SetBaseURI(p.Base)
	quads, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("error parsing TriG: %w", err)
	}
	return quads, nil
}

// RDFXMLIOParser parses RDF/XML format
type RDFXMLIOParser struct {
	Mode Mode
	Base string
}

func (p *RDFXMLIOParser) ContentType() string {
	return "application/rdf+xml"
}

func (p *RDFXMLIOParser) Parse(reader io.Reader) ([]*Quad, error) {
	parser := NewRDFXMLParser(p.Mode)
	parser.SetBaseURI(p.Base)
	quads, err := parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("error parsing RDF/XML: %w", err)
	}
	return quads, nil
}

// JSONLDIOParser parses JSON-LD format
type JSONLDIOParser struct {
	Mode Mode
	Base string
}

func (p *JSONLDIOParser) ContentType() string {
	return "application/ld+json"
}

func (p *JSONLDIOParser) Parse(reader io.Reader) ([]*Quad, error) {
	parser := NewJSONLDParser(p.Mode)
	parser.SetBaseURI(p.Base)
	quads, err := parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("error parsing JSON-LD: %w", err)
	}
	return quads, nil
}

// GetSupportedContentTypes returns a list of all supported content types
func GetSupportedContentTypes() []string {
	return []string{
		"application/n-triples",
		"application/n-quads",
		"text/turtle",
		"application/x-turtle",
		"application/trig",
		"application/x-trig",
		"application/rdf+xml",
		"application/ld+json",
		"text/plain", // Alias for N-Triples
	}
}
