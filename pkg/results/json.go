// Package results implements the per-term codecs of the SPARQL 1.1
// Query Results JSON and XML formats. Only the term-level shapes live
// here; the surrounding results envelope (head, bindings, boolean) is a
// transport concern outside this library.
package results

import (
	"encoding/json"
	"fmt"

	"github.com/aleksaelezovic/rdfkit/pkg/rdf"
)

// SPARQL JSON Results Format
// https://www.w3.org/TR/sparql11-results-json/

// TermJSON is the JSON shape of a single RDF term.
type TermJSON struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Language string `json:"language,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// EncodeTermJSON converts a term to its JSON shape. Language-tagged
// literals carry the language field and no datatype; other literals
// carry the datatype only when it is not xsd:string.
func EncodeTermJSON(term rdf.Term) (TermJSON, error) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return TermJSON{Type: "uri", Value: t.IRI}, nil
	case *rdf.BlankNode:
		return TermJSON{Type: "bnode", Value: t.ID}, nil
	case *rdf.Literal:
		tv := TermJSON{Type: "literal", Value: t.Value}
		if t.Language != "" {
			tv.Language = t.Language
			return tv, nil
		}
		if t.Datatype != nil && t.Datatype.IRI != rdf.XSDString.IRI {
			tv.Datatype = t.Datatype.IRI
		}
		return tv, nil
	}
	return TermJSON{}, fmt.Errorf("term %T has no SPARQL results encoding", term)
}

// DecodeTermJSON converts the JSON shape back to a term.
func DecodeTermJSON(v TermJSON) (rdf.Term, error) {
	switch v.Type {
	case "uri":
		return rdf.NewNamedNode(v.Value), nil
	case "bnode":
		return rdf.NewBlankNode(v.Value), nil
	case "literal", "typed-literal":
		if v.Language != "" {
			return rdf.NewLiteralWithLanguage(v.Value, v.Language), nil
		}
		if v.Datatype != "" {
			return rdf.NewLiteralWithDatatype(v.Value, rdf.NewNamedNode(v.Datatype)), nil
		}
		return rdf.NewLiteral(v.Value), nil
	}
	return nil, fmt.Errorf("unknown binding type %q", v.Type)
}

// MarshalTermJSON renders a term as a JSON object.
func MarshalTermJSON(term rdf.Term) ([]byte, error) {
	v, err := EncodeTermJSON(term)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// UnmarshalTermJSON parses a JSON object into a term.
func UnmarshalTermJSON(data []byte) (rdf.Term, error) {
	var v TermJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse JSON term: %w", err)
	}
	return DecodeTermJSON(v)
}
