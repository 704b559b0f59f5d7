package rdf

import (
	"github.com/aleksaelezovic/rdfkit/internal/xmlutil"
)

// DatatypeValue is the typed view of a literal: a canonical-form string
// plus a materialized native value. The set of variants is closed;
// datatype IRIs without a dedicated variant fall back to UnknownValue.
type DatatypeValue interface {
	// DatatypeIRI returns the datatype this value was derived for.
	DatatypeIRI() string
	// CanonicalForm returns the canonical lexical representation.
	CanonicalForm() string
	// Native returns the materialized Go value.
	Native() any
}

// StringValue is an xsd:string literal value.
type StringValue struct {
	Lexical string
}

func (v StringValue) DatatypeIRI() string   { return XSDString.IRI }
func (v StringValue) CanonicalForm() string { return v.Lexical }
func (v StringValue) Native() any           { return v.Lexical }

// LangStringValue is an rdf:langString literal value.
type LangStringValue struct {
	Lexical  string
	Language string
}

func (v LangStringValue) DatatypeIRI() string   { return RDFLangString.IRI }
func (v LangStringValue) CanonicalForm() string { return v.Lexical }
func (v LangStringValue) Native() any           { return v.Lexical }

// XMLLiteralValue is an rdf:XMLLiteral value whose canonical form is the
// exclusive XML canonicalization of the lexical form parsed as a
// document fragment.
type XMLLiteralValue struct {
	Lexical   string
	canonical string
}

func (v XMLLiteralValue) DatatypeIRI() string   { return RDFXMLLiteral.IRI }
func (v XMLLiteralValue) CanonicalForm() string { return v.canonical }
func (v XMLLiteralValue) Native() any           { return v.canonical }

// UnknownValue is the fallback for datatype IRIs this library does not
// interpret. Its canonical form equals the lexical form.
type UnknownValue struct {
	IRI     string
	Lexical string
}

func (v UnknownValue) DatatypeIRI() string   { return v.IRI }
func (v UnknownValue) CanonicalForm() string { return v.Lexical }
func (v UnknownValue) Native() any           { return v.Lexical }

// TypedValue derives the datatype instance for the literal. The instance
// is computed on first use and cached on the literal.
func (l *Literal) TypedValue() DatatypeValue {
	if l.typed != nil {
		return l.typed
	}
	l.typed = deriveValue(l)
	return l.typed
}

func deriveValue(l *Literal) DatatypeValue {
	switch l.datatypeIRI() {
	case XSDString.IRI:
		return StringValue{Lexical: l.Value}
	case RDFLangString.IRI:
		return LangStringValue{Lexical: l.Value, Language: l.Language}
	case RDFXMLLiteral.IRI:
		nodes, err := xmlutil.ParseFragment(l.Value, nil)
		if err != nil {
			// Unparseable XML degrades to the unknown variant.
			return UnknownValue{IRI: RDFXMLLiteral.IRI, Lexical: l.Value}
		}
		return XMLLiteralValue{Lexical: l.Value, canonical: xmlutil.CanonicalFragment(nodes)}
	default:
		return UnknownValue{IRI: l.datatypeIRI(), Lexical: l.Value}
	}
}

// ValueEquals compares two literals by the canonical forms of their
// datatype values rather than by their raw lexical forms.
func (l *Literal) ValueEquals(other *Literal) bool {
	if l.datatypeIRI() != other.datatypeIRI() || l.Language != other.Language {
		return false
	}
	return l.TypedValue().CanonicalForm() == other.TypedValue().CanonicalForm()
}
