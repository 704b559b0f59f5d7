package rdf

import (
	"github.com/aleksaelezovic/rdfkit/internal/encoding"
)

// Dataset is an ordered sequence of quads. It is constructed once, from
// a finite slice or a streamed parse, and never mutated afterward.
// Deduplication is available as a view via Unique.
type Dataset struct {
	quads []*Quad
}

// NewDataset builds a dataset from quads in the given order.
func NewDataset(quads ...*Quad) *Dataset {
	return &Dataset{quads: quads}
}

// Quads returns the underlying sequence in insertion order. The slice is
// shared; callers must not modify it.
func (d *Dataset) Quads() []*Quad {
	return d.quads
}

// Len returns the number of quads, duplicates included.
func (d *Dataset) Len() int {
	return len(d.quads)
}

// termKey fingerprints a term for deduplication. Literal payloads
// separate lexical form, language, and datatype with NUL bytes so
// "a"@en and "a@en" stay distinct.
func termKey(t Term) encoding.TermKey {
	switch term := t.(type) {
	case *NamedNode:
		return encoding.NewTermKey(byte(TermTypeNamedNode), term.IRI)
	case *BlankNode:
		return encoding.NewTermKey(byte(TermTypeBlankNode), term.ID)
	case *Literal:
		payload := term.Value + "\x00" + term.Language + "\x00" + term.datatypeIRI()
		return encoding.NewTermKey(byte(TermTypeLiteral), payload)
	default:
		return encoding.NewTermKey(byte(TermTypeDefaultGraph), "")
	}
}

// quadFingerprint fingerprints a quad. With skipGraph the graph slot
// stays zero so quads compare as triples.
func quadFingerprint(q *Quad, skipGraph bool) encoding.QuadKey {
	var graph encoding.TermKey
	if !skipGraph && q.Graph != nil {
		graph = termKey(q.Graph)
	}
	return encoding.NewQuadKey(termKey(q.Subject), termKey(q.Predicate), termKey(q.Object), graph)
}

// Unique returns each distinct quad once, first occurrence first. With
// skipGraph, quads are compared as triples (graph ignored) and the first
// quad of each triple group represents it. Distinctness uses term
// equality of each component.
func (d *Dataset) Unique(skipGraph bool) []*Quad {
	seen := make(map[encoding.QuadKey]bool, len(d.quads))
	var out []*Quad
	for _, q := range d.quads {
		key := quadFingerprint(q, skipGraph)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}

// BlankNodeIDs returns the distinct blank-node identifiers mentioned in
// subject, object, or graph position, in first-mention order.
func (d *Dataset) BlankNodeIDs() []string {
	seen := make(map[string]bool)
	var out []string
	note := func(t Term) {
		if b, ok := t.(*BlankNode); ok && !seen[b.ID] {
			seen[b.ID] = true
			out = append(out, b.ID)
		}
	}
	for _, q := range d.quads {
		note(q.Subject)
		note(q.Object)
		note(q.Graph)
	}
	return out
}

// RenameBlankNodes produces a new dataset with every blank-node
// identifier mapped through f.
func (d *Dataset) RenameBlankNodes(f func(id string) string) *Dataset {
	out := make([]*Quad, len(d.quads))
	for i, q := range d.quads {
		out[i] = q.RenameBlankNodes(f)
	}
	return NewDataset(out...)
}
