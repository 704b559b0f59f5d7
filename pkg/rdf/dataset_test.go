package rdf

import (
	"testing"
)

func ex(local string) *NamedNode {
	return NewNamedNode("https://example.com/" + local)
}

func TestDataset_QuadsOrder(t *testing.T) {
	q1 := NewQuad(ex("a"), ex("p"), NewLiteral("1"), nil)
	q2 := NewQuad(ex("b"), ex("p"), NewLiteral("2"), nil)
	d := NewDataset(q1, q2)
	quads := d.Quads()
	if len(quads) != 2 || quads[0] != q1 || quads[1] != q2 {
		t.Error("Quads must iterate in insertion order")
	}
}

func TestDataset_Unique(t *testing.T) {
	q1 := NewQuad(ex("a"), ex("p"), NewLiteral("1"), nil)
	q1dup := NewQuad(ex("a"), ex("p"), NewLiteral("1"), nil)
	q2 := NewQuad(ex("a"), ex("p"), NewLiteral("1"), ex("g"))
	d := NewDataset(q1, q1dup, q2)

	unique := d.Unique(false)
	if len(unique) != 2 {
		t.Errorf("Expected 2 distinct quads, got %d", len(unique))
	}
	if unique[0] != q1 {
		t.Error("Unique keeps the first occurrence")
	}

	// As triples, the graph difference disappears.
	asTriples := d.Unique(true)
	if len(asTriples) != 1 {
		t.Errorf("Expected 1 distinct triple, got %d", len(asTriples))
	}
}

func TestDataset_UniqueTermEquality(t *testing.T) {
	// Equality is term equality: a langString and a plain literal with
	// the same lexical form are distinct.
	q1 := NewQuad(ex("a"), ex("p"), NewLiteral("x"), nil)
	q2 := NewQuad(ex("a"), ex("p"), NewLiteralWithLanguage("x", "en"), nil)
	d := NewDataset(q1, q2)
	if len(d.Unique(false)) != 2 {
		t.Error("Term equality must distinguish language-tagged literals")
	}
}

func TestDataset_BlankNodeIDs(t *testing.T) {
	d := NewDataset(
		NewQuad(NewBlankNode("s"), ex("p"), NewBlankNode("o"), nil),
		NewQuad(NewBlankNode("s"), ex("p"), ex("x"), NewBlankNode("g")),
	)
	ids := d.BlankNodeIDs()
	if len(ids) != 3 {
		t.Fatalf("Expected 3 blank node ids, got %v", ids)
	}
	if ids[0] != "s" || ids[1] != "o" || ids[2] != "g" {
		t.Errorf("Expected first-mention order s,o,g, got %v", ids)
	}
}

func TestDataset_RenameBlankNodes(t *testing.T) {
	d := NewDataset(NewQuad(NewBlankNode("a"), ex("p"), NewBlankNode("b"), nil))
	renamed := d.RenameBlankNodes(func(id string) string { return "c14n_" + id })
	q := renamed.Quads()[0]
	if q.Subject.(*BlankNode).ID != "c14n_a" || q.Object.(*BlankNode).ID != "c14n_b" {
		t.Errorf("Rename missed components: %v", q)
	}
	if d.Quads()[0].Subject.(*BlankNode).ID != "a" {
		t.Error("The source dataset must stay untouched")
	}
}
