package rdf

import (
	"strings"
	"testing"
)

func parseRDFXML(t *testing.T, doc string) []*Quad {
	t.Helper()
	p := NewRDFXMLParser(Strict)
	p.SetBaseURI("https://example.com/doc")
	quads, err := p.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return quads
}

func findQuad(quads []*Quad, predicate string) *Quad {
	for _, q := range quads {
		if p, ok := q.Predicate.(*NamedNode); ok && p.IRI == predicate {
			return q
		}
	}
	return nil
}

func TestRDFXML_DescriptionAbout(t *testing.T) {
	doc := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="https://example.com/thing">
    <ex:name>Widget</ex:name>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	if len(quads) != 1 {
		t.Fatalf("Expected 1 quad, got %d", len(quads))
	}
	q := quads[0]
	if q.Subject.(*NamedNode).IRI != "https://example.com/thing" {
		t.Errorf("Unexpected subject: %v", q.Subject)
	}
	if q.Predicate.(*NamedNode).IRI != "https://example.com/ns#name" {
		t.Errorf("Unexpected predicate: %v", q.Predicate)
	}
	if q.Object.(*Literal).Value != "Widget" {
		t.Errorf("Unexpected object: %v", q.Object)
	}
}

func TestRDFXML_TypedNodeElement(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <ex:Person rdf:about="https://example.com/alice"/>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	q := findQuad(quads, RDFType.IRI)
	if q == nil {
		t.Fatal("Typed node elements assert rdf:type")
	}
	if q.Object.(*NamedNode).IRI != "https://example.com/ns#Person" {
		t.Errorf("Unexpected type: %v", q.Object)
	}
}

func TestRDFXML_OuterNodeElementWithoutRDFWrapper(t *testing.T) {
	doc := `<ex:Person xmlns:ex="https://example.com/ns#" xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" rdf:about="https://example.com/alice"/>`
	quads := parseRDFXML(t, doc)
	if len(quads) != 1 || quads[0].Predicate.(*NamedNode).IRI != RDFType.IRI {
		t.Errorf("A bare node element may be the document root, got %v", quads)
	}
}

func TestRDFXML_ResourceAndNodeID(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="https://example.com/a">
    <ex:knows rdf:resource="https://example.com/b"/>
    <ex:likes rdf:nodeID="n1"/>
  </rdf:Description>
  <rdf:Description rdf:nodeID="n1">
    <ex:name>Bob</ex:name>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	knows := findQuad(quads, "https://example.com/ns#knows")
	if knows == nil || knows.Object.(*NamedNode).IRI != "https://example.com/b" {
		t.Errorf("rdf:resource object wrong: %v", knows)
	}
	likes := findQuad(quads, "https://example.com/ns#likes")
	name := findQuad(quads, "https://example.com/ns#name")
	if likes == nil || name == nil {
		t.Fatal("Expected both nodeID quads")
	}
	if likes.Object.(*BlankNode).ID != name.Subject.(*BlankNode).ID {
		t.Error("rdf:nodeID must denote the same blank node document-wide")
	}
}

func TestRDFXML_RelativeResolution(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="thing">
    <ex:p rdf:resource="other"/>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	q := quads[0]
	if q.Subject.(*NamedNode).IRI != "https://example.com/thing" {
		t.Errorf("rdf:about must resolve against the base: %v", q.Subject)
	}
	if q.Object.(*NamedNode).IRI != "https://example.com/other" {
		t.Errorf("rdf:resource must resolve against the base: %v", q.Object)
	}
}

func TestRDFXML_XMLBase(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#" xml:base="https://other.org/dir/">
  <rdf:Description rdf:about="x">
    <ex:p rdf:resource="y"/>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	if quads[0].Subject.(*NamedNode).IRI != "https://other.org/dir/x" {
		t.Errorf("xml:base must override the document base: %v", quads[0].Subject)
	}
}

func TestRDFXML_RdfID(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:ID="frag"><ex:p>v</ex:p></rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	if quads[0].Subject.(*NamedNode).IRI != "https://example.com/doc#frag" {
		t.Errorf("rdf:ID resolves to base#ID: %v", quads[0].Subject)
	}
}

func TestRDFXML_DuplicateIDStrict(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:ID="frag"><ex:p>1</ex:p></rdf:Description>
  <rdf:Description rdf:ID="frag"><ex:p>2</ex:p></rdf:Description>
</rdf:RDF>`
	p := NewRDFXMLParser(Strict)
	p.SetBaseURI("https://example.com/doc")
	if _, err := p.Parse(strings.NewReader(doc)); err == nil {
		t.Error("Duplicate rdf:ID values are errors in strict mode")
	}
}

func TestRDFXML_LanguageInheritance(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#" xml:lang="de">
  <rdf:Description rdf:about="https://example.com/a">
    <ex:p>hallo</ex:p>
    <ex:q xml:lang="en">hello</ex:q>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	p := findQuad(quads, "https://example.com/ns#p").Object.(*Literal)
	q := findQuad(quads, "https://example.com/ns#q").Object.(*Literal)
	if p.Language != "de" || q.Language != "en" {
		t.Errorf("Language inheritance wrong: %q / %q", p.Language, q.Language)
	}
	if p.Datatype.IRI != RDFLangString.IRI {
		t.Error("Language-tagged content is rdf:langString")
	}
}

func TestRDFXML_DatatypedLiteral(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="https://example.com/a">
    <ex:count rdf:datatype="http://www.w3.org/2001/XMLSchema#integer">5</ex:count>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	lit := quads[0].Object.(*Literal)
	if lit.Value != "5" || lit.Datatype.IRI != XSDInteger.IRI {
		t.Errorf("Unexpected literal: %v", lit)
	}
}

func TestRDFXML_NestedNodeElement(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="https://example.com/a">
    <ex:knows>
      <rdf:Description rdf:about="https://example.com/b"/>
    </ex:knows>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	if len(quads) != 1 {
		t.Fatalf("Expected 1 quad, got %d", len(quads))
	}
	if quads[0].Object.(*NamedNode).IRI != "https://example.com/b" {
		t.Errorf("The nested element's subject becomes the object: %v", quads[0].Object)
	}
}

func TestRDFXML_PropertyAttributes(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="https://example.com/a" ex:name="Widget" ex:size="large"/>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	if len(quads) != 2 {
		t.Fatalf("Expected 2 quads from property attributes, got %d", len(quads))
	}
	name := findQuad(quads, "https://example.com/ns#name")
	if name == nil || name.Object.(*Literal).Value != "Widget" {
		t.Errorf("Property attribute missing: %v", quads)
	}
}

func TestRDFXML_ParseTypeResource(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="https://example.com/a">
    <ex:address rdf:parseType="Resource">
      <ex:city>Berlin</ex:city>
    </ex:address>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	if len(quads) != 2 {
		t.Fatalf("Expected 2 quads, got %d", len(quads))
	}
	city := findQuad(quads, "https://example.com/ns#city")
	address := findQuad(quads, "https://example.com/ns#address")
	if city.Subject.(*BlankNode).ID != address.Object.(*BlankNode).ID {
		t.Error("parseType=Resource properties attach to the implied blank node")
	}
}

func TestRDFXML_ParseTypeCollection(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="https://example.com/a">
    <ex:items rdf:parseType="Collection">
      <rdf:Description rdf:about="https://example.com/x"/>
      <rdf:Description rdf:about="https://example.com/y"/>
    </ex:items>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	var firsts, rests, nilRests int
	for _, q := range quads {
		switch q.Predicate.(*NamedNode).IRI {
		case RDFFirst.IRI:
			firsts++
		case RDFRest.IRI:
			rests++
			if o, ok := q.Object.(*NamedNode); ok && o.IRI == RDFNil.IRI {
				nilRests++
			}
		}
	}
	if firsts != 2 || rests != 2 || nilRests != 1 {
		t.Errorf("Collection shape wrong: firsts=%d rests=%d nil=%d", firsts, rests, nilRests)
	}
}

func TestRDFXML_ParseTypeLiteral(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="https://example.com/a">
    <ex:body rdf:parseType="Literal"><ex:b attr="v">bold</ex:b> text</ex:body>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	lit := quads[0].Object.(*Literal)
	if lit.Datatype.IRI != RDFXMLLiteral.IRI {
		t.Fatalf("parseType=Literal yields rdf:XMLLiteral, got %v", lit.Datatype)
	}
	want := `<ex:b xmlns:ex="https://example.com/ns#" attr="v">bold</ex:b> text`
	if lit.Value != want {
		t.Errorf("Expected lexical %q, got %q", want, lit.Value)
	}
}

func TestRDFXML_Reification(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="https://example.com/a">
    <ex:p rdf:ID="st">value</ex:p>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	if len(quads) != 5 {
		t.Fatalf("Expected the statement plus 4 reification quads, got %d", len(quads))
	}
	typeQuad := findQuad(quads, RDFType.IRI)
	if typeQuad == nil || typeQuad.Object.(*NamedNode).IRI != RDFStatement.IRI {
		t.Error("Reification asserts rdf:type rdf:Statement")
	}
	if typeQuad.Subject.(*NamedNode).IRI != "https://example.com/doc#st" {
		t.Errorf("Statement name wrong: %v", typeQuad.Subject)
	}
	if findQuad(quads, RDFSubject.IRI) == nil || findQuad(quads, RDFPredicate.IRI) == nil || findQuad(quads, RDFObject.IRI) == nil {
		t.Error("Reification asserts subject, predicate, and object quads")
	}
}

func TestRDFXML_Containers(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="https://example.com/a">
    <ex:members>
      <rdf:Bag>
        <rdf:li>one</rdf:li>
        <rdf:li>two</rdf:li>
      </rdf:Bag>
    </ex:members>
  </rdf:Description>
</rdf:RDF>`
	quads := parseRDFXML(t, doc)
	one := findQuad(quads, rdfNS+"_1")
	two := findQuad(quads, rdfNS+"_2")
	if one == nil || two == nil {
		t.Fatal("rdf:li auto-numbers to rdf:_1, rdf:_2")
	}
	if one.Object.(*Literal).Value != "one" || two.Object.(*Literal).Value != "two" {
		t.Errorf("Container members wrong: %v / %v", one.Object, two.Object)
	}
	bagType := findQuad(quads, RDFType.IRI)
	if bagType == nil || bagType.Object.(*NamedNode).IRI != rdfNS+"Bag" {
		t.Error("The container node is typed rdf:Bag")
	}
}

func TestRDFXML_ForbiddenNodeElement(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:li rdf:about="https://example.com/a"/>
</rdf:RDF>`
	p := NewRDFXMLParser(Strict)
	if _, err := p.Parse(strings.NewReader(doc)); err == nil {
		t.Error("rdf:li is forbidden as a node element in strict mode")
	}
	lenient := NewRDFXMLParser(Lenient)
	if _, err := lenient.Parse(strings.NewReader(doc)); err != nil {
		t.Errorf("Lenient mode should tolerate forbidden names, got %v", err)
	}
}

func TestRDFXML_LenientBareRootRecovers(t *testing.T) {
	// The outermost element is a node element (no rdf:RDF wrapper) with
	// conflicting subject attributes: strict mode errors, lenient mode
	// recovers without aborting the parse.
	doc := `<ex:Person xmlns:ex="https://example.com/ns#" xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" rdf:about="https://example.com/a" rdf:ID="a"/>`
	p := NewRDFXMLParser(Strict)
	p.SetBaseURI("https://example.com/doc")
	if _, err := p.Parse(strings.NewReader(doc)); err == nil {
		t.Error("Conflicting subject attributes are errors in strict mode")
	}
	lenient := NewRDFXMLParser(Lenient)
	lenient.SetBaseURI("https://example.com/doc")
	if _, err := lenient.Parse(strings.NewReader(doc)); err != nil {
		t.Errorf("Lenient mode must recover past the bad element, got %v", err)
	}
}

func TestRDFXML_EmptyBaseBehaviour(t *testing.T) {
	// With no caller-supplied base, relative references pass through
	// unresolved.
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:ex="https://example.com/ns#">
  <rdf:Description rdf:about="relative"><ex:p>v</ex:p></rdf:Description>
</rdf:RDF>`
	p := NewRDFXMLParser(Strict)
	quads, err := p.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if quads[0].Subject.(*NamedNode).IRI != "relative" {
		t.Errorf("Expected the unresolved reference, got %v", quads[0].Subject)
	}
}
