package results

import (
	"strings"
	"testing"

	"github.com/aleksaelezovic/rdfkit/pkg/rdf"
)

func TestMarshalTermJSON_Shapes(t *testing.T) {
	cases := []struct {
		term rdf.Term
		want string
	}{
		{rdf.NewNamedNode("https://example.com/x"), `{"type":"uri","value":"https://example.com/x"}`},
		{rdf.NewBlankNode("b0"), `{"type":"bnode","value":"b0"}`},
		{rdf.NewLiteral("plain"), `{"type":"literal","value":"plain"}`},
		{rdf.NewLiteralWithLanguage("hi", "en"), `{"type":"literal","value":"hi","language":"en"}`},
		{rdf.NewLiteralWithDatatype("5", rdf.XSDInteger), `{"type":"literal","value":"5","datatype":"http://www.w3.org/2001/XMLSchema#integer"}`},
	}
	for _, c := range cases {
		got, err := MarshalTermJSON(c.term)
		if err != nil {
			t.Fatalf("MarshalTermJSON(%v) failed: %v", c.term, err)
		}
		if string(got) != c.want {
			t.Errorf("Expected %s, got %s", c.want, got)
		}
	}
}

func TestJSON_LangStringOmitsDatatype(t *testing.T) {
	got, err := MarshalTermJSON(rdf.NewLiteralWithLanguage("hi", "en"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(got), "datatype") {
		t.Errorf("langString is indicated via the language field only, got %s", got)
	}
	if !strings.Contains(string(got), `"language":"en"`) {
		t.Errorf("Expected a language field, got %s", got)
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	terms := []rdf.Term{
		rdf.NewNamedNode("https://example.com/x"),
		rdf.NewBlankNode("b0"),
		rdf.NewLiteral("plain"),
		rdf.NewLiteralWithLanguage("hi", "en"),
		rdf.NewLiteralWithDatatype("5", rdf.XSDInteger),
	}
	for _, term := range terms {
		data, err := MarshalTermJSON(term)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		back, err := UnmarshalTermJSON(data)
		if err != nil {
			t.Fatalf("Unmarshal of %s failed: %v", data, err)
		}
		if !term.Equals(back) {
			t.Errorf("Round trip of %v yielded %v", term, back)
		}
	}
}

func TestJSON_UnknownType(t *testing.T) {
	if _, err := UnmarshalTermJSON([]byte(`{"type":"mystery","value":"x"}`)); err == nil {
		t.Error("Unknown binding types are errors")
	}
}

func TestMarshalTermXML_Shapes(t *testing.T) {
	cases := []struct {
		term rdf.Term
		want string
	}{
		{rdf.NewNamedNode("https://example.com/x"), `<uri>https://example.com/x</uri>`},
		{rdf.NewBlankNode("b0"), `<bnode>b0</bnode>`},
		{rdf.NewLiteral("plain"), `<literal>plain</literal>`},
		{rdf.NewLiteralWithLanguage("hi", "en"), `<literal xml:lang="en">hi</literal>`},
		{rdf.NewLiteralWithDatatype("5", rdf.XSDInteger), `<literal datatype="http://www.w3.org/2001/XMLSchema#integer">5</literal>`},
	}
	for _, c := range cases {
		got, err := MarshalTermXML(c.term)
		if err != nil {
			t.Fatalf("MarshalTermXML(%v) failed: %v", c.term, err)
		}
		if string(got) != c.want {
			t.Errorf("Expected %s, got %s", c.want, got)
		}
	}
}

func TestXML_RoundTrip(t *testing.T) {
	terms := []rdf.Term{
		rdf.NewNamedNode("https://example.com/x"),
		rdf.NewBlankNode("b0"),
		rdf.NewLiteral("plain"),
		rdf.NewLiteralWithLanguage("hi", "en"),
		rdf.NewLiteralWithDatatype("5", rdf.XSDInteger),
	}
	for _, term := range terms {
		data, err := MarshalTermXML(term)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		back, err := UnmarshalTermXML(data)
		if err != nil {
			t.Fatalf("Unmarshal of %s failed: %v", data, err)
		}
		if !term.Equals(back) {
			t.Errorf("Round trip of %v yielded %v", term, back)
		}
	}
}

func TestXML_UnknownElement(t *testing.T) {
	if _, err := UnmarshalTermXML([]byte(`<mystery>x</mystery>`)); err == nil {
		t.Error("Unknown result elements are errors")
	}
}
