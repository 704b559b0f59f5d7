package results

import (
	"encoding/xml"
	"fmt"

	"github.com/aleksaelezovic/rdfkit/pkg/rdf"
)

// SPARQL XML Results Format
// https://www.w3.org/TR/rdf-sparql-XMLres/

type uriXML struct {
	XMLName xml.Name `xml:"uri"`
	Value   string   `xml:",chardata"`
}

type bnodeXML struct {
	XMLName xml.Name `xml:"bnode"`
	Value   string   `xml:",chardata"`
}

type literalXML struct {
	XMLName  xml.Name `xml:"literal"`
	Lang     string   `xml:"xml:lang,attr,omitempty"`
	Datatype string   `xml:"datatype,attr,omitempty"`
	Value    string   `xml:",chardata"`
}

// MarshalTermXML renders a term as its SPARQL results XML element:
// <uri>, <bnode>, or <literal> with an xml:lang or datatype attribute.
func MarshalTermXML(term rdf.Term) ([]byte, error) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return xml.Marshal(uriXML{Value: t.IRI})
	case *rdf.BlankNode:
		return xml.Marshal(bnodeXML{Value: t.ID})
	case *rdf.Literal:
		lit := literalXML{Value: t.Value}
		if t.Language != "" {
			lit.Lang = t.Language
		} else if t.Datatype != nil && t.Datatype.IRI != rdf.XSDString.IRI {
			lit.Datatype = t.Datatype.IRI
		}
		return xml.Marshal(lit)
	}
	return nil, fmt.Errorf("term %T has no SPARQL results encoding", term)
}

// termElementXML is the decoding shape shared by the three elements.
type termElementXML struct {
	XMLName  xml.Name
	Lang     string `xml:"lang,attr"`
	Datatype string `xml:"datatype,attr"`
	Value    string `xml:",chardata"`
}

// UnmarshalTermXML parses a <uri>, <bnode>, or <literal> element into a
// term.
func UnmarshalTermXML(data []byte) (rdf.Term, error) {
	var e termElementXML
	if err := xml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse XML term: %w", err)
	}
	switch e.XMLName.Local {
	case "uri":
		return rdf.NewNamedNode(e.Value), nil
	case "bnode":
		return rdf.NewBlankNode(e.Value), nil
	case "literal":
		if e.Lang != "" {
			return rdf.NewLiteralWithLanguage(e.Value, e.Lang), nil
		}
		if e.Datatype != "" {
			return rdf.NewLiteralWithDatatype(e.Value, rdf.NewNamedNode(e.Datatype)), nil
		}
		return rdf.NewLiteral(e.Value), nil
	}
	return nil, fmt.Errorf("unknown results element <%s>", e.XMLName.Local)
}
