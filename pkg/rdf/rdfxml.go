package rdf

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/aleksaelezovic/rdfkit/internal/xmlutil"
	"github.com/aleksaelezovic/rdfkit/pkg/iri"
)

// RDFXMLParser parses RDF/XML. It drives the pull reader of
// encoding/xml directly: no DOM is built for the document, only a local
// sub-tree for parseType="Literal" content. The element stack lives in
// frames threaded through the recursive productions, each carrying the
// inherited base IRI, language, and namespace scope.
type RDFXMLParser struct {
	mode         Mode
	documentBase string

	bnodeCounter int
	nodeIDMap    map[string]string // rdf:nodeID label -> document-local id
	usedIDs      map[string]bool   // rdf:ID values seen, for duplicate detection

	quads []*Quad
}

// NewRDFXMLParser creates an RDF/XML parser.
func NewRDFXMLParser(mode Mode) *RDFXMLParser {
	return &RDFXMLParser{
		mode:      mode,
		nodeIDMap: make(map[string]string),
		usedIDs:   make(map[string]bool),
	}
}

// SetBaseURI sets the document base URI used to resolve relative
// references and rdf:ID values. Without a caller-supplied base the
// empty string is used, and relative references pass through unresolved.
func (p *RDFXMLParser) SetBaseURI(base string) {
	// Strip any fragment per RFC 3986 section 5.1.
	if idx := strings.Index(base, "#"); idx != -1 {
		base = base[:idx]
	}
	p.documentBase = base
}

const (
	rdfNS = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	xmlNS = "http://www.w3.org/XML/1998/namespace"
)

// Forbidden RDF names that cannot be used as node elements
var forbiddenNodeElements = map[string]bool{
	"RDF":             true,
	"ID":              true,
	"about":           true,
	"bagID":           true, // removed from RDF 1.1
	"parseType":       true,
	"resource":        true,
	"nodeID":          true,
	"datatype":        true,
	"aboutEach":       true, // removed from RDF 1.1
	"aboutEachPrefix": true, // removed from RDF 1.1
	"li":              true, // rdf:li cannot be used as typed node element
}

// Forbidden RDF names that cannot be used as property elements
var forbiddenPropertyElements = map[string]bool{
	"Description":     true,
	"RDF":             true,
	"ID":              true,
	"about":           true,
	"bagID":           true,
	"parseType":       true,
	"resource":        true,
	"nodeID":          true,
	"datatype":        true,
	"aboutEach":       true,
	"aboutEachPrefix": true,
}

// frame carries the inherited state of one open element.
type frame struct {
	base  string
	lang  string
	scope []xmlutil.NSDecl
}

// child derives the frame for a nested element from its attributes:
// xml:base resolves against (and replaces) the inherited base, xml:lang
// replaces the inherited language, and namespace declarations extend the
// scope.
func (p *RDFXMLParser) child(parent frame, elem xml.StartElement) frame {
	f := parent
	for _, attr := range elem.Attr {
		switch {
		case attr.Name.Space == "xmlns":
			f.scope = append(f.scope, xmlutil.NSDecl{Prefix: attr.Name.Local, URI: attr.Value})
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			f.scope = append(f.scope, xmlutil.NSDecl{Prefix: "", URI: attr.Value})
		case isXMLAttr(attr.Name, "base"):
			base := resolveAgainst(f.base, attr.Value)
			if idx := strings.Index(base, "#"); idx != -1 {
				base = base[:idx]
			}
			f.base = base
		case isXMLAttr(attr.Name, "lang"):
			f.lang = attr.Value
		}
	}
	return f
}

func isXMLAttr(name xml.Name, local string) bool {
	if name.Local != local {
		return false
	}
	return name.Space == "xml" || name.Space == xmlNS ||
		strings.HasPrefix(name.Space, "http://www.w3.org/XML/")
}

// isReservedAttr reports attributes that never become property triples.
func isReservedAttr(name xml.Name) bool {
	if name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns") {
		return true
	}
	if name.Space == "xml" || name.Space == xmlNS || strings.HasPrefix(name.Space, "http://www.w3.org/XML/") {
		return true
	}
	// Unqualified lang/base appear when the decoder cannot resolve the
	// xml prefix.
	if name.Space == "" {
		return true
	}
	if name.Space == rdfNS {
		switch name.Local {
		case "about", "ID", "nodeID", "resource", "parseType", "datatype", "bagID", "aboutEach", "aboutEachPrefix":
			return true
		}
	}
	return false
}

// Parse consumes the document and returns triples as quads in the
// default graph, in the order the productions emit them.
func (p *RDFXMLParser) Parse(reader io.Reader) ([]*Quad, error) {
	decoder := xml.NewDecoder(reader)
	root := frame{base: p.documentBase}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return p.quads, nil
		}
		if err != nil {
			return p.quads, fmt.Errorf("error reading RDF/XML: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		f := p.child(root, start)
		if start.Name.Space == rdfNS && start.Name.Local == "RDF" {
			// rdf:RDF wraps a sequence of node elements.
			if err := p.parseNodeElementList(decoder, f); err != nil {
				return p.quads, err
			}
		} else {
			// Any node element may be the outermost element.
			if _, err := p.parseNodeElement(decoder, start, f); err != nil {
				if p.mode == Strict {
					return p.quads, err
				}
				// Lenient: the offending element was already consumed.
			}
		}
	}
}

// parseNodeElementList reads node elements until the enclosing end
// element.
func (p *RDFXMLParser) parseNodeElementList(decoder *xml.Decoder, f frame) error {
	for {
		tok, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("error reading RDF/XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, err := p.parseNodeElement(decoder, t, p.child(f, t)); err != nil {
				if p.mode == Strict {
					return err
				}
				// Lenient: the offending element was already consumed.
				continue
			}
		case xml.CharData:
			if p.mode == Strict && strings.TrimSpace(string(t)) != "" {
				return &SyntaxError{Reason: "unexpected text between node elements"}
			}
		case xml.EndElement:
			return nil
		}
	}
}

// parseNodeElement handles a node element: subject selection, the type
// triple for typed nodes, property attributes, and child property
// elements. It returns the element's subject.
func (p *RDFXMLParser) parseNodeElement(decoder *xml.Decoder, elem xml.StartElement, f frame) (Term, error) {
	if err := validateNodeElement(elem); err != nil {
		if p.mode == Strict {
			p.skipElement(decoder)
			return nil, err
		}
	}

	subject, err := p.subjectForNodeElement(elem, f)
	if err != nil {
		p.skipElement(decoder)
		return nil, err
	}

	// A typed node element asserts rdf:type with its expanded name.
	if !(elem.Name.Space == rdfNS && elem.Name.Local == "Description") {
		p.emit(subject, RDFType, NewNamedNode(elem.Name.Space+elem.Name.Local))
	}

	// Attribute-driven property syntax.
	for _, attr := range elem.Attr {
		if isReservedAttr(attr.Name) {
			continue
		}
		predicate := NewNamedNode(attr.Name.Space + attr.Name.Local)
		if attr.Name.Space == rdfNS && attr.Name.Local == "type" {
			p.emit(subject, RDFType, NewNamedNode(resolveAgainst(f.base, attr.Value)))
			continue
		}
		p.emit(subject, predicate, p.textLiteral(attr.Value, f))
	}

	// Child property elements. rdf:li numbering restarts per node
	// element.
	liCounter := 0
	for {
		tok, err := decoder.Token()
		if err != nil {
			return subject, fmt.Errorf("error reading RDF/XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.parsePropertyElement(decoder, t, p.child(f, t), subject, &liCounter); err != nil {
				if p.mode == Strict {
					return subject, err
				}
			}
		case xml.CharData:
			if p.mode == Strict && strings.TrimSpace(string(t)) != "" {
				return subject, &SyntaxError{Reason: "unexpected text content in node element"}
			}
		case xml.EndElement:
			return subject, nil
		}
	}
}

// subjectForNodeElement derives the subject from rdf:about, rdf:ID,
// rdf:nodeID, or a fresh blank node.
func (p *RDFXMLParser) subjectForNodeElement(elem xml.StartElement, f frame) (Term, error) {
	about := getAttr(elem.Attr, rdfNS, "about")
	id := getAttr(elem.Attr, rdfNS, "ID")
	nodeID := getAttr(elem.Attr, rdfNS, "nodeID")

	set := 0
	for _, v := range []string{about, id, nodeID} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return nil, &SyntaxError{Reason: "at most one of rdf:about, rdf:ID, rdf:nodeID is allowed"}
	}

	switch {
	case about != "":
		return NewNamedNode(resolveAgainst(f.base, about)), nil
	case id != "":
		resolved, err := p.resolveID(f.base, id)
		if err != nil {
			return nil, err
		}
		return NewNamedNode(resolved), nil
	case nodeID != "":
		return p.nodeIDBlank(nodeID)
	case hasAttr(elem.Attr, rdfNS, "about"):
		// rdf:about="" names the document itself.
		return NewNamedNode(resolveAgainst(f.base, "")), nil
	default:
		return NewBlankNode(p.freshBlank()), nil
	}
}

// parsePropertyElement handles a property element of subject.
func (p *RDFXMLParser) parsePropertyElement(decoder *xml.Decoder, elem xml.StartElement, f frame, subject Term, liCounter *int) error {
	if err := validatePropertyElement(elem); err != nil {
		p.skipElement(decoder)
		return err
	}

	var predicate *NamedNode
	if elem.Name.Space == rdfNS && elem.Name.Local == "li" {
		*liCounter++
		predicate = NewNamedNode(fmt.Sprintf("%s_%d", rdfNS, *liCounter))
	} else {
		predicate = NewNamedNode(elem.Name.Space + elem.Name.Local)
	}

	parseType := getAttr(elem.Attr, rdfNS, "parseType")
	resource := getAttr(elem.Attr, rdfNS, "resource")
	nodeID := getAttr(elem.Attr, rdfNS, "nodeID")
	datatype := getAttr(elem.Attr, rdfNS, "datatype")
	reifyID := getAttr(elem.Attr, rdfNS, "ID")

	var object Term
	var err error
	switch {
	case parseType == "Literal":
		object, err = p.parseLiteralContent(decoder, elem, f)
	case parseType == "Resource":
		object, err = p.parseResourceContent(decoder, f)
	case parseType == "Collection":
		object, err = p.parseCollectionContent(decoder, f)
	case parseType != "":
		// Unknown parse types read as Literal per the RDF/XML grammar.
		object, err = p.parseLiteralContent(decoder, elem, f)
	case resource != "":
		object = NewNamedNode(resolveAgainst(f.base, resource))
		err = p.skipToEnd(decoder)
	case nodeID != "":
		object, err = p.nodeIDBlank(nodeID)
		if err == nil {
			err = p.skipToEnd(decoder)
		}
	default:
		object, err = p.parsePropertyContent(decoder, elem, f, datatype)
	}
	if err != nil {
		return err
	}

	p.emit(subject, predicate, object)

	// rdf:ID on a property element reifies the asserted statement.
	if reifyID != "" {
		resolved, rerr := p.resolveID(f.base, reifyID)
		if rerr != nil {
			return rerr
		}
		p.emitReification(NewNamedNode(resolved), subject, predicate, object)
	}
	return nil
}

// parsePropertyContent handles a property element without rdf:resource,
// rdf:nodeID, or a parse type: bare text, one nested node element, or
// empty content (property attributes making an implied blank node).
func (p *RDFXMLParser) parsePropertyContent(decoder *xml.Decoder, elem xml.StartElement, f frame, datatype string) (Term, error) {
	var text strings.Builder
	var nested Term
	sawElement := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("error reading RDF/XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if sawElement {
				p.skipElement(decoder)
				if p.mode == Strict {
					return nil, &SyntaxError{Reason: "property element with multiple node elements"}
				}
				continue
			}
			sawElement = true
			node, err := p.parseNodeElement(decoder, t, p.child(f, t))
			if err != nil {
				return nil, err
			}
			nested = node
		case xml.EndElement:
			if sawElement {
				return nested, nil
			}
			content := text.String()
			if datatype != "" {
				return NewLiteralWithDatatype(content, NewNamedNode(resolveAgainst(f.base, datatype))), nil
			}
			if strings.TrimSpace(content) == "" && content != "" && p.propertyAttributes(elem) {
				// Whitespace-only content with property attributes still
				// makes the implied blank node.
				content = ""
			}
			if content == "" && p.propertyAttributes(elem) {
				node := NewBlankNode(p.freshBlank())
				for _, attr := range elem.Attr {
					if isReservedAttr(attr.Name) {
						continue
					}
					p.emit(node, NewNamedNode(attr.Name.Space+attr.Name.Local), p.textLiteral(attr.Value, f))
				}
				return node, nil
			}
			return p.textLiteral(content, f), nil
		}
	}
}

// propertyAttributes reports whether the element carries non-reserved
// attributes.
func (p *RDFXMLParser) propertyAttributes(elem xml.StartElement) bool {
	for _, attr := range elem.Attr {
		if !isReservedAttr(attr.Name) {
			return true
		}
	}
	return false
}

// parseLiteralContent captures the raw inner XML of a
// parseType="Literal" property, canonicalized with the namespaces in
// scope, as an rdf:XMLLiteral.
func (p *RDFXMLParser) parseLiteralContent(decoder *xml.Decoder, elem xml.StartElement, f frame) (Term, error) {
	var lexical strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("error reading RDF/XML literal content: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			lexical.WriteString(xmlutil.CanonicalFragment([]*xmlutil.Node{xmlutil.NewText(string(t))}))
		case xml.StartElement:
			node, err := xmlutil.BuildTree(decoder, t, f.scope)
			if err != nil {
				return nil, err
			}
			lexical.WriteString(xmlutil.CanonicalForm(node))
		case xml.EndElement:
			return NewLiteralWithDatatype(lexical.String(), RDFXMLLiteral), nil
		}
	}
}

// parseResourceContent treats the inner property elements as properties
// of a fresh blank node.
func (p *RDFXMLParser) parseResourceContent(decoder *xml.Decoder, f frame) (Term, error) {
	node := NewBlankNode(p.freshBlank())
	liCounter := 0
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("error reading RDF/XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.parsePropertyElement(decoder, t, p.child(f, t), node, &liCounter); err != nil {
				if p.mode == Strict {
					return nil, err
				}
			}
		case xml.EndElement:
			return node, nil
		}
	}
}

// parseCollectionContent builds an rdf:first/rdf:rest list from the
// inner node elements, terminated by rdf:nil.
func (p *RDFXMLParser) parseCollectionContent(decoder *xml.Decoder, f frame) (Term, error) {
	var head Term = RDFNil
	var tail *BlankNode
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("error reading RDF/XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			element, err := p.parseNodeElement(decoder, t, p.child(f, t))
			if err != nil {
				return nil, err
			}
			cell := NewBlankNode(p.freshBlank())
			if tail == nil {
				head = cell
			} else {
				p.emit(tail, RDFRest, cell)
			}
			p.emit(cell, RDFFirst, element)
			tail = cell
		case xml.EndElement:
			if tail != nil {
				p.emit(tail, RDFRest, RDFNil)
			}
			return head, nil
		}
	}
}

// textLiteral builds a plain literal: langString under an inherited
// xml:lang, xsd:string otherwise.
func (p *RDFXMLParser) textLiteral(content string, f frame) *Literal {
	if f.lang != "" {
		return NewLiteralWithLanguage(content, f.lang)
	}
	return NewLiteral(content)
}

// emitReification asserts the four reification triples for a statement
// named by rdf:ID.
func (p *RDFXMLParser) emitReification(statement *NamedNode, subject Term, predicate *NamedNode, object Term) {
	p.emit(statement, RDFType, RDFStatement)
	p.emit(statement, RDFSubject, subject)
	p.emit(statement, RDFPredicate, predicate)
	p.emit(statement, RDFObject, object)
}

func (p *RDFXMLParser) emit(subject, predicate, object Term) {
	p.quads = append(p.quads, NewQuad(subject, predicate, object, NewDefaultGraph()))
}

// resolveID turns an rdf:ID value into base#ID, rejecting invalid
// NCNames and duplicate IDs.
func (p *RDFXMLParser) resolveID(base, id string) (string, error) {
	if !isValidXMLNCName(id) {
		return "", &SyntaxError{Reason: fmt.Sprintf("rdf:ID %q is not a valid XML NCName", id)}
	}
	resolved := resolveAgainst(base, "#"+id)
	if p.usedIDs[resolved] {
		if p.mode == Strict {
			return "", &SyntaxError{Reason: fmt.Sprintf("duplicate rdf:ID %q", id)}
		}
	}
	p.usedIDs[resolved] = true
	return resolved, nil
}

// nodeIDBlank maps an rdf:nodeID label to its document-local blank node.
func (p *RDFXMLParser) nodeIDBlank(label string) (Term, error) {
	if !isValidXMLNCName(label) {
		return nil, &SyntaxError{Reason: fmt.Sprintf("rdf:nodeID %q is not a valid XML NCName", label)}
	}
	if id, ok := p.nodeIDMap[label]; ok {
		return NewBlankNode(id), nil
	}
	id := p.freshBlank()
	p.nodeIDMap[label] = id
	return NewBlankNode(id), nil
}

func (p *RDFXMLParser) freshBlank() string {
	id := fmt.Sprintf("b%d", p.bnodeCounter)
	p.bnodeCounter++
	return id
}

// skipElement consumes tokens through the end of the current element.
func (p *RDFXMLParser) skipElement(decoder *xml.Decoder) {
	depth := 1
	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			return
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
}

// skipToEnd consumes up to the current element's end tag, requiring the
// content to be empty apart from whitespace.
func (p *RDFXMLParser) skipToEnd(decoder *xml.Decoder) error {
	for {
		tok, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("error reading RDF/XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.CharData:
			if p.mode == Strict && strings.TrimSpace(string(t)) != "" {
				return &SyntaxError{Reason: "unexpected content in empty property element"}
			}
		case xml.StartElement:
			p.skipElement(decoder)
			if p.mode == Strict {
				return &SyntaxError{Reason: "unexpected element in empty property element"}
			}
		}
	}
}

// validateNodeElement rejects reserved RDF names in node element
// position.
func validateNodeElement(elem xml.StartElement) error {
	if elem.Name.Space == rdfNS && forbiddenNodeElements[elem.Name.Local] {
		return &SyntaxError{Reason: fmt.Sprintf("rdf:%s cannot be used as a node element", elem.Name.Local)}
	}
	return nil
}

// validatePropertyElement rejects reserved RDF names in property element
// position.
func validatePropertyElement(elem xml.StartElement) error {
	if elem.Name.Space == rdfNS && forbiddenPropertyElements[elem.Name.Local] {
		return &SyntaxError{Reason: fmt.Sprintf("rdf:%s cannot be used as a property element", elem.Name.Local)}
	}
	return nil
}

// resolveAgainst resolves ref against base per RFC 3986 section 5.2.
// With an empty base the reference passes through unchanged.
func resolveAgainst(base, ref string) string {
	if base == "" {
		return ref
	}
	resolved := iri.Parse(base).Resolve(iri.Parse(ref), iri.ResolveOptions{Strict: true, Normalize: true})
	return resolved.String()
}

func getAttr(attrs []xml.Attr, namespace, local string) string {
	for _, attr := range attrs {
		if attr.Name.Space == namespace && attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

func hasAttr(attrs []xml.Attr, namespace, local string) bool {
	for _, attr := range attrs {
		if attr.Name.Space == namespace && attr.Name.Local == local {
			return true
		}
	}
	return false
}

// isValidXMLNCName checks the NCName production used by rdf:ID and
// rdf:nodeID values.
func isValidXMLNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isXMLNCNameStartChar(r) {
				return false
			}
			continue
		}
		if !isXMLNCNameChar(r) {
			return false
		}
	}
	return true
}

func isXMLNCNameStartChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isXMLNCNameChar(r rune) bool {
	return isXMLNCNameStartChar(r) || unicode.IsDigit(r) ||
		r == '.' || r == '-' || unicode.Is(unicode.Mn, r)
}
