package rdf

import (
	"fmt"
	"io"

	"github.com/aleksaelezovic/rdfkit/internal/streamio"
	"github.com/aleksaelezovic/rdfkit/pkg/iri"
)

// TurtleParser is a recursive-descent Turtle parser over the token
// stream of turtleLexer. The same machine parses TriG when graph blocks
// are enabled.
//
// Per-document state: the base IRI, the prefix table, the mapping from
// blank node labels to fresh document-local identifiers, the current
// graph (TriG), and the generated-node counter.
type TurtleParser struct {
	lx   *turtleLexer
	mode Mode
	trig bool

	base     string
	prefixes map[string]string

	bnodeLabels  map[string]string
	bnodeCounter int

	curGraph Term

	tok    token
	peeked bool

	quads []*Quad
}

// NewTurtleParser creates a Turtle parser over an in-memory document.
func NewTurtleParser(input string, mode Mode) *TurtleParser {
	return newTurtleParser(streamio.NewStringReader(input), mode, false)
}

// NewTurtleParserFromReader creates a Turtle parser over a byte source.
func NewTurtleParserFromReader(r io.Reader, mode Mode) *TurtleParser {
	return newTurtleParser(streamio.NewReader(r), mode, false)
}

func newTurtleParser(r *streamio.Reader, mode Mode, trig bool) *TurtleParser {
	return &TurtleParser{
		lx:          newTurtleLexer(r),
		mode:        mode,
		trig:        trig,
		prefixes:    make(map[string]string),
		bnodeLabels: make(map[string]string),
		curGraph:    NewDefaultGraph(),
	}
}

// SetBaseURI sets the document base used to resolve relative IRIs,
// typically the document's retrieval URI.
func (p *TurtleParser) SetBaseURI(base string) {
	p.base = base
}

// Parse consumes the whole document and returns quads in the order the
// productions emit them. Turtle documents yield quads in the default
// graph.
func (p *TurtleParser) Parse() ([]*Quad, error) {
	for {
		tok, err := p.peek()
		if err != nil {
			if p.recover(err) {
				continue
			}
			return p.quads, err
		}
		if tok.typ == tokenEndOfInput {
			return p.quads, nil
		}
		if err := p.parseStatement(); err != nil {
			if p.recover(err) {
				continue
			}
			return p.quads, err
		}
	}
}

// recover reports whether parsing should continue after err. In lenient
// mode it skips to the next '.' (or closing brace) so that every retry
// starts past at least one byte of the offending input.
func (p *TurtleParser) recover(err error) bool {
	if p.mode == Strict {
		return false
	}
	for {
		tok, lerr := p.next()
		if lerr != nil {
			// The lexer is stuck on a malformed byte: drop it and carry
			// on. Consume never fails to advance on a non-empty stream.
			if _, cerr := p.lx.consume(1); cerr != nil {
				return false
			}
			continue
		}
		switch tok.typ {
		case tokenDot, tokenRCurly:
			return true
		case tokenEndOfInput:
			return true
		}
	}
}

func (p *TurtleParser) next() (token, error) {
	if p.peeked {
		p.peeked = false
		return p.tok, nil
	}
	return p.lx.next()
}

func (p *TurtleParser) peek() (token, error) {
	if !p.peeked {
		tok, err := p.lx.next()
		if err != nil {
			return token{}, err
		}
		p.tok = tok
		p.peeked = true
	}
	return p.tok, nil
}

func (p *TurtleParser) expect(typ tokenType) (token, error) {
	tok, err := p.next()
	if err != nil {
		return token{}, err
	}
	if tok.typ != typ {
		return token{}, p.errf(tok, "expected %v, got %v", typ, tok.typ)
	}
	return tok, nil
}

func (p *TurtleParser) errf(tok token, format string, args ...any) error {
	return &SyntaxError{Offset: tok.offset, Reason: fmt.Sprintf(format, args...)}
}

// parseStatement handles one directive, triples statement, or (TriG)
// graph block.
func (p *TurtleParser) parseStatement() error {
	tok, err := p.peek()
	if err != nil {
		return err
	}
	switch tok.typ {
	case tokenAtPrefix:
		p.next()
		return p.parsePrefixDirective(true)
	case tokenAtBase:
		p.next()
		return p.parseBaseDirective(true)
	case tokenPrefix:
		p.next()
		return p.parsePrefixDirective(false)
	case tokenBase:
		p.next()
		return p.parseBaseDirective(false)
	case tokenGraph:
		if !p.trig {
			return p.errf(tok, "GRAPH keyword is not Turtle")
		}
		p.next()
		return p.parseNamedGraphBlock()
	case tokenLCurly:
		if !p.trig {
			return p.errf(tok, "graph blocks are not Turtle")
		}
		return p.parseGraphBlock(NewDefaultGraph())
	}
	return p.parseTriplesOrLabeledBlock()
}

// parsePrefixDirective handles @prefix (dotted) and PREFIX (dotless).
func (p *TurtleParser) parsePrefixDirective(dotted bool) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.typ != tokenPnameNs {
		return p.errf(tok, "expected prefix name, got %v", tok.typ)
	}
	prefix := tok.text
	iriTok, err := p.expect(tokenIRIRef)
	if err != nil {
		return err
	}
	p.prefixes[prefix] = p.resolveIRI(iriTok.text)
	if dotted {
		if _, err := p.expect(tokenDot); err != nil {
			return err
		}
	}
	return nil
}

// parseBaseDirective handles @base (dotted) and BASE (dotless). The new
// base resolves against the current one.
func (p *TurtleParser) parseBaseDirective(dotted bool) error {
	iriTok, err := p.expect(tokenIRIRef)
	if err != nil {
		return err
	}
	p.base = p.resolveIRI(iriTok.text)
	if dotted {
		if _, err := p.expect(tokenDot); err != nil {
			return err
		}
	}
	return nil
}

// parseNamedGraphBlock continues after the GRAPH keyword.
func (p *TurtleParser) parseNamedGraphBlock() error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	graph, err := p.graphLabelFromToken(tok)
	if err != nil {
		return err
	}
	return p.parseGraphBlock(graph)
}

func (p *TurtleParser) graphLabelFromToken(tok token) (Term, error) {
	switch tok.typ {
	case tokenIRIRef:
		return NewNamedNode(p.resolveIRI(tok.text)), nil
	case tokenPnameLn, tokenPnameNs:
		iriStr, err := p.expandPname(tok)
		if err != nil {
			return nil, err
		}
		return NewNamedNode(iriStr), nil
	case tokenBlankNodeLabel:
		return NewBlankNode(p.labeledBlankNode(tok.text)), nil
	}
	return nil, p.errf(tok, "expected graph label, got %v", tok.typ)
}

// parseGraphBlock parses { triples* } with graph as the current graph,
// restoring the default graph afterwards.
func (p *TurtleParser) parseGraphBlock(graph Term) error {
	if _, err := p.expect(tokenLCurly); err != nil {
		return err
	}
	prev := p.curGraph
	p.curGraph = graph
	defer func() { p.curGraph = prev }()
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.typ == tokenRCurly {
			p.next()
			return nil
		}
		if tok.typ == tokenEndOfInput {
			return p.errf(tok, "unterminated graph block")
		}
		if err := p.parseTriplesInBlock(); err != nil {
			return err
		}
	}
}

// parseTriplesInBlock parses one triples production inside a graph
// block, where the trailing '.' is optional before '}'.
func (p *TurtleParser) parseTriplesInBlock() error {
	if err := p.parseTriplesBody(); err != nil {
		return err
	}
	tok, err := p.peek()
	if err != nil {
		return err
	}
	if tok.typ == tokenDot {
		p.next()
	} else if tok.typ != tokenRCurly {
		return p.errf(tok, "expected '.' or '}', got %v", tok.typ)
	}
	return nil
}

// parseTriplesOrLabeledBlock parses either a top-level triples statement
// or (TriG) a labeled graph block: <label> { ... }.
func (p *TurtleParser) parseTriplesOrLabeledBlock() error {
	if p.trig {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		switch tok.typ {
		case tokenIRIRef, tokenPnameLn, tokenPnameNs, tokenBlankNodeLabel:
			label := tok
			p.next()
			after, err := p.peek()
			if err != nil {
				return err
			}
			if after.typ == tokenLCurly {
				graph, err := p.graphLabelFromToken(label)
				if err != nil {
					return err
				}
				return p.parseGraphBlock(graph)
			}
			// Not a block: the token is a triples subject.
			subject, err := p.subjectFromToken(label)
			if err != nil {
				return err
			}
			if err := p.parsePredicateObjectList(subject); err != nil {
				return err
			}
			_, err = p.expect(tokenDot)
			return err
		}
	}
	if err := p.parseTriplesBody(); err != nil {
		return err
	}
	_, err := p.expect(tokenDot)
	return err
}

// parseTriplesBody parses subject predicateObjectList, where a blank
// node property list subject may omit the predicate-object list.
func (p *TurtleParser) parseTriplesBody() error {
	tok, err := p.next()
	if err != nil {
		return err
	}

	if tok.typ == tokenLSquare {
		subject, err := p.parseBlankNodePropertyList()
		if err != nil {
			return err
		}
		after, err := p.peek()
		if err != nil {
			return err
		}
		if after.typ == tokenDot || after.typ == tokenRCurly {
			return nil // [ po-list ] . is a complete statement
		}
		return p.parsePredicateObjectList(subject)
	}

	subject, err := p.subjectFromToken(tok)
	if err != nil {
		return err
	}
	return p.parsePredicateObjectList(subject)
}

func (p *TurtleParser) subjectFromToken(tok token) (Term, error) {
	switch tok.typ {
	case tokenIRIRef:
		return NewNamedNode(p.resolveIRI(tok.text)), nil
	case tokenPnameLn, tokenPnameNs:
		iriStr, err := p.expandPname(tok)
		if err != nil {
			return nil, err
		}
		return NewNamedNode(iriStr), nil
	case tokenBlankNodeLabel:
		return NewBlankNode(p.labeledBlankNode(tok.text)), nil
	case tokenLParen:
		return p.parseCollection()
	}
	return nil, p.errf(tok, "expected subject, got %v", tok.typ)
}

// parsePredicateObjectList parses verb objectList (';' (verb objectList)?)*.
func (p *TurtleParser) parsePredicateObjectList(subject Term) error {
	for {
		predicate, err := p.parseVerb()
		if err != nil {
			return err
		}
		if err := p.parseObjectList(subject, predicate); err != nil {
			return err
		}
		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.typ != tokenSemicolon {
			return nil
		}
		for tok.typ == tokenSemicolon {
			p.next()
			tok, err = p.peek()
			if err != nil {
				return err
			}
		}
		switch tok.typ {
		case tokenDot, tokenRSquare, tokenRCurly:
			return nil // trailing semicolon
		}
	}
}

func (p *TurtleParser) parseVerb() (Term, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch tok.typ {
	case tokenA:
		return RDFType, nil
	case tokenIRIRef:
		return NewNamedNode(p.resolveIRI(tok.text)), nil
	case tokenPnameLn, tokenPnameNs:
		iriStr, err := p.expandPname(tok)
		if err != nil {
			return nil, err
		}
		return NewNamedNode(iriStr), nil
	}
	return nil, p.errf(tok, "expected predicate, got %v", tok.typ)
}

func (p *TurtleParser) parseObjectList(subject, predicate Term) error {
	for {
		object, err := p.parseObject()
		if err != nil {
			return err
		}
		p.emit(subject, predicate, object)
		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.typ != tokenComma {
			return nil
		}
		p.next()
	}
}

// parseObject parses a single object term, including nested property
// lists, collections, and literal shortcuts.
func (p *TurtleParser) parseObject() (Term, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch tok.typ {
	case tokenIRIRef:
		return NewNamedNode(p.resolveIRI(tok.text)), nil
	case tokenPnameLn, tokenPnameNs:
		iriStr, err := p.expandPname(tok)
		if err != nil {
			return nil, err
		}
		return NewNamedNode(iriStr), nil
	case tokenBlankNodeLabel:
		return NewBlankNode(p.labeledBlankNode(tok.text)), nil
	case tokenLSquare:
		return p.parseBlankNodePropertyList()
	case tokenLParen:
		return p.parseCollection()
	case tokenString:
		return p.finishLiteral(tok.text)
	case tokenInteger:
		return NewLiteralWithDatatype(tok.text, XSDInteger), nil
	case tokenDecimal:
		return NewLiteralWithDatatype(tok.text, XSDDecimal), nil
	case tokenDouble:
		return NewLiteralWithDatatype(tok.text, XSDDouble), nil
	case tokenTrue:
		return NewBooleanLiteral(true), nil
	case tokenFalse:
		return NewBooleanLiteral(false), nil
	}
	return nil, p.errf(tok, "expected object, got %v", tok.typ)
}

// finishLiteral attaches an optional @lang or ^^datatype to a lexed
// string.
func (p *TurtleParser) finishLiteral(lexical string) (Term, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch tok.typ {
	case tokenLangTag:
		p.next()
		return NewLiteralWithLanguage(lexical, tok.text), nil
	case tokenHatHat:
		p.next()
		dt, err := p.next()
		if err != nil {
			return nil, err
		}
		switch dt.typ {
		case tokenIRIRef:
			return NewLiteralWithDatatype(lexical, NewNamedNode(p.resolveIRI(dt.text))), nil
		case tokenPnameLn, tokenPnameNs:
			iriStr, err := p.expandPname(dt)
			if err != nil {
				return nil, err
			}
			return NewLiteralWithDatatype(lexical, NewNamedNode(iriStr)), nil
		}
		return nil, p.errf(dt, "expected datatype IRI after '^^', got %v", dt.typ)
	}
	return NewLiteral(lexical), nil
}

// parseBlankNodePropertyList continues after '[': a fresh blank node
// with an optional predicate-object list, closed by ']'. The bare pair
// "[]" is the anonymous node.
func (p *TurtleParser) parseBlankNodePropertyList() (Term, error) {
	node := NewBlankNode(p.freshBlankNode())
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.typ == tokenRSquare {
		p.next()
		return node, nil
	}
	if err := p.parsePredicateObjectList(node); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRSquare); err != nil {
		return nil, err
	}
	return node, nil
}

// parseCollection continues after '(': each element becomes an
// rdf:first/rdf:rest chain ending in rdf:nil. An empty collection is
// rdf:nil itself.
func (p *TurtleParser) parseCollection() (Term, error) {
	var head Term = RDFNil
	var tail *BlankNode
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.typ == tokenRParen {
			p.next()
			if tail != nil {
				p.emit(tail, RDFRest, RDFNil)
			}
			return head, nil
		}
		if tok.typ == tokenEndOfInput {
			return nil, p.errf(tok, "unterminated collection")
		}
		element, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		cell := NewBlankNode(p.freshBlankNode())
		if tail == nil {
			head = cell
		} else {
			p.emit(tail, RDFRest, cell)
		}
		p.emit(cell, RDFFirst, element)
		tail = cell
	}
}

// emit appends a quad in the current graph.
func (p *TurtleParser) emit(subject, predicate, object Term) {
	p.quads = append(p.quads, NewQuad(subject, predicate, object, p.curGraph))
}

// labeledBlankNode maps a document label to a fresh identifier so blank
// nodes from different documents never collide.
func (p *TurtleParser) labeledBlankNode(label string) string {
	if id, ok := p.bnodeLabels[label]; ok {
		return id
	}
	id := p.freshBlankNode()
	p.bnodeLabels[label] = id
	return id
}

func (p *TurtleParser) freshBlankNode() string {
	id := fmt.Sprintf("b%d", p.bnodeCounter)
	p.bnodeCounter++
	return id
}

// expandPname expands a prefixed name against the prefix table.
func (p *TurtleParser) expandPname(tok token) (string, error) {
	ns, ok := p.prefixes[tok.text]
	if !ok {
		return "", p.errf(tok, "undefined prefix %q", tok.text)
	}
	return ns + tok.local, nil
}

// resolveIRI resolves a reference against the current base per RFC 3986
// section 5.2. With no base, the reference passes through unchanged.
func (p *TurtleParser) resolveIRI(ref string) string {
	if p.base == "" {
		return ref
	}
	r := iri.Parse(ref)
	resolved := iri.Parse(p.base).Resolve(r, iri.ResolveOptions{Strict: true, Normalize: true})
	return resolved.String()
}
