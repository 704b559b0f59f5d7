package rdf

import (
	"io"

	"github.com/aleksaelezovic/rdfkit/internal/streamio"
)

// TriG is Turtle plus named-graph blocks. The TriG parser is the Turtle
// machine with the GRAPH keyword, labeled blocks, and bare { ... }
// blocks enabled; everything else (directives, triples, collections,
// blank node property lists) is shared.

// NewTriGParser creates a TriG parser over an in-memory document.
func NewTriGParser(input string, mode Mode) *TurtleParser {
	return newTurtleParser(streamio.NewStringReader(input), mode, true)
}

// NewTriGParserFromReader creates a TriG parser over a byte source.
func NewTriGParserFromReader(r io.Reader, mode Mode) *TurtleParser {
	return newTurtleParser(streamio.NewReader(r), mode, true)
}
