package rdf

import (
	"fmt"
	"sort"
)

// Dataset isomorphism: two datasets are isomorphic when a bijection
// between their blank nodes exists that makes the quad sets equal. The
// search is backtracking unification and is exponential in the worst
// case; it is the correctness-oriented fallback to canonicalization for
// small graphs.

// IsIsomorphicTo reports whether an injection from the blank nodes of d
// to the blank nodes of other exists that extends partial and maps the
// quad sets onto each other. partial may be nil; when non-nil it is
// mutated to the complete mapping on success. With literalValueEq,
// literals compare by the canonical forms of their datatype values
// instead of raw lexical forms.
func (d *Dataset) IsIsomorphicTo(other *Dataset, partial map[string]string, literalValueEq bool) bool {
	expected := d.Unique(false)
	actual := other.Unique(false)
	if len(expected) != len(actual) {
		return false
	}

	expectedBlanks := extractBlankNodeLabels(expected)
	actualBlanks := extractBlankNodeLabels(actual)
	if len(expectedBlanks) != len(actualBlanks) {
		return false
	}

	mapping := make(map[string]string)
	usedTargets := make(map[string]bool)
	actualSet := make(map[string]bool, len(actual))
	for _, q := range actual {
		actualSet[quadKey(q, nil, literalValueEq)] = true
	}

	// Seed the search with the caller's partial mapping. A partial that
	// is not injective or names unknown blanks cannot extend to a
	// bijection.
	for from, to := range partial {
		if usedTargets[to] {
			return false
		}
		mapping[from] = to
		usedTargets[to] = true
	}

	// Match high-degree nodes first to prune early.
	remaining := make([]string, 0, len(expectedBlanks))
	for _, b := range expectedBlanks {
		if _, ok := mapping[b]; !ok {
			remaining = append(remaining, b)
		}
	}
	remaining = sortByDegree(remaining, expected)

	if !backtrack(expected, actualSet, remaining, actualBlanks, mapping, usedTargets, 0, literalValueEq) {
		return false
	}
	if partial != nil {
		for from, to := range mapping {
			partial[from] = to
		}
	}
	return true
}

// extractBlankNodeLabels extracts all unique blank node labels from a
// set of quads, sorted for deterministic candidate order.
func extractBlankNodeLabels(quads []*Quad) []string {
	blanks := make(map[string]bool)
	for _, quad := range quads {
		for _, t := range []Term{quad.Subject, quad.Object, quad.Graph} {
			if b, ok := t.(*BlankNode); ok {
				blanks[b.ID] = true
			}
		}
	}
	result := make([]string, 0, len(blanks))
	for label := range blanks {
		result = append(result, label)
	}
	sort.Strings(result)
	return result
}

// sortByDegree sorts blank nodes by the number of quads they appear in,
// descending. Matching highly-connected nodes first fails bad branches
// sooner.
func sortByDegree(blanks []string, quads []*Quad) []string {
	degrees := make(map[string]int)
	for _, blank := range blanks {
		degrees[blank] = 0
	}
	for _, quad := range quads {
		for _, t := range []Term{quad.Subject, quad.Object, quad.Graph} {
			if b, ok := t.(*BlankNode); ok {
				degrees[b.ID]++
			}
		}
	}
	sort.SliceStable(blanks, func(i, j int) bool {
		return degrees[blanks[i]] > degrees[blanks[j]]
	})
	return blanks
}

// backtrack tries to extend the mapping one blank node at a time.
func backtrack(expected []*Quad, actualSet map[string]bool, expectedBlanks, actualBlanks []string,
	mapping map[string]string, usedTargets map[string]bool, index int, literalValueEq bool) bool {

	if index == len(expectedBlanks) {
		return verifyMapping(expected, actualSet, mapping, literalValueEq)
	}

	currentBlank := expectedBlanks[index]
	for _, candidateBlank := range actualBlanks {
		if usedTargets[candidateBlank] {
			continue
		}

		mapping[currentBlank] = candidateBlank
		usedTargets[candidateBlank] = true

		if isConsistentSoFar(expected, actualSet, mapping, literalValueEq) {
			if backtrack(expected, actualSet, expectedBlanks, actualBlanks, mapping, usedTargets, index+1, literalValueEq) {
				return true
			}
		}

		delete(mapping, currentBlank)
		delete(usedTargets, candidateBlank)
	}
	return false
}

// isConsistentSoFar checks every quad whose blank nodes are all mapped
// against the target set, pruning dead branches early.
func isConsistentSoFar(expected []*Quad, actualSet map[string]bool, mapping map[string]string, literalValueEq bool) bool {
	for _, quad := range expected {
		if !quadFullyMapped(quad, mapping) {
			continue
		}
		if !actualSet[quadKey(quad, mapping, literalValueEq)] {
			return false
		}
	}
	return true
}

func quadFullyMapped(quad *Quad, mapping map[string]string) bool {
	for _, t := range []Term{quad.Subject, quad.Object, quad.Graph} {
		if b, ok := t.(*BlankNode); ok {
			if _, exists := mapping[b.ID]; !exists {
				return false
			}
		}
	}
	return true
}

// verifyMapping checks that the completed mapping carries every expected
// quad onto an actual one. Injectivity plus equal sizes makes this a
// bijection.
func verifyMapping(expected []*Quad, actualSet map[string]bool, mapping map[string]string, literalValueEq bool) bool {
	mapped := make(map[string]bool, len(expected))
	for _, quad := range expected {
		mapped[quadKey(quad, mapping, literalValueEq)] = true
	}
	if len(mapped) != len(actualSet) {
		return false
	}
	for key := range mapped {
		if !actualSet[key] {
			return false
		}
	}
	return true
}

// quadKey builds a comparison key for a quad, applying the blank node
// mapping if provided.
func quadKey(quad *Quad, mapping map[string]string, literalValueEq bool) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		isoTermString(quad.Subject, mapping, literalValueEq),
		isoTermString(quad.Predicate, mapping, literalValueEq),
		isoTermString(quad.Object, mapping, literalValueEq),
		isoTermString(quad.Graph, mapping, literalValueEq))
}

// isoTermString renders a term for comparison. Blank nodes go through
// the mapping; literals render by canonical value form when value
// equality is requested.
func isoTermString(term Term, mapping map[string]string, literalValueEq bool) string {
	switch t := term.(type) {
	case *BlankNode:
		if mapping != nil {
			if mapped, exists := mapping[t.ID]; exists {
				return "_:" + mapped
			}
		}
		return term.String()
	case *Literal:
		if literalValueEq {
			return fmt.Sprintf("%q@%s^^%s", t.TypedValue().CanonicalForm(), t.Language, t.datatypeIRI())
		}
		return term.String()
	default:
		return term.String()
	}
}

// AreQuadsIsomorphic checks if two sets of quads are isomorphic,
// accounting for blank node label differences in both triples and graph
// names.
func AreQuadsIsomorphic(expected, actual []*Quad) bool {
	return NewDataset(expected...).IsIsomorphicTo(NewDataset(actual...), nil, false)
}

// AreGraphsIsomorphic checks if two sets of triples are isomorphic,
// accounting for blank node label differences.
func AreGraphsIsomorphic(expected, actual []*Triple) bool {
	return AreQuadsIsomorphic(triplesToQuads(expected), triplesToQuads(actual))
}

func triplesToQuads(triples []*Triple) []*Quad {
	quads := make([]*Quad, len(triples))
	for i, t := range triples {
		quads[i] = NewQuad(t.Subject, t.Predicate, t.Object, NewDefaultGraph())
	}
	return quads
}
