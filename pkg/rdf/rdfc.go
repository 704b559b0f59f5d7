package rdf

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RDFC-1.0 canonicalization: deterministic blank node labeling such that
// isomorphic datasets serialize to byte-identical canonical N-Quads.

// Unlimited disables a resource limit.
const Unlimited = -1

// CanonicalizationOptions bounds the canonicalization work. Zero values
// select the defaults; Unlimited disables the corresponding limit. The
// defaults are heuristics sized for typical datasets on modest hardware.
type CanonicalizationOptions struct {
	HashAlgorithm       string        // "sha256" (default), "sha384", or "sha512"
	MaxPermutations     int           // default 200000
	MaxRecursionDepth   int           // default 64
	MaxNDegreeQuadCalls int           // default 1000
	MaxDuration         time.Duration // wall clock, default 2s
}

// LimitExceededError reports that canonicalization hit one of its
// configured bounds. Limit names which one: "maxPermutations",
// "maxRecursionDepth", "maxNDegreeQuadCalls", or "maxTimeMs".
type LimitExceededError struct {
	Limit   string
	Context string
	Message string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("canonicalization limit exceeded: %s (%s): %s", e.Limit, e.Context, e.Message)
}

// IdentifierIssuer issues canonical identifiers in a stable order: a
// prefix, a monotonic counter, and the mapping from input identifier to
// issued identifier in issuance order.
type IdentifierIssuer struct {
	prefix  string
	counter int
	issued  map[string]string
	order   []string
}

// NewIdentifierIssuer creates an issuer with the given prefix.
func NewIdentifierIssuer(prefix string) *IdentifierIssuer {
	return &IdentifierIssuer{prefix: prefix, issued: make(map[string]string)}
}

// Issue returns the identifier already issued for id, or mints
// prefix+counter and records it.
func (i *IdentifierIssuer) Issue(id string) string {
	if issued, ok := i.issued[id]; ok {
		return issued
	}
	issued := fmt.Sprintf("%s%d", i.prefix, i.counter)
	i.counter++
	i.issued[id] = issued
	i.order = append(i.order, id)
	return issued
}

// Has reports whether id already has an issued identifier.
func (i *IdentifierIssuer) Has(id string) bool {
	_, ok := i.issued[id]
	return ok
}

// Get returns the issued identifier for id, or "".
func (i *IdentifierIssuer) Get(id string) string {
	return i.issued[id]
}

// Copy deep-copies the issuer, preserving the counter and insertion
// order.
func (i *IdentifierIssuer) Copy() *IdentifierIssuer {
	c := &IdentifierIssuer{
		prefix:  i.prefix,
		counter: i.counter,
		issued:  make(map[string]string, len(i.issued)),
		order:   append([]string(nil), i.order...),
	}
	for k, v := range i.issued {
		c.issued[k] = v
	}
	return c
}

// IssuedIdentifiers returns the input identifiers in issuance order.
func (i *IdentifierIssuer) IssuedIdentifiers() []string {
	return append([]string(nil), i.order...)
}

// CanonicalizationResult is the outcome of Canonicalize: the relabeled
// dataset, the total input-to-canonical blank node mapping, the mapping's
// issuance order, and the sorted canonical N-Quads text.
type CanonicalizationResult struct {
	Dataset      *Dataset
	BlankNodeMap map[string]string
	IssuedOrder  []string
	NQuads       string
}

// Canonicalizer implements RDFC-1.0 with bounded resources.
type Canonicalizer struct {
	opts CanonicalizationOptions
}

// NewCanonicalizer creates a canonicalizer, substituting defaults for
// zero-valued options.
func NewCanonicalizer(opts CanonicalizationOptions) *Canonicalizer {
	if opts.HashAlgorithm == "" {
		opts.HashAlgorithm = "sha256"
	}
	if opts.MaxPermutations == 0 {
		opts.MaxPermutations = 200000
	}
	if opts.MaxRecursionDepth == 0 {
		opts.MaxRecursionDepth = 64
	}
	if opts.MaxNDegreeQuadCalls == 0 {
		opts.MaxNDegreeQuadCalls = 1000
	}
	if opts.MaxDuration == 0 {
		opts.MaxDuration = 2 * time.Second
	}
	return &Canonicalizer{opts: opts}
}

// canonState is the per-invocation working state.
type canonState struct {
	opts CanonicalizationOptions

	quads        []*Quad
	bnodeToQuads map[string][]*Quad
	firstDegree  map[string]string

	canonical *IdentifierIssuer

	permutations int
	ndegreeCalls int
	deadline     time.Time
}

// Canonicalize labels every blank node of the dataset and returns the
// canonical dataset together with the issued mapping.
func (c *Canonicalizer) Canonicalize(d *Dataset) (*CanonicalizationResult, error) {
	st := &canonState{
		opts:         c.opts,
		quads:        NewDataset(d.Quads()...).Unique(false),
		bnodeToQuads: make(map[string][]*Quad),
		firstDegree:  make(map[string]string),
		canonical:    NewIdentifierIssuer("c14n"),
	}
	if c.opts.MaxDuration != Unlimited && c.opts.MaxDuration > 0 {
		st.deadline = time.Now().Add(c.opts.MaxDuration)
	}

	// Map every blank node to the quads mentioning it.
	for _, q := range st.quads {
		for _, t := range []Term{q.Subject, q.Object, q.Graph} {
			if b, ok := t.(*BlankNode); ok {
				st.bnodeToQuads[b.ID] = append(st.bnodeToQuads[b.ID], q)
			}
		}
	}

	// First-degree hash of every blank node.
	for id := range st.bnodeToQuads {
		if err := st.checkDeadline("hashing first degree quads"); err != nil {
			return nil, err
		}
		st.firstDegree[id] = st.hashFirstDegree(id)
	}

	// Group by first-degree hash; unique hashes get canonical
	// identifiers immediately, in hash order.
	hashToNodes := make(map[string][]string)
	for id, h := range st.firstDegree {
		hashToNodes[h] = append(hashToNodes[h], id)
	}
	hashes := make([]string, 0, len(hashToNodes))
	for h := range hashToNodes {
		sort.Strings(hashToNodes[h])
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	for _, h := range hashes {
		if nodes := hashToNodes[h]; len(nodes) == 1 {
			st.canonical.Issue(nodes[0])
		}
	}

	// Shared hashes need N-degree disambiguation.
	for _, h := range hashes {
		nodes := hashToNodes[h]
		if len(nodes) == 1 {
			continue
		}
		type ndegreeResult struct {
			hash   string
			issuer *IdentifierIssuer
		}
		var results []ndegreeResult
		for _, id := range nodes {
			if st.canonical.Has(id) {
				continue
			}
			temp := NewIdentifierIssuer("b")
			temp.Issue(id)
			hash, issuer, err := st.hashNDegree(id, temp, 0)
			if err != nil {
				return nil, err
			}
			results = append(results, ndegreeResult{hash: hash, issuer: issuer})
		}
		sort.Slice(results, func(i, j int) bool { return results[i].hash < results[j].hash })
		for _, r := range results {
			for _, id := range r.issuer.IssuedIdentifiers() {
				st.canonical.Issue(id)
			}
		}
	}

	// Relabel, serialize, and sort.
	mapping := make(map[string]string, len(st.canonical.issued))
	for id, issued := range st.canonical.issued {
		mapping[id] = issued
	}
	canonDataset := NewDataset(st.quads...).RenameBlankNodes(func(id string) string {
		if issued, ok := mapping[id]; ok {
			return issued
		}
		return id
	})
	lines := make([]string, 0, canonDataset.Len())
	for _, q := range canonDataset.Quads() {
		lines = append(lines, SerializeQuadCanonical(q, nil, true))
	}
	sort.Strings(lines)

	return &CanonicalizationResult{
		Dataset:      NewDataset(canonDataset.Quads()...),
		BlankNodeMap: mapping,
		IssuedOrder:  st.canonical.IssuedIdentifiers(),
		NQuads:       strings.Join(lines, ""),
	}, nil
}

// hashFirstDegree hashes the quads mentioning the node, serialized with
// the reference node as "a" and every other blank node as "z", sorted.
func (st *canonState) hashFirstDegree(id string) string {
	quads := st.bnodeToQuads[id]
	lines := make([]string, 0, len(quads))
	for _, q := range quads {
		lines = append(lines, SerializeQuadCanonical(q, func(other string) string {
			if other == id {
				return "a"
			}
			return "z"
		}, true))
	}
	sort.Strings(lines)
	return st.hash(strings.Join(lines, ""))
}

// hashRelated hashes the relation between the reference node and a
// related blank node in the given position ("s", "o", or "g").
func (st *canonState) hashRelated(related string, quad *Quad, issuer *IdentifierIssuer, position string) string {
	input := position
	if position != "g" {
		input += SerializeTermCanonical(quad.Predicate, nil)
	}
	switch {
	case st.canonical.Has(related):
		input += "_:" + st.canonical.Get(related)
	case issuer.Has(related):
		input += "_:" + issuer.Get(related)
	default:
		input += st.firstDegree[related]
	}
	return st.hash(input)
}

// hashNDegree computes the N-degree hash of the node per RDFC-1.0
// section 4.8, exploring permutations of related nodes with
// lexicographic path pruning.
func (st *canonState) hashNDegree(id string, issuer *IdentifierIssuer, depth int) (string, *IdentifierIssuer, error) {
	if st.opts.MaxRecursionDepth != Unlimited && depth > st.opts.MaxRecursionDepth {
		return "", nil, &LimitExceededError{
			Limit:   "maxRecursionDepth",
			Context: "hashing related blank node " + id,
			Message: fmt.Sprintf("recursion depth exceeded %d", st.opts.MaxRecursionDepth),
		}
	}
	st.ndegreeCalls++
	if st.opts.MaxNDegreeQuadCalls != Unlimited && st.ndegreeCalls > st.opts.MaxNDegreeQuadCalls {
		return "", nil, &LimitExceededError{
			Limit:   "maxNDegreeQuadCalls",
			Context: "hashing related blank node " + id,
			Message: fmt.Sprintf("number of N-degree calls exceeded %d", st.opts.MaxNDegreeQuadCalls),
		}
	}

	// Group the related blank nodes by relation hash.
	hashToRelated := make(map[string][]string)
	for _, quad := range st.bnodeToQuads[id] {
		if err := st.checkDeadline("grouping related blank nodes"); err != nil {
			return "", nil, err
		}
		positions := []struct {
			term Term
			pos  string
		}{
			{quad.Subject, "s"},
			{quad.Object, "o"},
			{quad.Graph, "g"},
		}
		for _, p := range positions {
			b, ok := p.term.(*BlankNode)
			if !ok || b.ID == id {
				continue
			}
			h := st.hashRelated(b.ID, quad, issuer, p.pos)
			hashToRelated[h] = append(hashToRelated[h], b.ID)
		}
	}
	relatedHashes := make([]string, 0, len(hashToRelated))
	for h := range hashToRelated {
		relatedHashes = append(relatedHashes, h)
	}
	sort.Strings(relatedHashes)

	var dataToHash strings.Builder
	for _, relatedHash := range relatedHashes {
		dataToHash.WriteString(relatedHash)

		chosenPath := ""
		var chosenIssuer *IdentifierIssuer

		perm := newPermuter(hashToRelated[relatedHash])
		for perm.next() {
			st.permutations++
			if st.opts.MaxPermutations != Unlimited && st.permutations > st.opts.MaxPermutations {
				return "", nil, &LimitExceededError{
					Limit:   "maxPermutations",
					Context: "permuting related blank nodes of " + id,
					Message: fmt.Sprintf("number of permutations exceeded %d", st.opts.MaxPermutations),
				}
			}
			if err := st.checkDeadline("permuting related blank nodes"); err != nil {
				return "", nil, err
			}

			issuerCopy := issuer.Copy()
			var path strings.Builder
			var recursionList []string
			skip := false

			for _, related := range perm.current() {
				if st.canonical.Has(related) {
					path.WriteString("_:" + st.canonical.Get(related))
				} else {
					if !issuerCopy.Has(related) {
						recursionList = append(recursionList, related)
					}
					path.WriteString("_:" + issuerCopy.Issue(related))
				}
				if chosenPath != "" && path.Len() >= len(chosenPath) && path.String() > chosenPath {
					skip = true
					break
				}
			}

			if !skip {
				for _, related := range recursionList {
					hash, resultIssuer, err := st.hashNDegree(related, issuerCopy, depth+1)
					if err != nil {
						return "", nil, err
					}
					path.WriteString("_:" + issuerCopy.Issue(related))
					path.WriteString(hash)
					issuerCopy = resultIssuer
					if chosenPath != "" && path.Len() >= len(chosenPath) && path.String() > chosenPath {
						skip = true
						break
					}
				}
			}

			if !skip && (chosenPath == "" || path.String() < chosenPath) {
				chosenPath = path.String()
				chosenIssuer = issuerCopy
			}
		}

		dataToHash.WriteString(chosenPath)
		if chosenIssuer != nil {
			issuer = chosenIssuer
		}
	}

	return st.hash(dataToHash.String()), issuer, nil
}

func (st *canonState) checkDeadline(context string) error {
	if !st.deadline.IsZero() && time.Now().After(st.deadline) {
		return &LimitExceededError{
			Limit:   "maxTimeMs",
			Context: context,
			Message: "wall-clock deadline exceeded",
		}
	}
	return nil
}

// hash digests the input with the configured algorithm and returns
// lowercase hex.
func (st *canonState) hash(input string) string {
	switch st.opts.HashAlgorithm {
	case "sha384":
		sum := sha512.Sum384([]byte(input))
		return hex.EncodeToString(sum[:])
	case "sha512":
		sum := sha512.Sum512([]byte(input))
		return hex.EncodeToString(sum[:])
	default:
		sum := sha256.Sum256([]byte(input))
		return hex.EncodeToString(sum[:])
	}
}

// permuter enumerates permutations of a string slice in lexicographic
// order starting from the sorted arrangement.
type permuter struct {
	items   []string
	started bool
	done    bool
}

func newPermuter(items []string) *permuter {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	return &permuter{items: sorted}
}

func (p *permuter) next() bool {
	if p.done {
		return false
	}
	if !p.started {
		p.started = true
		return true
	}
	// Standard next-permutation step.
	n := len(p.items)
	i := n - 2
	for i >= 0 && p.items[i] >= p.items[i+1] {
		i--
	}
	if i < 0 {
		p.done = true
		return false
	}
	j := n - 1
	for p.items[j] <= p.items[i] {
		j--
	}
	p.items[i], p.items[j] = p.items[j], p.items[i]
	for l, r := i+1, n-1; l < r; l, r = l+1, r-1 {
		p.items[l], p.items[r] = p.items[r], p.items[l]
	}
	return true
}

func (p *permuter) current() []string {
	return p.items
}
