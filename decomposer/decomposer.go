// Package decomposer induces a grammar over a codepoint stream in the
// Sequitur family: a digram is replaced by a coined rule as soon as it
// repeats (spec.md §4.6). A rule's usage counts its top-level occurrences
// and its references from other rules' bodies; a rule whose one remaining
// use is a top-level occurrence is dissolved back into its two children,
// while a rule left with a single use inside another rule's body is kept
// as a rule, not inlined. Every surviving rule is addressed bottom-up via
// internal/addr, so the same repeated substring discovered in a later
// document resolves to the same composition id.
package decomposer

import (
	"context"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/addr"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store"
)

// symbol is one element of the working sequence: either a terminal
// codepoint or a reference to a coined rule.
type symbol struct {
	terminal bool
	seed     model.Seed // valid when terminal
	ruleID   int        // valid when !terminal
}

// key makes symbol comparable for use as a digram table key.
type key struct {
	terminal bool
	seedType model.SeedType
	seedVal  uint64
	ruleID   int
}

func keyOf(s symbol) key {
	if s.terminal {
		return key{terminal: true, seedType: s.seed.Type, seedVal: s.seed.Value}
	}
	return key{ruleID: s.ruleID}
}

// digram is an adjacent symbol pair's comparable identity.
type digram [2]key

// rule is a coined two-symbol digram, kept around until it is either
// published (surviving the whole scan) or inlined away.
type rule struct {
	id       int
	children [2]symbol
}

// Decompose(text) runs grammar induction and returns the root node id,
// whose ReconstructSeeds call (recursively expanding composition children)
// yields text's codepoints exactly and in order (spec.md §4.6's stated
// invariant). Compositions are tagged GeometryLineString: the decomposer's
// children are inherently sequential, unlike a type atom's unordered
// key/value bag.
func Decompose(ctx context.Context, st store.NodeStore, text string) (int64, error) {
	if text == "" {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "decomposer input is empty")
	}

	ind := newInducer()
	for _, r := range text {
		ind.appendTerminal(model.Seed{Type: model.SeedUnicodeCodepoint, Value: uint64(r)})
	}
	result := ind.result()

	root, err := publish(ctx, st, result.seq, result.byID)
	if err != nil {
		return 0, err
	}
	return addr.IDOf(root.Child), nil
}

type induced struct {
	seq  []symbol
	byID map[int]*rule
}

// llnode is one element of the doubly-linked symbol list spec.md §4.6
// names as the decomposer's working data structure. prev/next of -1 mean
// "no neighbor"; dead nodes (consumed by a replacement) are left in the
// nodes arena but unlinked and never revisited.
type llnode struct {
	sym        symbol
	prev, next int
}

// inducer runs grammar induction as a single left-to-right scan (spec.md
// §4.6): each newly appended symbol is checked against a digram table, and
// on a second occurrence both occurrences are spliced into a coined rule.
// Because every node is touched by digram bookkeeping a constant number of
// times — once when appended, once per splice it participates in — the
// whole scan is O(N) amortized, unlike a per-round full-table rebuild.
type inducer struct {
	nodes      []llnode
	alive      []bool
	head, tail int

	// liveOcc records, for a digram seen exactly once since it last had no
	// rule, the node index of its left element. ruleByDigram records, for a
	// digram coined into a rule, that rule's id until the rule is inlined —
	// kept even after both original occurrences are gone, so a same-shaped
	// digram appearing anywhere later reuses the same rule.
	liveOcc      map[digram]int
	ruleByDigram map[digram]int

	usage    map[int]int
	occNodes map[int]map[int]struct{}
	rules    map[int]*rule
	nextID   int

	queue []int
}

func newInducer() *inducer {
	return &inducer{
		head: -1, tail: -1,
		liveOcc:      map[digram]int{},
		ruleByDigram: map[digram]int{},
		usage:        map[int]int{},
		occNodes:     map[int]map[int]struct{}{},
		rules:        map[int]*rule{},
	}
}

func (ind *inducer) newNode(sym symbol) int {
	idx := len(ind.nodes)
	ind.nodes = append(ind.nodes, llnode{sym: sym, prev: -1, next: -1})
	ind.alive = append(ind.alive, true)
	if !sym.terminal {
		ind.usage[sym.ruleID]++
		if ind.occNodes[sym.ruleID] == nil {
			ind.occNodes[sym.ruleID] = map[int]struct{}{}
		}
		ind.occNodes[sym.ruleID][idx] = struct{}{}
	}
	return idx
}

// dropNode removes idx's bookkeeping contribution without unlinking it —
// callers splice the list themselves, since a drop always happens as part
// of a larger replace/inline operation that relinks the surviving nodes.
func (ind *inducer) dropNode(idx int) {
	ind.alive[idx] = false
	sym := ind.nodes[idx].sym
	if sym.terminal {
		return
	}
	rid := sym.ruleID
	ind.usage[rid]--
	delete(ind.occNodes[rid], idx)
	if ind.usage[rid] == 1 {
		ind.inlineRule(rid)
	}
}

func (ind *inducer) forgetIfRecorded(d digram, pos int) {
	if j, ok := ind.liveOcc[d]; ok && j == pos {
		delete(ind.liveOcc, d)
	}
}

func (ind *inducer) enqueue(idx int) {
	ind.queue = append(ind.queue, idx)
}

// appendTerminal adds a new terminal symbol at the tail and resolves every
// digram violation it triggers, including any cascade those resolutions
// themselves create.
func (ind *inducer) appendTerminal(seed model.Seed) {
	idx := ind.newNode(symbol{terminal: true, seed: seed})
	if ind.tail == -1 {
		ind.head, ind.tail = idx, idx
	} else {
		ind.nodes[ind.tail].next = idx
		ind.nodes[idx].prev = ind.tail
		ind.tail = idx
	}
	ind.enqueue(idx)
	ind.drain()
}

func (ind *inducer) drain() {
	for len(ind.queue) > 0 {
		idx := ind.queue[len(ind.queue)-1]
		ind.queue = ind.queue[:len(ind.queue)-1]
		ind.checkLeftDigram(idx)
	}
}

// checkLeftDigram inspects the digram formed by idx and its left neighbor,
// the only adjacency that can have changed when idx was just created or
// relinked (spec.md §4.6: "on inserting each new adjacency, either
// register it or ... replace").
func (ind *inducer) checkLeftDigram(idx int) {
	if !ind.alive[idx] {
		return
	}
	p := ind.nodes[idx].prev
	if p == -1 || !ind.alive[p] {
		return
	}
	d := digram{keyOf(ind.nodes[p].sym), keyOf(ind.nodes[idx].sym)}

	if rid, ok := ind.ruleByDigram[d]; ok {
		ind.replaceWithRule(p, idx, rid)
		return
	}

	if j, ok := ind.liveOcc[d]; ok && ind.alive[j] && j != p && j != idx {
		rid := ind.nextID
		ind.nextID++
		rightOfJ := ind.nodes[j].next
		ind.rules[rid] = &rule{id: rid, children: [2]symbol{ind.nodes[j].sym, ind.nodes[rightOfJ].sym}}
		ind.ruleByDigram[d] = rid
		// The new rule's body is itself a use of each rule it references, so
		// a rule still referenced from a body is never inlined away.
		for _, c := range ind.rules[rid].children {
			if !c.terminal {
				ind.usage[c.ruleID]++
			}
		}
		delete(ind.liveOcc, d)

		overlap := p == rightOfJ // e.g. "aaa": the digram's two occurrences share a node
		ind.replaceWithRule(j, rightOfJ, rid)
		if overlap {
			ind.enqueue(idx)
			return
		}
		ind.replaceWithRule(p, idx, rid)
		return
	}

	ind.liveOcc[d] = p
}

// replaceWithRule splices out the pair (left, right) and replaces it with
// a single node referencing rid, rewiring the neighbors' digram entries
// (spec.md §4.6) and re-enqueuing the new boundary digrams for a cascading
// check.
func (ind *inducer) replaceWithRule(left, right, rid int) int {
	p := ind.nodes[left].prev
	q := ind.nodes[right].next

	if p != -1 {
		ind.forgetIfRecorded(digram{keyOf(ind.nodes[p].sym), keyOf(ind.nodes[left].sym)}, p)
	}
	if q != -1 {
		ind.forgetIfRecorded(digram{keyOf(ind.nodes[right].sym), keyOf(ind.nodes[q].sym)}, right)
	}

	newIdx := ind.newNode(symbol{terminal: false, ruleID: rid})
	ind.nodes[newIdx].prev = p
	ind.nodes[newIdx].next = q
	if p != -1 {
		ind.nodes[p].next = newIdx
	} else {
		ind.head = newIdx
	}
	if q != -1 {
		ind.nodes[q].prev = newIdx
	} else {
		ind.tail = newIdx
	}

	ind.dropNode(left)
	ind.dropNode(right)

	if p != -1 {
		ind.enqueue(newIdx)
	}
	if q != -1 {
		ind.enqueue(q)
	}
	return newIdx
}

// inlineRule dissolves rid, whose one remaining use is a single top-level
// node (no rule body references it), splicing its two children back into the sequence in its place (spec.md
// §4.6: "if a coined composition's usage count falls to 1 ... inline it").
// The digram shape is forgotten too, so the same shape recurring later is
// free to be coined into a fresh rule.
func (ind *inducer) inlineRule(rid int) {
	def, ok := ind.rules[rid]
	if !ok {
		return
	}
	var x int = -1
	for idx := range ind.occNodes[rid] {
		x = idx
		break
	}
	if x == -1 {
		return
	}

	p := ind.nodes[x].prev
	q := ind.nodes[x].next
	if p != -1 {
		ind.forgetIfRecorded(digram{keyOf(ind.nodes[p].sym), keyOf(ind.nodes[x].sym)}, p)
	}
	if q != -1 {
		ind.forgetIfRecorded(digram{keyOf(ind.nodes[x].sym), keyOf(ind.nodes[q].sym)}, x)
	}

	delete(ind.rules, rid)
	delete(ind.ruleByDigram, digram{keyOf(def.children[0]), keyOf(def.children[1])})
	ind.dropNode(x)

	y := ind.newNode(def.children[0])
	z := ind.newNode(def.children[1])
	for _, c := range def.children {
		if !c.terminal {
			ind.usage[c.ruleID]-- // the body's use now lives in y or z
		}
	}
	ind.nodes[y].prev, ind.nodes[y].next = p, z
	ind.nodes[z].prev, ind.nodes[z].next = y, q
	if p != -1 {
		ind.nodes[p].next = y
	} else {
		ind.head = y
	}
	if q != -1 {
		ind.nodes[q].prev = z
	} else {
		ind.tail = z
	}

	if p != -1 {
		ind.enqueue(y)
	}
	ind.enqueue(z)
	if q != -1 {
		ind.enqueue(q)
	}
}

// result walks the settled list head to tail into the flat sequence
// publish addresses bottom-up.
func (ind *inducer) result() induced {
	var seq []symbol
	for i := ind.head; i != -1; i = ind.nodes[i].next {
		seq = append(seq, ind.nodes[i].sym)
	}
	return induced{seq: seq, byID: ind.rules}
}

// publish addresses every surviving rule bottom-up (a rule's two children
// are resolved, recursively, before the rule itself is addressed) and then
// addresses the top-level sequence as a final composition.
func publish(ctx context.Context, st store.NodeStore, seq []symbol, rules map[int]*rule) (addr.Resolved, error) {
	cache := map[int]addr.Resolved{}

	var resolveRule func(id int) (addr.Resolved, error)
	resolveSym := func(s symbol) (addr.Resolved, error) {
		if s.terminal {
			return addr.InsertConstant(ctx, st, s.seed)
		}
		return resolveRule(s.ruleID)
	}
	resolveRule = func(id int) (addr.Resolved, error) {
		if r, ok := cache[id]; ok {
			return r, nil
		}
		def, ok := rules[id]
		if !ok {
			return addr.Resolved{}, errkind.Wrap(errkind.InvariantViolation, "decomposer: dangling rule reference %d", id)
		}
		a, err := resolveSym(def.children[0])
		if err != nil {
			return addr.Resolved{}, err
		}
		b, err := resolveSym(def.children[1])
		if err != nil {
			return addr.Resolved{}, err
		}
		r, err := addr.InsertComposition(ctx, st, []addr.Resolved{a, b}, nil, model.GeometryLineString)
		if err != nil {
			return addr.Resolved{}, err
		}
		cache[id] = r
		return r, nil
	}

	children := make([]addr.Resolved, len(seq))
	for i, s := range seq {
		r, err := resolveSym(s)
		if err != nil {
			return addr.Resolved{}, err
		}
		children[i] = r
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return addr.InsertComposition(ctx, st, children, nil, model.GeometryLineString)
}
