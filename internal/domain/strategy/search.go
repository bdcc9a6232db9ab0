package strategy

import "math"

// StepResult reports what a single search step did.
type StepResult int

const (
	// StepIdle means the frontier was empty.
	StepIdle StepResult = iota
	// StepVisited means a new node was expanded.
	StepVisited
	// StepRevisit means the popped node had already been expanded.
	StepRevisit
	// StepTerminal means the terminal node was popped.
	StepTerminal
)

// Board is one graph together with its search frontier and the manual
// traversal cursor.
type Board struct {
	Graph    *Graph
	Selected int
	Stack    []int

	searched map[int]struct{}
	queued   map[int]int
}

// NewBoard starts a search over g at node 0.
func NewBoard(g *Graph) *Board {
	b := &Board{
		Graph:    g,
		searched: make(map[int]struct{}),
		queued:   make(map[int]int),
	}
	b.push(0)
	return b
}

func (b *Board) push(node int) {
	b.Stack = append(b.Stack, node)
	b.queued[node]++
}

func (b *Board) pop() int {
	last := len(b.Stack) - 1
	node := b.Stack[last]
	b.Stack = b.Stack[:last]
	if b.queued[node] <= 1 {
		delete(b.queued, node)
	} else {
		b.queued[node]--
	}
	return node
}

// Searched reports whether node has been expanded.
func (b *Board) Searched(node int) bool {
	_, ok := b.searched[node]
	return ok
}

// SearchedCount returns the number of expanded nodes.
func (b *Board) SearchedCount() int { return len(b.searched) }

// Queued reports whether node is on the frontier.
func (b *Board) Queued(node int) bool { return b.queued[node] > 0 }

// Exhausted reports whether the frontier is empty.
func (b *Board) Exhausted() bool { return len(b.Stack) == 0 }

// Step pops one node. Unvisited nodes are expanded by pushing every
// neighbor that is neither searched nor queued, walking the adjacency list
// from its end so the first-listed neighbor is popped first.
func (b *Board) Step() (int, StepResult) {
	if len(b.Stack) == 0 {
		return -1, StepIdle
	}

	node := b.pop()
	if node == b.Graph.Terminal() {
		return node, StepTerminal
	}
	if b.Searched(node) {
		return node, StepRevisit
	}

	b.searched[node] = struct{}{}
	adj := b.Graph.Neighbors(node)
	for i := len(adj) - 1; i >= 0; i-- {
		next := adj[i]
		if !b.Searched(next) && !b.Queued(next) {
			b.push(next)
		}
	}
	return node, StepVisited
}

// Move advances the manual cursor to node when it is adjacent to the
// current one. It reports whether the cursor moved and whether it reached
// the terminal node.
func (b *Board) Move(node int) (moved, terminal bool) {
	if !b.Graph.Connected(b.Selected, node) {
		return false, false
	}
	b.Selected = node
	return true, node == b.Graph.Terminal()
}

// MaxStepsPerTake bounds the steps one Take may grant, however long the
// interval it covers.
const MaxStepsPerTake = 1 << 20

// Throttle converts a continuous attempts-per-second rate into whole steps,
// carrying the fractional remainder between calls.
type Throttle struct {
	Pending float64 `json:"pending"`
}

// Take adds diff*rate to the pending budget and returns its integer part,
// at most MaxStepsPerTake. Whole steps beyond the cap are dropped.
func (t *Throttle) Take(diff, rate float64) int {
	if rate <= 0 || diff <= 0 {
		return 0
	}
	t.Pending += diff * rate
	if math.IsNaN(t.Pending) || math.IsInf(t.Pending, 0) {
		t.Pending = 0
		return 0
	}
	n := math.Floor(t.Pending)
	t.Pending -= n
	return int(math.Min(n, MaxStepsPerTake))
}
