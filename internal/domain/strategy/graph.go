// Package strategy implements the strategy mini-game: a random graph laid
// out on a square grid, searched from the start node (0) to the terminal
// node (size²-1) either manually or by a budgeted depth-first search.
// This package is PURE and must NOT import any infrastructure packages.
package strategy

import "math"

// MinSize is the smallest allowed grid side length.
const MinSize = 5

// reach is the Chebyshev radius edges are drawn within.
const reach = 3

// Rand is the randomness the generator draws from. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Graph is an undirected multigraph over Size² nodes stored as adjacency
// lists indexed by node id.
type Graph struct {
	Size int     `json:"size"`
	Adj  [][]int `json:"adj"`
}

// Generate draws a fresh graph. Each node makes floor(density) edge attempts
// plus one more with probability density-floor(density); each attempt links
// the node to a uniformly random node within Chebyshev distance 3.
func Generate(size int, density float64, rng Rand) *Graph {
	if size < MinSize {
		size = MinSize
	}
	if density < 0 || math.IsNaN(density) {
		density = 0
	}
	total := size * size
	adj := make([][]int, total)

	guaranteed := math.Floor(density)
	extra := density - guaranteed

	for i := 0; i < total; i++ {
		tries := int(guaranteed)
		if rng.Float64() < extra {
			tries++
		}

		x, y := i%size, i/size
		minX, maxX := max(x-reach, 0), min(x+reach, size-1)
		minY, maxY := max(y-reach, 0), min(y+reach, size-1)

		for j := 0; j < tries; j++ {
			cx := minX + rng.Intn(maxX-minX+1)
			cy := minY + rng.Intn(maxY-minY+1)
			id := cx + cy*size

			// Duplicate and self edges are allowed.
			adj[i] = append(adj[i], id)
			adj[id] = append(adj[id], i)
		}
	}

	return &Graph{Size: size, Adj: adj}
}

// Nodes returns the number of nodes.
func (g *Graph) Nodes() int { return g.Size * g.Size }

// Terminal returns the id of the end node.
func (g *Graph) Terminal() int { return g.Nodes() - 1 }

// Neighbors returns the adjacency list of a node, nil when out of range.
func (g *Graph) Neighbors(node int) []int {
	if node < 0 || node >= len(g.Adj) {
		return nil
	}
	return g.Adj[node]
}

// Connected reports whether an edge joins a and b.
func (g *Graph) Connected(a, b int) bool {
	for _, n := range g.Neighbors(a) {
		if n == b {
			return true
		}
	}
	return false
}

// Reward is the strategy payout base for solving a graph of the given side
// length: floor(n³/5 + n²/2 + n) with n = size-4.
func Reward(size int) float64 {
	n := float64(size - 4)
	if n < 1 {
		n = 1
	}
	return math.Floor(math.Pow(n, 3)/5 + math.Pow(n, 2)/2 + n)
}
