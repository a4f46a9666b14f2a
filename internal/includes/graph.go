package includes

import (
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/phpscan/internal/phpast"
)

// expandRounds caps how many levels of transitive includes are followed
// beyond the seed files. The seen set makes cyclic includes terminate
// regardless.
const expandRounds = 3

// Loader parses a file on demand during expansion. Errors skip the file.
type Loader func(path string) (*phpast.File, error)

// Graph records which files include which, built while expanding the
// include closure of a set of seed files.
type Graph struct {
	g    graph.Graph[string, string]
	root string
}

func NewGraph() *Graph {
	return NewGraphAt("")
}

// NewGraphAt creates a graph for files addressed relative to rootDir.
// Include targets stay rootDir-relative and their existence is probed
// under rootDir.
func NewGraphAt(rootDir string) *Graph {
	return &Graph{
		g:    graph.New(graph.StringHash, graph.Directed()),
		root: rootDir,
	}
}

// Expand scans the seed files for includes and follows discovered targets
// up to expandRounds levels deep. Each includer-to-target edge is recorded.
// The returned slice holds every newly discovered path, in discovery order;
// seed paths are never reported. Loaded files are closed before returning.
func (ig *Graph) Expand(seeds []*phpast.File, load Loader) []string {
	seen := make(map[string]bool)
	var discovered []string
	var frontier []string

	for _, file := range seeds {
		seen[file.Path] = true
	}
	for _, file := range seeds {
		for _, target := range ig.addEdges(file) {
			if !seen[target] {
				seen[target] = true
				discovered = append(discovered, target)
				frontier = append(frontier, target)
			}
		}
	}

	for round := 0; round < expandRounds && len(frontier) > 0; round++ {
		batch := frontier
		frontier = nil
		for _, path := range batch {
			file, err := load(path)
			if err != nil {
				continue
			}
			for _, target := range ig.addEdges(file) {
				if !seen[target] {
					seen[target] = true
					discovered = append(discovered, target)
					frontier = append(frontier, target)
				}
			}
			file.Close()
		}
	}
	return discovered
}

// addEdges scans one file and records its include edges. Returns the file's
// resolved targets.
func (ig *Graph) addEdges(file *phpast.File) []string {
	targets := scanIn(file, ig.root)
	if len(targets) == 0 {
		return nil
	}

	_ = ig.g.AddVertex(file.Path)
	for _, target := range targets {
		_ = ig.g.AddVertex(target)
		_ = ig.g.AddEdge(file.Path, target)
	}
	return targets
}

// DirectIncludes returns the targets a file includes directly, sorted.
func (ig *Graph) DirectIncludes(path string) []string {
	adjacency, err := ig.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	var targets []string
	for target := range adjacency[path] {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}

// Size returns the number of files in the graph.
func (ig *Graph) Size() int {
	order, err := ig.g.Order()
	if err != nil {
		return 0
	}
	return order
}
