// Package depgraph detects cycles and unknown references in an agent
// connection graph.
package depgraph

import (
	"fmt"
	"strings"

	"github.com/kandev/swarm/internal/common/apperr"
)

// CheckAcyclic performs a depth-first walk of edges starting at root,
// failing if the walk revisits a node already on the current path. Self
// edges are cycles of length one. Unknown edge targets fail immediately.
func CheckAcyclic(edges map[string][]string, root string) error {
	onPath := make(map[string]bool)
	visited := make(map[string]bool)
	var path []string

	var walk func(node string) error
	walk = func(node string) error {
		for i, p := range path {
			if p == node {
				cycle := append(append([]string{}, path[i:]...), node)
				return apperr.ConfigError(fmt.Sprintf("Circular dependency detected: %s", strings.Join(cycle, " -> ")), nil)
			}
		}

		if visited[node] {
			return nil
		}

		path = append(path, node)
		onPath[node] = true

		for _, next := range edges[node] {
			if _, ok := edges[next]; !ok {
				return apperr.ConfigError(fmt.Sprintf("agent %q connects to unknown agent %q", node, next), nil)
			}
			if err := walk(next); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		onPath[node] = false
		visited[node] = true
		return nil
	}

	return walk(root)
}
