package taxonomy

import (
	"strings"

	"github.com/sortd/sortd/internal/model"
)

// CategoryPaths flattens a category forest into the path list the
// resolver consumes, depth-first in tree order, bounded by maxDepth.
// The order is stable so the strict-mode fallback is deterministic.
func CategoryPaths(roots []*model.CategoryNode, maxDepth int) []string {
	var paths []string
	var visit func(n *model.CategoryNode, depth int)
	visit = func(n *model.CategoryNode, depth int) {
		if n == nil || (maxDepth >= 1 && depth > maxDepth) {
			return
		}
		paths = append(paths, n.Path)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, r := range roots {
		visit(r, 1)
	}
	return paths
}

// CategoryPathsFromScan extracts directory paths from a scanned tree,
// relative to the scan root, bounded by maxDepth.
func CategoryPathsFromScan(root *model.TreeNode, maxDepth int) []string {
	if root == nil {
		return nil
	}
	var paths []string
	prefix := root.Path
	root.Walk(func(n *model.TreeNode, depth int) bool {
		if depth == 0 {
			return true
		}
		if !n.IsDir {
			return false
		}
		if maxDepth >= 1 && depth > maxDepth {
			return false
		}
		rel := strings.TrimPrefix(n.Path, prefix)
		rel = model.NormalizePath(strings.ReplaceAll(rel, "\\", "/"))
		if rel != "" {
			paths = append(paths, rel)
		}
		return true
	})
	return paths
}

// FilePaths collects every file (leaf) path in a scanned tree.
func FilePaths(root *model.TreeNode) []string {
	var paths []string
	root.Walk(func(n *model.TreeNode, _ int) bool {
		if !n.IsDir {
			paths = append(paths, n.Path)
		}
		return true
	})
	return paths
}

// childrenOf derives the distinct direct children under parent from a
// flattened path list, preserving first-seen order.
func childrenOf(existing []string, parent string) []string {
	seen := make(map[string]struct{})
	var children []string
	for _, cat := range existing {
		rest := cat
		if parent != "" {
			if !strings.HasPrefix(cat, parent+"/") {
				continue
			}
			rest = strings.TrimPrefix(cat, parent+"/")
		}
		child := rest
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			child = rest[:i]
		}
		if child == "" {
			continue
		}
		if _, ok := seen[child]; !ok {
			seen[child] = struct{}{}
			children = append(children, child)
		}
	}
	return children
}

// ApplyChildBound walks a flexible-mode path segment by segment and
// only accepts a new category where the parent still has room under
// cfg.MaxChildren. A full parent collapses the new segment onto the
// most similar existing sibling.
func ApplyChildBound(path string, existing []string, cfg model.TaxonomyConfig) string {
	path = model.NormalizePath(path)
	if path == "" || cfg.MaxChildren < 1 {
		return path
	}

	var resolved []string
	for _, segment := range strings.Split(path, "/") {
		parent := strings.Join(resolved, "/")
		siblings := childrenOf(existing, parent)

		known := false
		for _, s := range siblings {
			if strings.EqualFold(s, segment) {
				segment = s
				known = true
				break
			}
		}

		if !known && len(siblings) >= cfg.MaxChildren {
			if best, score := bestMatch(segment, siblings); score > 0 {
				segment = best
			} else {
				segment = siblings[0]
			}
		}
		resolved = append(resolved, segment)
	}
	return strings.Join(resolved, "/")
}
