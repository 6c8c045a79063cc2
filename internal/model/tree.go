package model

// TreeNode is the single tree shape shared by directory scans and
// taxonomy extraction. A node is either a directory (IsDir, with
// children) or a file (leaf).
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Children []*TreeNode `json:"children,omitempty"`
	Size     int64       `json:"size,omitempty"`
	IsDir    bool        `json:"isDir"`
}

// Walk visits n and every descendant depth-first. depth is 1 for the
// children of the root. Returning false from fn prunes the subtree.
func (n *TreeNode) Walk(fn func(node *TreeNode, depth int) bool) {
	if n == nil {
		return
	}
	n.walk(0, fn)
}

func (n *TreeNode) walk(depth int, fn func(*TreeNode, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(depth+1, fn)
	}
}

// FindChild returns the direct child with the given name, or nil.
func (n *TreeNode) FindChild(name string) *TreeNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}
