package fsops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sortd/sortd/internal/model"
)

// ScanTree walks root and returns it as a TreeNode. Entries are
// sorted by name so category extraction sees a stable order.
func (f *FS) ScanTree(ctx context.Context, root string) (*model.TreeNode, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return &model.TreeNode{Name: info.Name(), Path: root, Size: info.Size()}, nil
	}
	return f.scanDir(ctx, root, info.Name())
}

func (f *FS) scanDir(ctx context.Context, path, name string) (*model.TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	node := &model.TreeNode{Name: name, Path: path, IsDir: true}
	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			child, err := f.scanDir(ctx, childPath, entry.Name())
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", childPath, err)
		}
		node.Children = append(node.Children, &model.TreeNode{
			Name: entry.Name(),
			Path: childPath,
			Size: info.Size(),
		})
	}
	return node, nil
}
