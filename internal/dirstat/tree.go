package dirstat

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"
)

// Node is an entry in the aggregated tree. Directory nodes list their children
// largest first.
type Node struct {
	Entry `yaml:",inline"`

	// Children are the direct children, ordered by size descending. Ties keep
	// directory listing (lexical) order.
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tree is the result of aggregating a walk.
type Tree struct {
	// Root is the node for the scanned directory.
	Root *Node
	// Files lists every readable regular file, sorted by path.
	Files []Entry
	// TotalFolders is the number of directories below the root.
	TotalFolders int64
	// TotalFiles is the number of readable regular files.
	TotalFiles int64
	// TotalBytes is the cumulative size of all files.
	TotalBytes int64
	// Skipped lists the entries that could not be read.
	Skipped []SkippedEntry
}

// Find returns the node at path, or nil.
func (t *Tree) Find(path string) *Node {
	if t == nil || t.Root == nil {
		return nil
	}

	path = filepath.Clean(path)
	stack := []*Node{t.Root}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.Path == path {
			return node
		}

		if node.IsDir() && within(node.Path, path) {
			stack = append(stack, node.Children...)
		}
	}

	return nil
}

// Aggregate folds walk records into a Tree rooted at root.
//
// A directory's size is the sum of the sizes of every file beneath it;
// symlinks and other non-regular entries count as zero. Records carrying an
// error are moved to Tree.Skipped. Records outside root are ignored, and
// directories missing from the records are synthesised so every entry has a
// parent.
func Aggregate(root string, records []Record) *Tree {
	root = filepath.Clean(root)
	nodes := newArena(root)
	tree := &Tree{}

	for _, r := range records {
		if r.Err != nil {
			op := r.Op
			if op == "" {
				op = OpWalk
			}

			tree.Skipped = append(tree.Skipped, Skip(op, r.Path, r.Err))

			continue
		}

		path := filepath.Clean(r.Path)
		if path != root && !within(root, path) {
			continue
		}

		r.Path = path
		nodes.put(r.Entry)
	}

	nodes.fold()

	tree.Root = nodes.nodes[0]

	for _, node := range nodes.nodes[1:] {
		switch node.Kind {
		case KindDir:
			tree.TotalFolders++
		case KindFile:
			tree.TotalFiles++
			tree.TotalBytes += node.Size
			tree.Files = append(tree.Files, node.Entry)
		}
	}

	slices.SortFunc(tree.Files, func(a, b Entry) int { return cmp.Compare(a.Path, b.Path) })
	slices.SortStableFunc(tree.Skipped, func(a, b SkippedEntry) int { return cmp.Compare(a.Path, b.Path) })

	return tree
}

// arena holds the nodes of one aggregation, addressed by index. Index 0 is the root.
type arena struct {
	root  string
	nodes []*Node
	kids  [][]int
	index map[string]int
}

func newArena(root string) *arena {
	a := &arena{
		root:  root,
		index: make(map[string]int),
	}

	a.nodes = append(a.nodes, &Node{Entry: Entry{Path: root, Name: filepath.Base(root), Kind: KindDir}})
	a.kids = append(a.kids, nil)
	a.index[root] = 0

	return a
}

// put stores entry, creating any missing ancestor directories top-down.
func (a *arena) put(entry Entry) {
	if idx, ok := a.index[entry.Path]; ok {
		// A real record replaces a synthesised placeholder; children stay linked.
		if entry.Kind == KindDir {
			entry.Size = 0
		}

		a.nodes[idx].Entry = entry

		return
	}

	var chain []string

	for p := entry.Path; ; p = filepath.Dir(p) {
		if _, ok := a.index[p]; ok {
			break
		}

		chain = append(chain, p)
	}

	for i := len(chain) - 1; i >= 0; i-- {
		p := chain[i]

		node := &Node{Entry: Entry{Path: p, Name: filepath.Base(p), Kind: KindDir}}
		if i == 0 {
			node.Entry = entry
		}

		idx := len(a.nodes)
		a.nodes = append(a.nodes, node)
		a.kids = append(a.kids, nil)
		a.index[p] = idx

		parent := a.index[filepath.Dir(p)]
		a.kids[parent] = append(a.kids[parent], idx)
	}
}

// fold computes directory sizes in post-order with an explicit stack and
// attaches sorted children to every directory node.
func (a *arena) fold() {
	type frame struct {
		idx      int
		expanded bool
	}

	stack := []frame{{idx: 0}}

	for len(stack) > 0 {
		top := len(stack) - 1
		idx := stack[top].idx

		if !stack[top].expanded {
			stack[top].expanded = true

			for _, kid := range a.kids[idx] {
				if a.nodes[kid].Kind == KindDir {
					stack = append(stack, frame{idx: kid})
				}
			}

			continue
		}

		stack = stack[:top]
		a.finish(idx)
	}
}

// finish finalises a directory once all of its child directories are done.
func (a *arena) finish(idx int) {
	node := a.nodes[idx]
	kids := a.kids[idx]

	node.Size = 0
	node.Children = make([]*Node, 0, len(kids))

	for _, kid := range kids {
		child := a.nodes[kid]

		switch child.Kind {
		case KindFile, KindDir:
			node.Size += child.Size
		default:
			child.Size = 0
		}

		node.Children = append(node.Children, child)
	}

	slices.SortStableFunc(node.Children, func(x, y *Node) int {
		if c := cmp.Compare(y.Size, x.Size); c != 0 {
			return c
		}

		return cmp.Compare(x.Name, y.Name)
	})
}

// within reports whether path lies strictly below root.
func within(root, path string) bool {
	if root == path {
		return false
	}

	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	return strings.HasPrefix(path, prefix)
}
