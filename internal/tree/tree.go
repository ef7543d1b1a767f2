// Package tree holds the in-memory snapshot of a KV namespace: an arena of
// nodes indexed by inode, the builder that fills it from the store, and the
// attribute and content helpers the filesystem layer serves from it.
//
// A Tree is immutable once Build returns. Nodes handed out by the lookup
// methods are shared and must not be modified.
package tree

import (
	"github.com/S1riyS/vaultfs/internal/models"
)

const (
	RootIno  uint64 = 1
	RootName        = "/"
)

type Tree struct {
	// nodes[i] has inode i+1
	nodes []*models.Node
}

type Stats struct {
	Directories  int `json:"directories"`
	SecretGroups int `json:"secret_groups"`
	Secrets      int `json:"secrets"`
}

func (t *Tree) Root() *models.Node {
	return t.nodes[0]
}

// Len is the number of nodes, which is also the highest inode.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) FindByIno(ino uint64) (*models.Node, bool) {
	if ino == 0 || ino > uint64(len(t.nodes)) {
		return nil, false
	}
	return t.nodes[ino-1], true
}

// FindByInoAndName resolves name among the children of parentIno. Names must
// match exactly. Secrets have no children, so a secret parent never matches.
func (t *Tree) FindByInoAndName(parentIno uint64, name string) (*models.Node, bool) {
	parent, ok := t.FindByIno(parentIno)
	if !ok || !parent.Kind.IsContainer() {
		return nil, false
	}

	for _, ino := range parent.Children {
		child := t.nodes[ino-1]
		if child.Name == name {
			return child, true
		}
	}

	return nil, false
}

func (t *Tree) Stats() Stats {
	var s Stats
	for _, n := range t.nodes {
		switch n.Kind {
		case models.NodeKindDirectory:
			s.Directories++
		case models.NodeKindSecretGroup:
			s.SecretGroups++
		case models.NodeKindSecret:
			s.Secrets++
		}
	}
	return s
}
