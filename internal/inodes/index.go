// Package inodes keeps the reverse mapping from inode to the entries naming it
package inodes

import (
	"slices"

	"github.com/tidwall/btree"

	"github.com/deploymenttheory/go-fsrip/internal/ids"
)

// Key identifies an inode within the image
type Key struct {
	FsIndex int
	Inode   uint64
}

// Compare orders keys by filesystem index, then inode
func (k Key) Compare(other Key) int {
	switch {
	case k.FsIndex < other.FsIndex:
		return -1
	case k.FsIndex > other.FsIndex:
		return 1
	case k.Inode < other.Inode:
		return -1
	case k.Inode > other.Inode:
		return 1
	}
	return 0
}

// inodeRefs is one index node
type inodeRefs struct {
	key  Key
	refs []ids.EntryID
}

// Index maps each inode to the IDs of the entries that reference it, in
// the order the references were recorded. Inodes are kept in Key order.
type Index struct {
	tree *btree.BTreeG[*inodeRefs]
}

// NewIndex creates an empty index
func NewIndex() *Index {
	less := func(a, b *inodeRefs) bool { return a.key.Compare(b.key) < 0 }
	return &Index{tree: btree.NewBTreeGOptions(less, btree.Options{NoLocks: true})}
}

// RecordReference appends entryID to the list of (fsIndex, inode)
func (x *Index) RecordReference(fsIndex int, inode uint64, entryID ids.EntryID) {
	candidate := &inodeRefs{key: Key{FsIndex: fsIndex, Inode: inode}}
	node, ok := x.tree.Get(candidate)
	if !ok {
		node = candidate
		x.tree.Set(node)
	}
	node.refs = append(node.refs, slices.Clone(entryID))
}

// References returns the entry IDs recorded for (fsIndex, inode)
func (x *Index) References(fsIndex int, inode uint64) []ids.EntryID {
	node, ok := x.tree.Get(&inodeRefs{key: Key{FsIndex: fsIndex, Inode: inode}})
	if !ok {
		return nil
	}
	return node.refs
}

// Len returns the number of inodes with at least one reference
func (x *Index) Len() int {
	return x.tree.Len()
}

// Each calls fn for every inode, ordered by filesystem then inode, until
// fn returns false
func (x *Index) Each(fn func(Key, []ids.EntryID) bool) {
	x.tree.Scan(func(n *inodeRefs) bool {
		return fn(n.key, n.refs)
	})
}

// HardLinked returns the inodes referenced by more than one entry
func (x *Index) HardLinked() []Key {
	var out []Key
	x.tree.Scan(func(n *inodeRefs) bool {
		if len(n.refs) > 1 {
			out = append(out, n.key)
		}
		return true
	})
	return out
}
