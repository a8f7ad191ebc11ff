// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle computes merkle trees over ordered values such as the
// transactions of a block. Leaves hold the hash of each value, every
// internal node holds H(left | right) and a level with an odd number of
// nodes pairs its last node with itself.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
)

// ErrNoValues is returned when a tree is requested over an empty set.
var ErrNoValues = errors.New("cannot construct tree with no content")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree. Hash returns the bytes identifying the value, the tree
// hashes them once more to form the leaf.
type Hashable[T any] interface {
	Hash() ([]byte, error)
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree over values of some type T.
type Tree[T Hashable[T]] struct {
	Root       *Node[T]
	Leafs      []*Node[T]
	MerkleRoot []byte

	values       []T
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using sha256
// when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a merkle tree over the values in the order provided.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate (re)builds the tree from the specified values.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return ErrNoValues
	}

	leafs := make([]*Node[T], 0, len(values)+1)
	for _, value := range values {
		data, err := value.Hash()
		if err != nil {
			return err
		}

		h := t.hashStrategy()
		h.Write(data)

		leafs = append(leafs, &Node[T]{
			Hash:  h.Sum(nil),
			Value: value,
			leaf:  true,
			tree:  t,
		})
	}

	// An odd number of leafs duplicates the last leaf.
	if len(leafs)%2 == 1 {
		last := leafs[len(leafs)-1]
		leafs = append(leafs, &Node[T]{
			Hash:  last.Hash,
			Value: last.Value,
			leaf:  true,
			dup:   true,
			tree:  t,
		})
	}

	root := t.buildLevel(leafs)

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash
	t.values = append([]T(nil), values...)

	return nil
}

// Values returns the values the tree was built from, in order and without
// the duplicated leaf.
func (t *Tree[T]) Values() []T {
	return append([]T(nil), t.values...)
}

// RootHex returns the merkle root as a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hex.EncodeToString(t.MerkleRoot)
}

// Proof returns the sibling hashes from the leaf holding data up to the root
// along with the concatenation order at each level. An order of 0 means the
// proof hash is concatenated first, 1 means it comes second.
func (t *Tree[T]) Proof(data T) ([][]byte, []int64, error) {
	for _, node := range t.Leafs {
		if node.dup || !node.Value.Equals(data) {
			continue
		}

		var proof [][]byte
		var order []int64
		for parent := node.Parent; parent != nil; parent = parent.Parent {
			if parent.Left == node {
				proof = append(proof, parent.Right.Hash)
				order = append(order, 1)
			} else {
				proof = append(proof, parent.Left.Hash)
				order = append(order, 0)
			}
			node = parent
		}

		return proof, order, nil
	}

	return nil, nil, errors.New("unable to find data in tree")
}

// VerifyProof checks the proof produced by Proof for the data against the
// root of this tree.
func (t *Tree[T]) VerifyProof(data T, proof [][]byte, order []int64) error {
	if len(proof) != len(order) {
		return errors.New("proof and order length mismatch")
	}

	value, err := data.Hash()
	if err != nil {
		return err
	}

	h := t.hashStrategy()
	h.Write(value)
	sum := h.Sum(nil)

	for i, p := range proof {
		h := t.hashStrategy()
		switch order[i] {
		case 0:
			h.Write(p)
			h.Write(sum)
		default:
			h.Write(sum)
			h.Write(p)
		}
		sum = h.Sum(nil)
	}

	if !bytes.Equal(sum, t.MerkleRoot) {
		return errors.New("proof does not produce the merkle root")
	}

	return nil
}

// Verify recalculates every node from the values and reports an error if the
// resulting root does not match the stored root.
func (t *Tree[T]) Verify() error {
	calculated, err := t.Root.calculate()
	if err != nil {
		return err
	}

	if !bytes.Equal(t.MerkleRoot, calculated) {
		return errors.New("root hash invalid")
	}

	return nil
}

// String returns a string representation of the tree. Only leaf nodes are
// included in the output.
func (t *Tree[T]) String() string {
	var b bytes.Buffer
	for _, l := range t.Leafs {
		fmt.Fprintln(&b, l)
	}

	return b.String()
}

// MarshalText implements the TextMarshaler interface and produces a panic
// if anyone tries to marshal the tree. Use the Values function to return a
// slice that can be marshaled.
func (t *Tree[T]) MarshalText() (text []byte, err error) {
	panic("do not marshal the merkle tree, use Values")
}

// buildLevel pairs the nodes of one level into their parents until a single
// root remains.
func (t *Tree[T]) buildLevel(nodes []*Node[T]) *Node[T] {
	if len(nodes) == 1 {
		return nodes[0]
	}

	parents := make([]*Node[T], 0, (len(nodes)+1)/2)
	for i := 0; i < len(nodes); i += 2 {
		left, right := nodes[i], nodes[i]
		if i+1 < len(nodes) {
			right = nodes[i+1]
		}

		h := t.hashStrategy()
		h.Write(left.Hash)
		h.Write(right.Hash)

		n := Node[T]{
			Left:  left,
			Right: right,
			Hash:  h.Sum(nil),
			tree:  t,
		}

		left.Parent = &n
		if right != left {
			right.Parent = &n
		}

		parents = append(parents, &n)
	}

	return t.buildLevel(parents)
}

// =============================================================================

// Node represents a node, root, or leaf in the tree.
type Node[T Hashable[T]] struct {
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   []byte
	Value  T

	tree *Tree[T]
	leaf bool
	dup  bool
}

// calculate walks down to the leafs recomputing the hash of the node.
func (n *Node[T]) calculate() ([]byte, error) {
	h := n.tree.hashStrategy()

	if n.leaf {
		data, err := n.Value.Hash()
		if err != nil {
			return nil, err
		}
		h.Write(data)
		return h.Sum(nil), nil
	}

	left, err := n.Left.calculate()
	if err != nil {
		return nil, err
	}

	right, err := n.Right.calculate()
	if err != nil {
		return nil, err
	}

	h.Write(left)
	h.Write(right)

	return h.Sum(nil), nil
}

// String returns a string representation of the node.
func (n *Node[T]) String() string {
	return fmt.Sprintf("%t %t %x %v", n.leaf, n.dup, n.Hash, n.Value)
}
