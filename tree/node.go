// Package tree implements the device tree nodes that own simulation
// components, and the phased lifecycle the tree moves through.
package tree

import (
	"iter"
	"log"
	"regexp"
	"slices"
	"strings"
)

type Phase int

//go:generate go tool stringer -type=Phase
const (
	BUILDING    = Phase(0) // Nodes and components are being created.
	CONFIGURING = Phase(1) // Parameters are being applied.
	FINALIZING  = Phase(2) // Components are resolving their bindings.
	FINALIZED   = Phase(3) // The tree is live; simulation may run.
	TEARDOWN    = Phase(4) // The tree is being destroyed.
)

// RESERVED_PREFIX is reserved for framework-generated names.
const RESERVED_PREFIX = "__"

var nameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateName checks name against the node naming rules.
func ValidateName(name string) (err error) {
	switch {
	case len(name) == 0:
		err = ErrNameEmpty
	case strings.HasPrefix(name, RESERVED_PREFIX):
		err = &ErrName{Name: name, Err: ErrNameReserved}
	case !nameRegexp.MatchString(name):
		err = &ErrName{Name: name, Err: ErrNameInvalid}
	}
	return
}

// Node is a named element of the device tree.
type Node struct {
	Verbose bool // Set to enable verbose logging.

	name     string
	parent   *Node
	children []*Node
	phase    Phase // Only meaningful on the root.
}

// NewRoot creates the root of a new tree, in the BUILDING phase.
func NewRoot(name string) (root *Node, err error) {
	err = ValidateName(name)
	if err != nil {
		return
	}

	root = &Node{name: name}
	return
}

// AddChild creates a named child. Children may only be added while BUILDING.
func (node *Node) AddChild(name string) (child *Node, err error) {
	defer func() {
		if err != nil {
			err = &ErrNode{Location: node.Location(), Err: err}
		}
	}()

	if node.Phase() != BUILDING {
		err = ErrPhase
		return
	}

	err = ValidateName(name)
	if err != nil {
		return
	}

	if node.Child(name) != nil {
		err = &ErrName{Name: name, Err: ErrNameDuplicate}
		return
	}

	child = &Node{name: name, parent: node, Verbose: node.Verbose}
	node.children = append(node.children, child)
	return
}

// Name of the node.
func (node *Node) Name() string {
	return node.name
}

// Parent of the node, or nil for the root.
func (node *Node) Parent() *Node {
	return node.parent
}

// Root of the tree containing the node.
func (node *Node) Root() (root *Node) {
	for root = node; root.parent != nil; root = root.parent {
	}
	return
}

// Child returns the named direct child, or nil.
func (node *Node) Child(name string) *Node {
	n := slices.IndexFunc(node.children, func(child *Node) bool { return child.name == name })
	if n < 0 {
		return nil
	}
	return node.children[n]
}

// Children iterates the direct children in creation order.
func (node *Node) Children() iter.Seq[*Node] {
	return slices.Values(node.children)
}

// Location is the dotted path from the root to the node.
func (node *Node) Location() string {
	if node.parent == nil {
		return node.name
	}
	return node.parent.Location() + "." + node.name
}

// Phase of the tree containing the node.
func (node *Node) Phase() Phase {
	return node.Root().phase
}

// Advance moves the whole tree to its next phase. Only the root may advance.
func (node *Node) Advance() (err error) {
	if node.parent != nil {
		err = &ErrNode{Location: node.Location(), Err: ErrNotRoot}
		return
	}

	if node.phase == TEARDOWN {
		err = &ErrNode{Location: node.Location(), Err: ErrPhase}
		return
	}

	node.phase++
	if node.Verbose {
		log.Printf("tree: %v: %v", node.Location(), node.phase)
	}
	return
}

// String implements fmt.Stringer.
func (node *Node) String() string {
	return node.Location()
}
