package domain

import (
	"strings"
)

// NodeID addresses a node inside the arena of the Tree that owns it.
// IDs are only meaningful within one tree lineage.
type NodeID int

// NoParent asks AddChild to insert the node as the root of an empty tree.
const NoParent NodeID = -1

// Step describes a node to append: what to feed the handler and which handler owns it.
type Step struct {
	Input           string
	InputForDisplay string
	Target          string
	Data            Data
}

// Node is one step of the reasoning trace.
// It is created open and closed at most once, by the handler it targets.
type Node struct {
	id              NodeID
	parent          NodeID
	depth           int
	input           string
	inputForDisplay string
	target          string
	open            bool
	output          string
	tag             string
	data            Data
	prompts         []PromptTrace
	children        []NodeID
}

func newNode(id, parent NodeID, depth int, step Step) *Node {
	data := step.Data.Clone()
	if data == nil {
		data = Data{}
	}
	return &Node{
		id:              id,
		parent:          parent,
		depth:           depth,
		input:           step.Input,
		inputForDisplay: step.InputForDisplay,
		target:          step.Target,
		open:            true,
		data:            data,
	}
}

func (n *Node) ID() NodeID              { return n.id }
func (n *Node) Parent() NodeID          { return n.parent }
func (n *Node) Depth() int              { return n.depth }
func (n *Node) Input() string           { return n.input }
func (n *Node) InputForDisplay() string { return n.inputForDisplay }
func (n *Node) Target() string          { return n.target }
func (n *Node) IsOpen() bool            { return n.open }

// Output returns the handler result; ok is false while the node is open.
func (n *Node) Output() (output string, ok bool) {
	if n.open {
		return "", false
	}
	return n.output, true
}

// SetInput rewrites the input of an open node, e.g. to store a normalized form.
func (n *Node) SetInput(input string) error {
	if !n.open {
		return &NodeError{Op: "set input", Node: n.id, Err: ErrAlreadyClosed}
	}
	n.input = input
	return nil
}

// Data exposes the node's key-value bag. Handlers may only mutate it while they own the
// node, on a tree they have cloned.
func (n *Node) Data() Data { return n.data }

// Set stores a value in the data bag. The bag is frozen once the node closes.
func (n *Node) Set(key string, value any) error {
	if !n.open {
		return &NodeError{Op: "set data", Node: n.id, Err: ErrAlreadyClosed}
	}
	n.data[key] = value
	return nil
}

// Merge copies every entry of d into the data bag.
func (n *Node) Merge(d Data) error {
	if !n.open {
		return &NodeError{Op: "merge data", Node: n.id, Err: ErrAlreadyClosed}
	}
	for k, v := range d.Clone() {
		n.data[k] = v
	}
	return nil
}

// Prompts returns the generator calls recorded on this node.
func (n *Node) Prompts() []PromptTrace {
	out := make([]PromptTrace, len(n.prompts))
	copy(out, n.prompts)
	return out
}

// AddPrompt appends a generator input and its outputs to the trace.
func (n *Node) AddPrompt(input string, outputs []string) {
	n.prompts = append(n.prompts, PromptTrace{
		Input:   input,
		Outputs: append([]string(nil), outputs...),
	})
}

// SetTag overrides the label used when displaying this node.
func (n *Node) SetTag(tag string) { n.tag = tag }

// Label is the one-line summary used by logs and text renderers.
// Open nodes are prefixed with "*".
func (n *Node) Label() string {
	if n.tag != "" {
		return n.tag
	}
	var b strings.Builder
	if n.open {
		b.WriteString("*")
	}
	display := n.inputForDisplay
	if display == "" {
		display = n.input
	}
	b.WriteString("<" + n.target + "> " + display + " => ")
	if n.open {
		b.WriteString("...")
	} else {
		b.WriteString(n.output)
	}
	return b.String()
}

// Children returns the ordered child IDs (expansion order).
func (n *Node) Children() []NodeID {
	return append([]NodeID(nil), n.children...)
}

func (n *Node) clone() *Node {
	c := *n
	c.data = n.data.Clone()
	if c.data == nil {
		c.data = Data{}
	}
	c.children = append([]NodeID(nil), n.children...)
	if n.prompts != nil {
		c.prompts = make([]PromptTrace, len(n.prompts))
		for i, p := range n.prompts {
			c.prompts[i] = PromptTrace{Input: p.Input, Outputs: append([]string(nil), p.Outputs...)}
		}
	}
	return &c
}
