package domain

import (
	"fmt"
	"iter"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Tree is one candidate reasoning trace: an arena of nodes plus the score and counters
// accumulated while building it.
//
// A Tree is never shared across dispatch boundaries. Handlers Clone the tree they receive
// and mutate only the copy.
type Tree struct {
	nodes     []*Node
	root      NodeID
	score     float64
	counters  Counters
	task      *Task
	createdAt time.Time
}

// NewTree creates an empty tree bound to task. The zero Tree is also a valid empty tree
// with no task.
func NewTree(task *Task) *Tree {
	return &Tree{
		root:      NoParent,
		counters:  Counters{},
		task:      task,
		createdAt: time.Now(),
	}
}

// Task returns the payload this tree is solving. It is shared by every clone.
func (t *Tree) Task() *Task { return t.task }

// CreatedAt is carried unchanged through clones.
func (t *Tree) CreatedAt() time.Time { return t.createdAt }

// Score orders trees in the frontier; lower is explored first.
func (t *Tree) Score() float64 { return t.score }

// UpdateScore adds delta to the score.
func (t *Tree) UpdateScore(delta float64) { t.score += delta }

// Counters returns a copy of the accumulated counters.
func (t *Tree) Counters() Counters { return t.counters.Clone() }

// Counter returns the current value of a single key.
func (t *Tree) Counter(key CounterKey) float64 { return t.counters[key] }

// CounterSum aggregates metric across all providers and models.
func (t *Tree) CounterSum(metric string) float64 { return t.counters.Sum(metric) }

// UpdateCounter adds delta to key.
func (t *Tree) UpdateCounter(key CounterKey, delta float64) {
	if t.counters == nil {
		t.counters = Counters{}
	}
	t.counters.Add(key, delta)
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the root node ID; ok is false for an empty tree.
func (t *Tree) Root() (NodeID, bool) {
	if t.root == NoParent || len(t.nodes) == 0 {
		return NoParent, false
	}
	return t.root, true
}

// Node looks up a node by ID.
func (t *Tree) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil, &NodeError{Op: "lookup", Node: id, Err: ErrNodeNotFound}
	}
	return t.nodes[id], nil
}

// AddChild inserts a new open node as the last child of parent, or as the root when parent
// is NoParent and the tree is empty.
func (t *Tree) AddChild(parent NodeID, step Step) (NodeID, error) {
	id := NodeID(len(t.nodes))
	if parent == NoParent {
		if len(t.nodes) != 0 {
			return NoParent, &NodeError{Op: "add root", Node: parent, Err: ErrInvalidParent}
		}
		t.nodes = append(t.nodes, newNode(id, NoParent, 0, step))
		t.root = id
		return id, nil
	}
	if parent < 0 || int(parent) >= len(t.nodes) {
		return NoParent, &NodeError{Op: "add child", Node: parent, Err: ErrInvalidParent}
	}
	p := t.nodes[parent]
	t.nodes = append(t.nodes, newNode(id, parent, p.depth+1, step))
	p.children = append(p.children, id)
	return id, nil
}

// Children returns the ordered child IDs of id.
func (t *Tree) Children(id NodeID) ([]NodeID, error) {
	n, err := t.Node(id)
	if err != nil {
		return nil, err
	}
	return n.Children(), nil
}

// Close resolves an open node with output.
func (t *Tree) Close(id NodeID, output string) error {
	n, err := t.Node(id)
	if err != nil {
		return err
	}
	if !n.open {
		return &NodeError{Op: "close", Node: id, Err: ErrAlreadyClosed}
	}
	n.open = false
	n.output = output
	return nil
}

// OpenNode returns the first open node of a left-to-right postorder walk.
// It is recomputed on every call.
func (t *Tree) OpenNode() (NodeID, bool) {
	for id := range t.Postorder() {
		if t.nodes[id].open {
			return id, true
		}
	}
	return NoParent, false
}

// Resolved reports whether no node is open.
func (t *Tree) Resolved() bool {
	_, ok := t.OpenNode()
	return !ok
}

// Depth is the depth of the deepest node; the root is at depth 0.
func (t *Tree) Depth() int {
	depth := 0
	for _, n := range t.nodes {
		if n.depth > depth {
			depth = n.depth
		}
	}
	return depth
}

type frame struct {
	id   NodeID
	next int
}

// Postorder yields node IDs with children left to right before their parent.
func (t *Tree) Postorder() iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		if t.root == NoParent || len(t.nodes) == 0 {
			return
		}
		stack := []frame{{id: t.root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := t.nodes[top.id].children
			if top.next < len(children) {
				child := children[top.next]
				top.next++
				stack = append(stack, frame{id: child})
				continue
			}
			stack = stack[:len(stack)-1]
			if !yield(top.id) {
				return
			}
		}
	}
}

// Preorder yields node IDs with each parent before its children, left to right.
func (t *Tree) Preorder() iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		if t.root == NoParent || len(t.nodes) == 0 {
			return
		}
		stack := []NodeID{t.root}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(id) {
				return
			}
			children := t.nodes[id].children
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
}

// NthPreorder returns the n-th node of a preorder walk. Negative n counts from the end,
// so -1 is the last node visited.
func (t *Tree) NthPreorder(n int) (NodeID, bool) {
	ids := make([]NodeID, 0, len(t.nodes))
	for id := range t.Preorder() {
		ids = append(ids, id)
	}
	if n < 0 {
		n += len(ids)
	}
	if n < 0 || n >= len(ids) {
		return NoParent, false
	}
	return ids[n], true
}

// Clone returns a deep copy sharing only the Task.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes:     make([]*Node, len(t.nodes)),
		root:      t.root,
		score:     t.score,
		counters:  t.counters.Clone(),
		task:      t.task,
		createdAt: t.createdAt,
	}
	for i, n := range t.nodes {
		c.nodes[i] = n.clone()
	}
	return c
}

// Aliases reports whether t and other share any node storage.
// A correct handler never returns a successor that aliases its input.
func (t *Tree) Aliases(other *Tree) bool {
	if t == other {
		return true
	}
	if len(t.nodes) == 0 || len(other.nodes) == 0 {
		return false
	}
	seen := make(map[*Node]struct{}, len(t.nodes))
	for _, n := range t.nodes {
		seen[n] = struct{}{}
	}
	for _, n := range other.nodes {
		if _, ok := seen[n]; ok {
			return true
		}
	}
	return false
}

type nodeJSON struct {
	ID              NodeID        `json:"id"`
	Parent          NodeID        `json:"parent"`
	Input           string        `json:"input"`
	InputForDisplay string        `json:"input_for_display,omitempty"`
	Target          string        `json:"target"`
	Open            bool          `json:"open"`
	Output          *string       `json:"output,omitempty"`
	Tag             string        `json:"tag,omitempty"`
	Data            Data          `json:"data,omitempty"`
	Prompts         []PromptTrace `json:"prompts,omitempty"`
	Children        []NodeID      `json:"children,omitempty"`
}

type treeJSON struct {
	Root      NodeID     `json:"root"`
	Score     float64    `json:"score"`
	Counters  Counters   `json:"counters"`
	CreatedAt time.Time  `json:"created_at"`
	Nodes     []nodeJSON `json:"nodes"`
}

// MarshalJSON encodes the full arena. The Task is not included.
func (t *Tree) MarshalJSON() ([]byte, error) {
	out := treeJSON{
		Root:      t.root,
		Score:     t.score,
		Counters:  t.counters,
		CreatedAt: t.createdAt,
		Nodes:     make([]nodeJSON, len(t.nodes)),
	}
	if out.Counters == nil {
		out.Counters = Counters{}
	}
	for i, n := range t.nodes {
		nj := nodeJSON{
			ID:              n.id,
			Parent:          n.parent,
			Input:           n.input,
			InputForDisplay: n.inputForDisplay,
			Target:          n.target,
			Open:            n.open,
			Tag:             n.tag,
			Data:            n.data,
			Prompts:         n.prompts,
			Children:        n.children,
		}
		if !n.open {
			output := n.output
			nj.Output = &output
		}
		out.Nodes[i] = nj
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the arena and checks that it is consistent.
// The decoded tree has no Task until one is attached with WithTask.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var in treeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	nodes := make([]*Node, len(in.Nodes))
	for i, nj := range in.Nodes {
		if nj.ID != NodeID(i) {
			return fmt.Errorf("decode tree: node at index %d has id %d", i, nj.ID)
		}
		n := &Node{
			id:              nj.ID,
			parent:          nj.Parent,
			input:           nj.Input,
			inputForDisplay: nj.InputForDisplay,
			target:          nj.Target,
			open:            nj.Open,
			tag:             nj.Tag,
			data:            nj.Data,
			prompts:         nj.Prompts,
			children:        nj.Children,
		}
		if n.data == nil {
			n.data = Data{}
		}
		if nj.Output != nil {
			n.output = *nj.Output
		}
		nodes[i] = n
	}
	for _, n := range nodes {
		for _, c := range n.children {
			if c < 0 || int(c) >= len(nodes) || nodes[c].parent != n.id {
				return &NodeError{Op: "decode", Node: n.id, Err: ErrInvalidParent}
			}
		}
	}
	if len(nodes) > 0 && (in.Root < 0 || int(in.Root) >= len(nodes)) {
		return &NodeError{Op: "decode", Node: in.Root, Err: ErrNodeNotFound}
	}
	if len(nodes) > 0 && nodes[in.Root].parent != NoParent {
		return &NodeError{Op: "decode", Node: in.Root, Err: ErrInvalidParent}
	}
	if len(nodes) == 0 {
		in.Root = NoParent
	}

	t.nodes = nodes
	t.root = in.Root
	t.score = in.Score
	t.counters = in.Counters
	if t.counters == nil {
		t.counters = Counters{}
	}
	t.createdAt = in.CreatedAt
	if t.root != NoParent {
		for id := range t.Preorder() {
			n := t.nodes[id]
			if n.parent != NoParent {
				n.depth = t.nodes[n.parent].depth + 1
			}
		}
	}
	return nil
}

// WithTask attaches a task to a decoded tree and returns it.
func (t *Tree) WithTask(task *Task) *Tree {
	t.task = task
	return t
}
