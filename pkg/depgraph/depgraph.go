// Package depgraph implements a doubly-linked dependency graph over
// opaque "statements" and the variables they produce/consume, grounded
// on original_source/cpp/dep_graph.h's DepNodeObj/DepGraphObj. Nodes
// form a single doubly linked list (Head is the sentinel "input" node);
// a Dict-of-Dicts tracks which node produces and which nodes consume
// each variable. Clear is mandatory before a graph is dropped, since Go
// cannot run C++-style destructors to break the Prev/Next cycle on its
// own (a cycle of live pointers is otherwise perfectly collectible by
// the Go GC, but leaving Stmt/InputVars/OutputVars referenced keeps
// heap objects alive past their last use).
package depgraph

import (
	"fmt"

	"purple_go/pkg/rtcontainer"
	"purple_go/pkg/rtobject"
	"purple_go/pkg/rtvalue"
)

// DepNode is one node of the graph's linked list: the statement it
// represents, the variables it consumes/produces, and its neighbors.
type DepNode struct {
	hdr        rtobject.Header
	Stmt       rtvalue.Any
	InputVars  *rtcontainer.List
	OutputVars *rtcontainer.List
	Prev       *DepNode
	Next       *DepNode
}

func depNodeDeleter(*rtobject.Header) {}

// NewDepNode constructs a node not yet linked into any graph.
func NewDepNode(stmt rtvalue.Any, inputVars, outputVars *rtcontainer.List) *DepNode {
	n := &DepNode{Stmt: stmt.Clone(), InputVars: inputVars, OutputVars: outputVars}
	n.hdr = rtobject.NewHeader(int32(rtvalue.TypeIndexDynamicStart), depNodeDeleter)
	return n
}

// Header implements rtobject.Heaper so a *DepNode can be stored as an
// rtvalue.Any object (e.g. inside a consumers List).
func (n *DepNode) Header() *rtobject.Header { return &n.hdr }

// Clear detaches the node from its neighbors and releases its fields,
// per dep_graph.h's DepNodeObj::Clear.
func (n *DepNode) Clear() {
	n.Stmt.Release()
	n.Stmt = rtvalue.None
	if n.InputVars != nil {
		n.InputVars.Clear()
	}
	if n.OutputVars != nil {
		n.OutputVars.Clear()
	}
	n.Prev = nil
	n.Next = nil
}

// Graph tracks a linked chain of DepNodes plus the producer/consumer
// index over the variables they reference. stmtToInputs/stmtToOutputs
// derive a new node's input/output var lists from its statement.
type Graph struct {
	hdr            rtobject.Header
	stmtToInputs  *rtcontainer.Func
	stmtToOutputs *rtcontainer.Func
	stmtIndex     *rtcontainer.Dict // stmt(Any) -> node, boxed as an object Any
	varToProducer *rtcontainer.Dict // var(Any) -> node, boxed as an object Any

	// varToConsumers is keyed directly by rtvalue.Any rather than routed
	// through Dict, since the value (a Go slice of node pointers) has no
	// Any encoding of its own. This requires every variable Any used as a
	// key to carry a comparable payload (POD scalars or object pointers,
	// never a raw slice/map/func) — true of every var produced by
	// stmtToOutputs in this runtime.
	varToConsumers map[rtvalue.Any][]*DepNode
	Head           *DepNode
}

func graphDeleter(*rtobject.Header) {}

// New constructs a graph whose Head node represents the (stmt=None)
// input boundary producing inputVars; stmtToInputs/stmtToOutputs derive
// a statement's consumed/produced variables when CreateNode is called.
func New(inputVars []rtvalue.Any, stmtToInputs, stmtToOutputs *rtcontainer.Func) (*Graph, error) {
	g := &Graph{
		stmtToInputs:   stmtToInputs,
		stmtToOutputs:  stmtToOutputs,
		stmtIndex:      rtcontainer.NewDict(),
		varToProducer:  rtcontainer.NewDict(),
		varToConsumers: map[rtvalue.Any][]*DepNode{},
	}
	g.hdr = rtobject.NewHeader(int32(rtvalue.TypeIndexDynamicStart+1), graphDeleter)

	head := NewDepNode(rtvalue.None, rtcontainer.NewList(), rtcontainer.NewListFrom(inputVars...))
	g.Head = head
	g.indexNode(head)
	for _, v := range inputVars {
		g.varToProducer.Insert(v, rtvalue.NewObject(head))
		g.varToConsumers[v] = nil
	}
	return g, nil
}

// Header implements rtobject.Heaper.
func (g *Graph) Header() *rtobject.Header { return &g.hdr }

func (g *Graph) indexNode(n *DepNode) {
	g.stmtIndex.Insert(n.Stmt, rtvalue.NewObject(n))
}

// Clear unlinks and clears every node, and empties the producer/
// consumer indices. Mandatory before dropping a Graph: nothing here
// runs automatically on GC.
func (g *Graph) Clear() {
	for n := g.Head; n != nil; {
		next := n.Next
		n.Clear()
		n = next
	}
	g.stmtIndex.Clear()
	g.varToProducer.Clear()
	g.varToConsumers = map[rtvalue.Any][]*DepNode{}
	g.Head = nil
}

func depErr(format string, args ...any) error {
	return rtcontainer.NewError(rtcontainer.KindRuntimeError, fmt.Sprintf(format, args...))
}

// CreateNode builds (but does not link) a node for stmt, deriving its
// input/output vars via stmtToInputs/stmtToOutputs.
func (g *Graph) CreateNode(stmt rtvalue.Any) (*DepNode, error) {
	inputs, _, errCode := g.stmtToInputs.SafeCall(stmt)
	if errCode != 0 {
		return nil, depErr("stmt_to_inputs failed for statement")
	}
	outputs, _, errCode := g.stmtToOutputs.SafeCall(stmt)
	if errCode != 0 {
		return nil, depErr("stmt_to_outputs failed for statement")
	}
	inObj, err := inputs.AsObject()
	if err != nil {
		return nil, depErr("stmt_to_inputs must return a list")
	}
	outObj, err := outputs.AsObject()
	if err != nil {
		return nil, depErr("stmt_to_outputs must return a list")
	}
	inList, ok1 := inObj.(*rtcontainer.List)
	outList, ok2 := outObj.(*rtcontainer.List)
	if !ok1 || !ok2 {
		return nil, depErr("stmt_to_inputs/outputs must return lists")
	}
	return NewDepNode(stmt, inList, outList), nil
}

// GetNodeFromStmt looks up the node representing stmt.
func (g *Graph) GetNodeFromStmt(stmt rtvalue.Any) (*DepNode, error) {
	v, ok := g.stmtIndex.Get(stmt)
	if !ok {
		return nil, depErr("stmt not in graph")
	}
	obj, _ := v.AsObject()
	return obj.(*DepNode), nil
}

func (g *Graph) insert(prev, next, toInsert *DepNode) error {
	if toInsert.Prev != nil || toInsert.Next != nil {
		return depErr("node is already in the graph")
	}
	if _, exists := g.stmtIndex.Get(toInsert.Stmt); exists {
		return depErr("stmt already in the graph")
	}
	g.indexNode(toInsert)
	toInsert.Prev = prev
	toInsert.Next = next
	if prev != nil {
		prev.Next = toInsert
	} else {
		g.Head = toInsert
	}
	if next != nil {
		next.Prev = toInsert
	}

	var stepErr error
	toInsert.OutputVars.Each(func(_ int, v rtvalue.Any) bool {
		if _, exists := g.varToProducer.Get(v); exists {
			stepErr = depErr("variable already has a producer")
			return false
		}
		g.varToProducer.Insert(v, rtvalue.NewObject(toInsert))
		g.varToConsumers[v] = nil
		return true
	})
	if stepErr != nil {
		return stepErr
	}
	toInsert.InputVars.Each(func(_ int, v rtvalue.Any) bool {
		if _, exists := g.varToProducer.Get(v); !exists {
			stepErr = depErr("variable is not produced by any node in the graph")
			return false
		}
		g.varToConsumers[v] = append(g.varToConsumers[v], toInsert)
		return true
	})
	return stepErr
}

// InsertBefore links toInsert immediately before anchor.
func (g *Graph) InsertBefore(anchor, toInsert *DepNode) error {
	if anchor.Prev == nil {
		return depErr("can't insert before the input node")
	}
	return g.insert(anchor.Prev, anchor, toInsert)
}

// InsertAfter links toInsert immediately after anchor.
func (g *Graph) InsertAfter(anchor, toInsert *DepNode) error {
	return g.insert(anchor, anchor.Next, toInsert)
}

// EraseNode unlinks toErase, requiring that none of its output
// variables still have consumers.
func (g *Graph) EraseNode(toErase *DepNode) error {
	if toErase.Prev == nil {
		return depErr("can't erase the input node")
	}
	var outErr error
	toErase.OutputVars.Each(func(_ int, v rtvalue.Any) bool {
		if len(g.varToConsumers[v]) != 0 {
			outErr = depErr("removing a node which produces a variable that still has consumers")
			return false
		}
		g.varToProducer.Erase(v)
		delete(g.varToConsumers, v)
		return true
	})
	if outErr != nil {
		return outErr
	}
	toErase.InputVars.Each(func(_ int, v rtvalue.Any) bool {
		consumers := g.varToConsumers[v]
		idx := -1
		for i, c := range consumers {
			if c == toErase {
				idx = i
				break
			}
		}
		if idx == -1 {
			outErr = depErr("node is not a consumer of the variable")
			return false
		}
		g.varToConsumers[v] = append(consumers[:idx], consumers[idx+1:]...)
		return true
	})
	if outErr != nil {
		return outErr
	}

	g.stmtIndex.Erase(toErase.Stmt)
	if toErase.Prev != nil {
		toErase.Prev.Next = toErase.Next
	}
	if toErase.Next != nil {
		toErase.Next.Prev = toErase.Prev
	}
	toErase.Clear()
	return nil
}

// GetNodeProducers returns the node producing each of node's input
// variables.
func (g *Graph) GetNodeProducers(n *DepNode) ([]*DepNode, error) {
	var out []*DepNode
	var outErr error
	n.InputVars.Each(func(_ int, v rtvalue.Any) bool {
		p, ok := g.varToProducer.Get(v)
		if !ok {
			outErr = depErr("variable is not produced by any node in the graph")
			return false
		}
		obj, _ := p.AsObject()
		out = append(out, obj.(*DepNode))
		return true
	})
	return out, outErr
}

// GetNodeConsumers returns every node consuming one of node's output
// variables.
func (g *Graph) GetNodeConsumers(n *DepNode) ([]*DepNode, error) {
	var out []*DepNode
	var outErr error
	n.OutputVars.Each(func(_ int, v rtvalue.Any) bool {
		consumers, ok := g.varToConsumers[v]
		if !ok {
			outErr = depErr("variable is not consumed by any node in the graph")
			return false
		}
		out = append(out, consumers...)
		return true
	})
	return out, outErr
}

// GetVarProducer finds the node producing var.
func (g *Graph) GetVarProducer(v rtvalue.Any) (*DepNode, error) {
	p, ok := g.varToProducer.Get(v)
	if !ok {
		return nil, depErr("variable is not produced by any node in the graph")
	}
	obj, _ := p.AsObject()
	return obj.(*DepNode), nil
}

// GetVarConsumers finds the nodes consuming var.
func (g *Graph) GetVarConsumers(v rtvalue.Any) ([]*DepNode, error) {
	consumers, ok := g.varToConsumers[v]
	if !ok {
		return nil, depErr("variable is not consumed by any node in the graph")
	}
	return consumers, nil
}
