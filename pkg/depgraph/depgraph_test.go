package depgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"purple_go/pkg/rtcontainer"
	"purple_go/pkg/rtvalue"
)

// linear builds stmt_to_inputs/stmt_to_outputs functions for a simple
// chain where statement i consumes var i and produces var i+1.
func linear() (*rtcontainer.Func, *rtcontainer.Func) {
	toInputs := rtcontainer.NewFunc(func(args []rtvalue.Any) (rtvalue.Any, error) {
		n, _ := args[0].AsInt()
		return rtvalue.NewObject(rtcontainer.NewListFrom(rtvalue.NewInt(n))), nil
	})
	toOutputs := rtcontainer.NewFunc(func(args []rtvalue.Any) (rtvalue.Any, error) {
		n, _ := args[0].AsInt()
		return rtvalue.NewObject(rtcontainer.NewListFrom(rtvalue.NewInt(n + 1))), nil
	})
	return toInputs, toOutputs
}

func TestGraphInsertAndQuery(t *testing.T) {
	toInputs, toOutputs := linear()
	g, err := New([]rtvalue.Any{rtvalue.NewInt(0)}, toInputs, toOutputs)
	require.NoError(t, err)

	node, err := g.CreateNode(rtvalue.NewInt(0))
	require.NoError(t, err)
	require.NoError(t, g.InsertAfter(g.Head, node))

	producers, err := g.GetNodeProducers(node)
	require.NoError(t, err)
	require.Len(t, producers, 1)
	require.Same(t, g.Head, producers[0])

	consumers, err := g.GetNodeConsumers(g.Head)
	require.NoError(t, err)
	require.Len(t, consumers, 1)
	require.Same(t, node, consumers[0])
}

func TestGraphEraseRequiresNoConsumers(t *testing.T) {
	toInputs, toOutputs := linear()
	g, err := New([]rtvalue.Any{rtvalue.NewInt(0)}, toInputs, toOutputs)
	require.NoError(t, err)

	node, err := g.CreateNode(rtvalue.NewInt(0))
	require.NoError(t, err)
	require.NoError(t, g.InsertAfter(g.Head, node))

	next, err := g.CreateNode(rtvalue.NewInt(1))
	require.NoError(t, err)
	require.NoError(t, g.InsertAfter(node, next))

	require.Error(t, g.EraseNode(node), "erasing a node with a live consumer must fail")
	require.NoError(t, g.EraseNode(next))
	require.NoError(t, g.EraseNode(node))
}

func TestGraphClearDetachesEveryNode(t *testing.T) {
	toInputs, toOutputs := linear()
	g, err := New([]rtvalue.Any{rtvalue.NewInt(0)}, toInputs, toOutputs)
	require.NoError(t, err)

	node, err := g.CreateNode(rtvalue.NewInt(0))
	require.NoError(t, err)
	require.NoError(t, g.InsertAfter(g.Head, node))

	g.Clear()
	require.Nil(t, g.Head)
	require.Nil(t, node.Next)
	require.Nil(t, node.Prev)
}
