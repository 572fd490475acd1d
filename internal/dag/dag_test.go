package dag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKernelGraph(t *testing.T) {
	nodes := []Node{
		{ID: "income"},
		{ID: "expenses", DependsOn: []string{"income"}},
		{ID: "liabilities", DependsOn: []string{"expenses"}},
		{ID: "asset_valuation"},
		{ID: "auto_liquidation", DependsOn: []string{"expenses", "liabilities"}},
		{ID: "taxation", DependsOn: []string{"income", "auto_liquidation"}},
		{ID: "credit_score", DependsOn: []string{"liabilities", "auto_liquidation", "taxation"}},
		{ID: "behavioral", DependsOn: []string{"credit_score"}},
	}

	order, err := Resolve(nodes)
	require.NoError(t, err)
	require.Len(t, order, len(nodes))

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, n := range nodes {
		for _, dep := range n.DependsOn {
			assert.Less(t, pos[dep], pos[n.ID], "%s must come before %s", dep, n.ID)
		}
	}
}

func TestResolveIsDeterministicAcrossCalls(t *testing.T) {
	nodes := []Node{
		{ID: "income"},
		{ID: "expenses", DependsOn: []string{"income"}},
		{ID: "liabilities", DependsOn: []string{"expenses"}},
		{ID: "asset_valuation"},
		{ID: "auto_liquidation", DependsOn: []string{"expenses", "liabilities"}},
		{ID: "taxation", DependsOn: []string{"income", "auto_liquidation"}},
		{ID: "credit_score", DependsOn: []string{"liabilities", "auto_liquidation", "taxation"}},
		{ID: "behavioral", DependsOn: []string{"credit_score"}},
	}

	first, err := Resolve(nodes)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Resolve(nodes)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolveLexicographicTieBreak(t *testing.T) {
	// Three independent nodes with no dependencies must come out sorted.
	nodes := []Node{{ID: "zeta"}, {ID: "alpha"}, {ID: "mu"}}
	order, err := Resolve(nodes)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mu", "zeta"}, order)
}

func TestResolveUnknownDependency(t *testing.T) {
	nodes := []Node{{ID: "a", DependsOn: []string{"ghost"}}}
	_, err := Resolve(nodes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDependency))
}

func TestResolveCycle(t *testing.T) {
	nodes := []Node{
		{ID: "a", DependsOn: []string{"b"}},
		{ID: "b", DependsOn: []string{"a"}},
	}
	_, err := Resolve(nodes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycle))
}
