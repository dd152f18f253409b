// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack(t *testing.T) {
	var stack StackT[int]
	assert.True(t, stack.Empty())
	stack.Push(1)
	stack.Push(2)
	stack.Push(3)
	assert.Equal(t, 3, stack.Len())
	assert.Equal(t, 3, stack.Top())
	assert.Equal(t, 1, stack.Ref(0))

	found, ok := stack.Find(func(n int) bool { return n < 3 })
	assert.True(t, ok)
	assert.Equal(t, 2, found)

	assert.Equal(t, 3, stack.Pop())
	stack.Push(4)
	assert.Equal(t, 4, stack.Top())
	assert.Equal(t, 3, stack.Len())

	_, ok = stack.Find(func(n int) bool { return 10 < n })
	assert.False(t, ok)
	assert.Panics(t, func() { stack.Ref(5) })
}

func TestSet(t *testing.T) {
	set := NewSet("fn", "let")
	assert.True(t, set.Contains("fn"))
	assert.False(t, set.Contains("mut"))
	set.Add("mut")
	set.Remove("fn")
	assert.Equal(t, "let, mut", SortedString(set))

	other := NewSet("mut", "while")
	assert.Equal(t, "let, mut, while", SortedString(set.Union(other)))
	assert.Equal(t, "mut", SortedString(set.Intersection(other)))
}

func TestStronglyConnectedComponents(t *testing.T) {
	graph := map[int][]int{0: {1}, 1: {2, 4}, 2: {3, 4}, 3: {1, 2}, 4: {5}, 5: {}, 6: {6}}
	edges := func(i int) []int { return graph[i] }
	scc := StronglyConnectedComponents([]int{5, 4, 3, 2, 1, 0, 6}, edges)

	index := map[int]int{}
	for i, component := range scc {
		for _, node := range component {
			index[node] = i
		}
	}
	assert.Equal(t, index[1], index[2])
	assert.Equal(t, index[2], index[3])
	assert.Less(t, index[0], index[1])
	assert.Less(t, index[1], index[4])
	assert.Less(t, index[4], index[5])

	assert.True(t, IsCycle(scc[index[1]], edges))
	assert.True(t, IsCycle(scc[index[6]], edges))
	assert.False(t, IsCycle(scc[index[5]], edges))
}

func TestPriorityQueue(t *testing.T) {
	type item struct {
		key  int
		name string
	}
	pq := MakePriorityQueue(func(x, y item) bool { return x.key < y.key })
	pq.Enqueue(item{3, "c"})
	pq.Enqueue(item{1, "a"})
	pq.Enqueue(item{2, "b1"})
	pq.Enqueue(item{2, "b2"})
	names := []string{}
	for _, it := range pq.Drain() {
		names = append(names, it.name)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, names)
	assert.True(t, pq.Empty())
}

func TestSExpRoundTrip(t *testing.T) {
	sexp := List(Sym("LET_DECL"), Sym("mut"), Sym("y"), List(Sym("NUM_LIT"), Int(7)), Str("a \"b\""))
	text := sexp.String()
	assert.Equal(t, `(LET_DECL mut y (NUM_LIT 7) "a \"b\"")`, text)

	parsed, err := ParseSExp(text)
	require.NoError(t, err)
	assert.Equal(t, sexp, parsed)
	assert.Equal(t, "LET_DECL", parsed.Head())
}

func TestSExpTuple(t *testing.T) {
	sexp := List(Sym("STMT"), List(Sym("BREAK")), Int(3))
	assert.Equal(t, "('STMT', ('BREAK',), 3)", sexp.TupleString())
}

func TestSExpPretty(t *testing.T) {
	sexp, err := ParseSExp("(FN main (BLOCK (LET x (NUM 5)) (WHILE (LT x y) (BLOCK))))")
	require.NoError(t, err)
	var out strings.Builder
	require.NoError(t, sexp.Pretty(&out, 2))
	assert.Equal(t, `(FN main
  (BLOCK
    (LET x (NUM 5))
    (WHILE (LT x y) (BLOCK))))
`, out.String())
}

func TestSExpErrors(t *testing.T) {
	for _, input := range []string{"", ")", "(a (b)", `("abc`} {
		_, err := ParseSExp(input)
		assert.Error(t, err, "input %q", input)
	}
}
