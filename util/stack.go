// Copyright 2024 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Simple stack, used for lexical scopes and loop nesting.

package util

type StackT[T any] struct {
	count int
	elts  []T
}

func (stack *StackT[T]) Len() int {
	return stack.count
}

func (stack *StackT[T]) Empty() bool {
	return stack.count == 0
}

// Ref(0) is the bottom of the stack.
func (stack *StackT[T]) Ref(i int) T {
	if stack.count <= i {
		panic("indexing past the end of stack")
	}
	return stack.elts[i]
}

func (stack *StackT[T]) Push(elt T) {
	if stack.count < len(stack.elts) {
		stack.elts[stack.count] = elt
	} else {
		stack.elts = append(stack.elts, elt)
	}
	stack.count += 1
}

func (stack *StackT[T]) Pop() T {
	if stack.count == 0 {
		panic("popping from empty stack")
	}
	stack.count -= 1
	elt := stack.elts[stack.count]
	var zero T
	stack.elts[stack.count] = zero
	return elt
}

func (stack *StackT[T]) Top() T {
	if stack.count == 0 {
		panic("top from empty stack")
	}
	return stack.elts[stack.count-1]
}

// Searches from the top down and returns the first element for which
// 'match' is true.

func (stack *StackT[T]) Find(match func(T) bool) (T, bool) {
	for i := stack.count - 1; 0 <= i; i-- {
		if match(stack.elts[i]) {
			return stack.elts[i], true
		}
	}
	var zero T
	return zero, false
}
