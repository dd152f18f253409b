// Copyright 2025 Richard Kelsey. All rights reserved.
// See file LICENSE for notices and license.

// Based on the example in container/heap.

package util

import (
	"container/heap"
)

// Wrapper type to hide the sort and heap interface methods.
// Dequeue returns the element that is least according to 'less';
// elements that compare equal come out in the order they went in.

type PriorityQueueT[T any] struct {
	queue priorityQueueT[T]
}

func MakePriorityQueue[T any](less func(x T, y T) bool) *PriorityQueueT[T] {
	return &PriorityQueueT[T]{priorityQueueT[T]{less: less}}
}

func (pq *PriorityQueueT[T]) Len() int {
	return len(pq.queue.queue)
}

func (pq *PriorityQueueT[T]) Empty() bool {
	return len(pq.queue.queue) == 0
}

func (pq *PriorityQueueT[T]) Enqueue(x T) {
	heap.Push(&pq.queue, entryT[T]{x, pq.queue.count})
	pq.queue.count += 1
}

func (pq *PriorityQueueT[T]) Dequeue() T {
	return heap.Pop(&pq.queue).(entryT[T]).value
}

// Empties the queue, returning everything in order.
func (pq *PriorityQueueT[T]) Drain() []T {
	result := make([]T, 0, pq.Len())
	for !pq.Empty() {
		result = append(result, pq.Dequeue())
	}
	return result
}

// The actual priority queue.

type entryT[T any] struct {
	value T
	order int
}

type priorityQueueT[T any] struct {
	queue []entryT[T]
	less  func(x T, y T) bool
	count int
}

func (pq priorityQueueT[T]) Len() int { return len(pq.queue) }

func (pq priorityQueueT[T]) Less(i, j int) bool {
	x, y := pq.queue[i], pq.queue[j]
	if pq.less(x.value, y.value) {
		return true
	}
	if pq.less(y.value, x.value) {
		return false
	}
	return x.order < y.order
}

func (pq priorityQueueT[T]) Swap(i, j int) {
	pq.queue[i], pq.queue[j] = pq.queue[j], pq.queue[i]
}

func (pq *priorityQueueT[T]) Push(x any) {
	pq.queue = append(pq.queue, x.(entryT[T]))
}

func (pq *priorityQueueT[T]) Pop() any {
	queue := pq.queue
	newLength := len(queue) - 1
	item := queue[newLength]
	queue[newLength] = entryT[T]{}
	pq.queue = queue[0:newLength]
	return item
}
