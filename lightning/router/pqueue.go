package router

import "container/heap"

// pqItem is one entry in the Dijkstra frontier: node reached, and the
// accumulated path weight to reach it from the destination.
type pqItem struct {
	node NodeID
	cost float64
}

// nodeHeap is a container/heap min-heap over pqItem.cost, the same
// stdlib priority-queue idiom other_examples' block-template assemblers
// use for transaction-fee ranking; no pack go.mod vendors a third-party
// priority queue, so this stays on the standard library.
type nodeHeap []pqItem

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(pqItem)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

type priorityQueue struct {
	h nodeHeap
}

func newPriorityQueue() *priorityQueue {
	pq := &priorityQueue{}
	heap.Init(&pq.h)
	return pq
}

func (pq *priorityQueue) push(node NodeID, cost float64) {
	heap.Push(&pq.h, pqItem{node: node, cost: cost})
}

func (pq *priorityQueue) pop() (NodeID, float64) {
	item := heap.Pop(&pq.h).(pqItem)
	return item.node, item.cost
}

func (pq *priorityQueue) len() int {
	return pq.h.Len()
}
