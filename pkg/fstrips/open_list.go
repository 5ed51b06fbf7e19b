// Priority open list with lazy deletion. Superseded entries are marked
// stale and skipped when popped, instead of being repaired in place;
// re-opening a state therefore costs one push plus one deferred pop.
package fstrips

import (
	"container/heap"
)

// nodeOrder reports whether a takes priority over b.
type nodeOrder func(a, b *Node) bool

type nodeHeap struct {
	items []*Node
	less  nodeOrder
}

func (h *nodeHeap) Len() int { return len(h.items) }

func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if h.less(a, b) {
		return true
	}
	if h.less(b, a) {
		return false
	}
	// Equal priorities pop in insertion order.
	return a.seq < b.seq
}

func (h *nodeHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].heapIndex = i
	h.items[j].heapIndex = j
}

func (h *nodeHeap) Push(x interface{}) {
	n := x.(*Node)
	n.heapIndex = len(h.items)
	h.items = append(h.items, n)
}

func (h *nodeHeap) Pop() interface{} {
	old := h.items
	n := old[len(old)-1]
	old[len(old)-1] = nil
	h.items = old[:len(old)-1]
	n.heapIndex = -1
	return n
}

// OpenList is the driver's priority queue.
type OpenList struct {
	h    nodeHeap
	live int
	seq  uint64
}

// NewOpenList builds an empty queue under the given order.
func NewOpenList(less nodeOrder) *OpenList {
	return &OpenList{h: nodeHeap{less: less}}
}

// Push enqueues a node.
func (ol *OpenList) Push(n *Node) {
	ol.seq++
	n.seq = ol.seq
	n.stale = false
	heap.Push(&ol.h, n)
	ol.live++
}

// Invalidate marks a queued node stale; Pop discards it later.
func (ol *OpenList) Invalidate(n *Node) {
	if !n.stale && n.heapIndex >= 0 {
		n.stale = true
		ol.live--
	}
}

// Pop removes and returns the minimum live node, or nil when none
// remains.
func (ol *OpenList) Pop() *Node {
	for ol.h.Len() > 0 {
		n := heap.Pop(&ol.h).(*Node)
		if n.stale {
			continue
		}
		ol.live--
		return n
	}
	return nil
}

// Len counts the live nodes.
func (ol *OpenList) Len() int { return ol.live }
