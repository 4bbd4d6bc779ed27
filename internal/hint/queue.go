package hint

import "container/heap"

type queueItem struct {
	node     *node
	priority int
	seq      uint64
	index    int
}

// nodeHeap orders by ascending priority, then by insertion order.
type nodeHeap struct {
	items []*queueItem
}

func (h *nodeHeap) Len() int { return len(h.items) }

func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.seq < b.seq
}

func (h *nodeHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *nodeHeap) Push(x any) {
	item := x.(*queueItem)
	item.index = len(h.items)
	h.items = append(h.items, item)
}

func (h *nodeHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	h.items = old[:n-1]
	return item
}

// frontier is the open set of a best-first search.
type frontier struct {
	h   nodeHeap
	seq uint64
}

func newFrontier() *frontier {
	f := &frontier{}
	heap.Init(&f.h)
	return f
}

func (f *frontier) push(n *node, priority int) {
	f.seq++
	heap.Push(&f.h, &queueItem{node: n, priority: priority, seq: f.seq})
}

func (f *frontier) pop() (*node, bool) {
	if f.h.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&f.h).(*queueItem).node, true
}

func (f *frontier) Len() int { return f.h.Len() }
