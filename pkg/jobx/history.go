package jobx

import "container/list"

// history keeps terminal job ids in completion order so the oldest can be
// evicted once the limit is reached.
type history struct {
	limit int
	order *list.List
	index map[string]*list.Element
}

func newHistory(limit int) *history {
	return &history{limit: limit, order: list.New(), index: make(map[string]*list.Element)}
}

// add records id and returns the ids evicted to stay within the limit.
func (h *history) add(id string) []string {
	if el, ok := h.index[id]; ok {
		h.order.MoveToBack(el)
		return nil
	}
	h.index[id] = h.order.PushBack(id)

	var evicted []string
	for h.order.Len() > h.limit {
		front := h.order.Front()
		old := front.Value.(string)
		h.order.Remove(front)
		delete(h.index, old)
		evicted = append(evicted, old)
	}
	return evicted
}

func (h *history) remove(id string) {
	if el, ok := h.index[id]; ok {
		h.order.Remove(el)
		delete(h.index, id)
	}
}

func (h *history) len() int { return h.order.Len() }
