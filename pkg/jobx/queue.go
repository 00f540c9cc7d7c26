package jobx

import "container/heap"

// JobQueue holds pending jobs ordered by priority, highest first.
// Jobs of equal priority leave in the order they were enqueued.
//
// JobQueue is not safe for concurrent use; the Scheduler guards it.
type JobQueue struct {
	items jobHeap
	index map[string]*queueItem
	seq   uint64
}

type queueItem struct {
	job *Job
	seq uint64
	pos int
}

// NewJobQueue returns an empty queue.
func NewJobQueue() *JobQueue {
	return &JobQueue{index: make(map[string]*queueItem)}
}

// Enqueue adds job to the queue.
func (q *JobQueue) Enqueue(job *Job) {
	q.seq++
	it := &queueItem{job: job, seq: q.seq}
	heap.Push(&q.items, it)
	q.index[job.ID] = it
}

// DequeueHighest removes and returns the highest-priority job, or nil.
func (q *JobQueue) DequeueHighest() *Job {
	if len(q.items) == 0 {
		return nil
	}
	it := heap.Pop(&q.items).(*queueItem)
	delete(q.index, it.job.ID)
	return it.job
}

// Peek returns the next job without removing it.
func (q *JobQueue) Peek() *Job {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0].job
}

// Remove drops the job with the given id. It reports whether the job was queued.
func (q *JobQueue) Remove(id string) bool {
	it, ok := q.index[id]
	if !ok {
		return false
	}
	heap.Remove(&q.items, it.pos)
	delete(q.index, id)
	return true
}

// Contains reports whether a job with id is queued.
func (q *JobQueue) Contains(id string) bool {
	_, ok := q.index[id]
	return ok
}

// Len returns the number of queued jobs.
func (q *JobQueue) Len() int { return len(q.items) }

type jobHeap []*queueItem

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].job.Priority != h[j].job.Priority {
		return h[i].job.Priority > h[j].job.Priority
	}
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].pos = i
	h[j].pos = j
}

func (h *jobHeap) Push(x any) {
	it := x.(*queueItem)
	it.pos = len(*h)
	*h = append(*h, it)
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.pos = -1
	*h = old[:n-1]
	return it
}
