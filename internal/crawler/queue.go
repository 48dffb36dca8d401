package crawler

// frontier is the BFS work queue: FIFO, insertion order is discovery order.
//
// Design decision: Membership is tracked alongside the slice so a URL that
// is already waiting is never enqueued a second time. Suppressing
// duplicates at enqueue (in addition to the authoritative visited-set check
// at dequeue) bounds queue growth on link-dense sites, where the same
// navigation bar would otherwise be queued once per page that carries it.
type frontier struct {
	items  []string
	member map[string]bool
}

func newFrontier() *frontier {
	return &frontier{member: make(map[string]bool)}
}

// push appends a URL unless it is already waiting.
func (f *frontier) push(url string) {
	if f.member[url] {
		return
	}
	f.member[url] = true
	f.items = append(f.items, url)
}

// pop removes and returns the head of the queue. Call only when len() > 0.
func (f *frontier) pop() string {
	url := f.items[0]
	f.items = f.items[1:]
	delete(f.member, url)
	return url
}

// contains reports whether the URL is waiting in the queue.
func (f *frontier) contains(url string) bool {
	return f.member[url]
}

func (f *frontier) len() int {
	return len(f.items)
}
