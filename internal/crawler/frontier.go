package crawler

// frontier is the FIFO of discovered URLs plus the set of URLs already
// processed. Membership is checked against visited only: the same URL may sit
// in the queue more than once and is collapsed when dequeued.
type frontier struct {
	queue   []string
	visited map[string]struct{}
}

func newFrontier(start string) *frontier {
	return &frontier{
		queue:   []string{start},
		visited: make(map[string]struct{}),
	}
}

// Pop removes and returns the URL at the front of the queue.
func (f *frontier) Pop() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	next := f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	return next, true
}

// Push appends u unless it has already been visited.
func (f *frontier) Push(u string) bool {
	if f.Visited(u) {
		return false
	}
	f.queue = append(f.queue, u)
	return true
}

// Len reports how many entries, duplicates included, are waiting.
func (f *frontier) Len() int {
	return len(f.queue)
}

func (f *frontier) MarkVisited(u string) {
	f.visited[u] = struct{}{}
}

func (f *frontier) Visited(u string) bool {
	_, ok := f.visited[u]
	return ok
}

// VisitedCount is the number of distinct URLs processed so far.
func (f *frontier) VisitedCount() int {
	return len(f.visited)
}
