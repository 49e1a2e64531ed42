package app

import "sync"

// Notices queues blocking user-visible messages raised by background
// capture failures. The UI drains one at a time and holds input until
// it is dismissed.
type Notices struct {
	mu    sync.Mutex
	queue []string
}

// NewNotices creates an empty queue.
func NewNotices() *Notices {
	return &Notices{}
}

// Push appends a notice.
func (n *Notices) Push(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue = append(n.queue, msg)
}

// Pop removes and returns the oldest notice.
func (n *Notices) Pop() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.queue) == 0 {
		return "", false
	}
	msg := n.queue[0]
	n.queue = n.queue[1:]
	return msg, true
}

// Len reports the number of queued notices.
func (n *Notices) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}
