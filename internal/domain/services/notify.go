package services

import "sync"

// Invalidator is told when data feeding a book's derived views has changed.
type Invalidator interface {
	Invalidate(bookID string)
}

type notifier struct {
	mu   sync.RWMutex
	subs []Invalidator
}

// OnChange registers inv to be notified after every committed mutation.
func (n *notifier) OnChange(inv Invalidator) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, inv)
}

func (n *notifier) notify(bookID string) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, inv := range n.subs {
		inv.Invalidate(bookID)
	}
}

// keyedMutex serializes work per key. Entries are dropped once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
