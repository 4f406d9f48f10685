package app

import (
	"sync"

	"github.com/raaihank/meeting-sentinel/internal/session"
)

// fanout forwards session events to every registered observer.
type fanout struct {
	mu        sync.RWMutex
	observers []session.Observer
}

func (f *fanout) add(o session.Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, o)
}

func (f *fanout) OnEvent(e session.Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, o := range f.observers {
		o.OnEvent(e)
	}
}
