// Package state holds the observable values the state machines publish.
package state

import "sync"

// Store holds the latest value of type T and fans it out to subscribers.
// Subscribers are called synchronously, in publish order, without the lock.
type Store[T any] struct {
	mu          sync.RWMutex
	value       T
	subscribers map[int]func(T)
	nextId      int
	// serializes delivery so subscribers observe values in order
	deliver sync.Mutex
}

func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, subscribers: make(map[int]func(T))}
}

func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *Store[T]) Set(v T) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	s.value = v
	subs := make([]func(T), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Subscribe returns a cancel func. The current value is not replayed.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	id := s.nextId
	s.nextId++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Status of a one-shot operation such as a delete or a post.
type Status string

const (
	Idle    Status = "idle"
	Loading Status = "loading"
	Success Status = "success"
	Error   Status = "error"
)

// Op is the state of a side operation. Message is set only on Error.
type Op struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

func OpIdle() Op                { return Op{Status: Idle} }
func OpLoading() Op             { return Op{Status: Loading} }
func OpSuccess() Op             { return Op{Status: Success} }
func OpError(message string) Op { return Op{Status: Error, Message: message} }
