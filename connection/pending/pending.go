/*
Package pending tracks requests that have been sent over a connection and are still
waiting for their reply. Each tracked request owns a completion channel which receives
exactly one Result: the reply, a local cancellation, or the failure that tore the
connection down.
*/
package pending

import (
	"encoding/json"
	"sync"
)

type Result struct {
	Value json.RawMessage
	Err   error
}

type Tracker struct {
	// Map of sent requests awaiting a reply, keyed by request id
	waiting     map[uint64]chan Result
	waitingLock sync.Mutex

	// Counter for generating request ids
	counter uint64
}

func NewTracker() *Tracker {
	return &Tracker{
		waiting: make(map[uint64]chan Result),
		counter: 1,
	}
}

// Track reserves a new request id and returns the channel its Result will be
// delivered on. Ids are unique per tracker and never reused.
func (t *Tracker) Track() (uint64, <-chan Result) {
	t.waitingLock.Lock()
	defer t.waitingLock.Unlock()

	id := t.counter
	t.counter++

	// buffered so that completing an entry never blocks on the waiter
	completion := make(chan Result, 1)
	t.waiting[id] = completion

	return id, completion
}

// Resolve completes the request with the given id. It returns false if the id is
// unknown, which includes ids that were already resolved, forgotten or failed.
func (t *Tracker) Resolve(id uint64, result Result) bool {
	t.waitingLock.Lock()
	defer t.waitingLock.Unlock()

	completion, ok := t.waiting[id]
	if !ok {
		return false
	}

	delete(t.waiting, id)
	completion <- result
	return true
}

// Forget drops a request without completing it
func (t *Tracker) Forget(id uint64) {
	t.waitingLock.Lock()
	defer t.waitingLock.Unlock()

	delete(t.waiting, id)
}

// FailAll completes every outstanding request with err and returns how many there were
func (t *Tracker) FailAll(err error) int {
	t.waitingLock.Lock()
	defer t.waitingLock.Unlock()

	failed := len(t.waiting)
	for id, completion := range t.waiting {
		completion <- Result{Err: err}
		delete(t.waiting, id)
	}

	return failed
}

func (t *Tracker) Len() int {
	t.waitingLock.Lock()
	defer t.waitingLock.Unlock()

	return len(t.waiting)
}

func (t *Tracker) IsEmpty() bool {
	return t.Len() == 0
}
