// Package queue serializes writes that touch the same entity.
//
// Each key holds a chain of tickets. Acquire waits for the previous ticket on
// the key to be released, so mutations of one entity settle in the order
// they were issued while different keys proceed independently.
package queue

import (
	"context"
	"sync"
)

// Keyed is a FIFO lock per key. The zero value is ready to use.
type Keyed struct {
	mu    sync.Mutex
	tails map[string]*ticket
}

type ticket struct {
	done chan struct{}
}

// Acquire blocks until every earlier holder of key has released it and
// returns the release func for this holder. Release may be called more
// than once. If ctx ends first the place in
// line is given up and ctx's error is returned; later holders are not
// blocked by the abandoned ticket.
func (q *Keyed) Acquire(ctx context.Context, key string) (func(), error) {
	q.mu.Lock()
	if q.tails == nil {
		q.tails = make(map[string]*ticket)
	}
	prev := q.tails[key]
	mine := &ticket{done: make(chan struct{})}
	q.tails[key] = mine
	q.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(mine.done)
			q.mu.Lock()
			if q.tails[key] == mine {
				delete(q.tails, key)
			}
			q.mu.Unlock()
		})
	}

	if prev == nil {
		return release, nil
	}

	select {
	case <-prev.done:
		return release, nil
	case <-ctx.Done():
		// Hand our slot on once the predecessor finishes
		go func() {
			<-prev.done
			release()
		}()
		return nil, ctx.Err()
	}
}

// Len reports how many keys currently have a holder or waiters
func (q *Keyed) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tails)
}
