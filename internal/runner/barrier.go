package runner

import "sync"

// Barrier blocks every participant until the last of n participants arrives,
// then releases them all at once. It resets after each release.
type Barrier struct {
	n       int
	mu      sync.Mutex
	arrived int
	release chan struct{}
}

func NewBarrier(n int) *Barrier {
	if n < 1 {
		n = 1
	}
	return &Barrier{n: n, release: make(chan struct{})}
}

// Wait blocks until n goroutines have called Wait.
func (b *Barrier) Wait() {
	b.mu.Lock()
	ch := b.release
	b.arrived++
	if b.arrived == b.n {
		close(ch)
		b.arrived = 0
		b.release = make(chan struct{})
	}
	b.mu.Unlock()
	<-ch
}

// Size returns the number of participants.
func (b *Barrier) Size() int {
	return b.n
}
