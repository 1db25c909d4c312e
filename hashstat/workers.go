package hashstat

import "sync"

// chunkCounter hands out [lo,hi) ranges of a job. Each range is claimed by
// exactly one worker.
type chunkCounter struct {
	mu    sync.Mutex
	next  int
	total int
	size  int
	err   error
}

func (c *chunkCounter) claim() (lo, hi int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil || c.next >= c.total {
		return 0, 0, false
	}
	lo = c.next
	hi = min(lo+c.size, c.total)
	c.next = hi
	return lo, hi, true
}

func (c *chunkCounter) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// runChunked runs fn over [0,total) split into chunks of size, using threads
// workers. It returns after every worker has finished, with the first error
// any of them reported. Once an error is reported no further chunks are
// handed out.
func runChunked(threads, total, size int, fn func(worker, lo, hi int) error) error {
	if total == 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}
	threads = max(1, min(threads, (total+size-1)/size))

	c := &chunkCounter{total: total, size: size}
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for {
				lo, hi, ok := c.claim()
				if !ok {
					return
				}
				if err := fn(w, lo, hi); err != nil {
					c.fail(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	return c.err
}
