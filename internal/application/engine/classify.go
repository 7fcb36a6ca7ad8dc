package engine

import (
	"runtime"
	"sync"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/alejandrodnm/polyclaw/internal/ports"
	"github.com/alejandrodnm/polyclaw/internal/strategy"
)

// classifyAll classifies every market with a worker pool. The classifier must
// be safe for concurrent use. Output order matches markets.
func classifyAll(c ports.Classifier, markets []domain.Market, now time.Time, workers int) []strategy.Classified {
	out := make([]strategy.Classified, len(markets))
	if len(markets) == 0 {
		return out
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(markets))

	idx := make(chan int, len(markets))
	for i := range markets {
		idx <- i
	}
	close(idx)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				m := markets[i]
				out[i] = strategy.Classified{Market: m, Class: c.Classify(m.Question, now)}
			}
		}()
	}
	wg.Wait()
	return out
}
