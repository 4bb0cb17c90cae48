package marketdata

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// BatchQuotes fetches quotes for a batch of symbols with at most
// concurrency requests in flight. Symbols that error, time out, or have
// no usable price are omitted from the result; omissions are independent
// per symbol and never retried within the batch.
func (c *Client) BatchQuotes(symbols []string, concurrency int) map[string]Quote {
	if concurrency < 1 {
		concurrency = 1
	}

	out := make(map[string]Quote, len(symbols))
	var mu sync.Mutex

	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			q, err := c.Quote(sym)
			if err != nil {
				if !errors.Is(err, ErrNoQuote) {
					c.logger.Debug("quote unavailable", zap.String("symbol", sym), zap.Error(err))
				}
				return
			}

			mu.Lock()
			out[sym] = q
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return out
}
