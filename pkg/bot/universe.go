package bot

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// SymbolCatalogue is the market-data side of universe construction.
type SymbolCatalogue interface {
	SymbolCatalogue() ([]string, error)
}

// TradableAssets is the broker side of universe construction.
type TradableAssets interface {
	TradableSymbols() (map[string]struct{}, error)
}

// UniverseBuilder produces the set of scannable symbols: the provider
// symbol list (or a local file) intersected with the broker's tradable
// assets. Built once at startup; errors here are fatal.
type UniverseBuilder struct {
	config Config
	market SymbolCatalogue
	broker TradableAssets
	logger *zap.Logger
}

func NewUniverseBuilder(config Config, market SymbolCatalogue, broker TradableAssets, logger *zap.Logger) *UniverseBuilder {
	return &UniverseBuilder{
		config: config,
		market: market,
		broker: broker,
		logger: logger,
	}
}

func (b *UniverseBuilder) Build() ([]string, error) {
	var candidates []string
	var err error

	switch b.config.UniverseMode {
	case UniverseModeFile:
		candidates, err = readSymbolFile(b.config.UniverseFile)
	default:
		candidates, err = b.market.SymbolCatalogue()
	}
	if err != nil {
		return nil, fmt.Errorf("universe candidates: %w", err)
	}

	tradable, err := b.broker.TradableSymbols()
	if err != nil {
		return nil, fmt.Errorf("tradable assets: %w", err)
	}

	universe := make([]string, 0, len(candidates))
	for _, sym := range candidates {
		if _, ok := tradable[sym]; ok {
			universe = append(universe, sym)
		}
	}
	sort.Strings(universe)

	b.logger.Info("universe built",
		zap.String("mode", b.config.UniverseMode),
		zap.Int("candidates", len(candidates)),
		zap.Int("tradable", len(tradable)),
		zap.Int("scannable", len(universe)))
	return universe, nil
}

// readSymbolFile reads one ticker per line, skipping blanks and #
// comments, uppercasing as it goes.
func readSymbolFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[string]bool)
	var symbols []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sym := strings.ToUpper(line)
		if !seen[sym] {
			seen[sym] = true
			symbols = append(symbols, sym)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return symbols, nil
}

// BatchCursor slices the universe into fixed-size batches and cycles
// through them indefinitely.
type BatchCursor struct {
	batches [][]string
	next    int
}

func NewBatchCursor(symbols []string, size int) *BatchCursor {
	if size < 1 {
		size = len(symbols)
	}
	var batches [][]string
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		batches = append(batches, symbols[start:end])
	}
	return &BatchCursor{batches: batches}
}

// Next returns the next batch, wrapping around after the last one. An
// empty universe yields nil forever.
func (c *BatchCursor) Next() []string {
	if len(c.batches) == 0 {
		return nil
	}
	batch := c.batches[c.next]
	c.next = (c.next + 1) % len(c.batches)
	return batch
}
