package cache

import (
	"sync"

	"github.com/google/btree"

	"trade-bridge/src/gateway"
)

type barItem struct {
	Bar gateway.Bar
}

func (b *barItem) Less(than btree.Item) bool {
	other := than.(*barItem)
	return b.Bar.Timestamp < other.Bar.Timestamp
}

// BarCache holds intraday bars per ticker, ordered by bar timestamp. Bars
// with the same timestamp replace each other, so refreshing a ticker with a
// newer fetch keeps a single copy of each bar.
type BarCache struct {
	trees map[string]*btree.BTree
	mu    sync.RWMutex
}

func NewBarCache() *BarCache {
	return &BarCache{
		trees: make(map[string]*btree.BTree),
	}
}

func (bc *BarCache) Put(ticker string, bars []gateway.Bar) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	tree, exists := bc.trees[ticker]
	if !exists {
		tree = btree.New(32)
		bc.trees[ticker] = tree
	}

	for _, bar := range bars {
		tree.ReplaceOrInsert(&barItem{Bar: bar})
	}
}

// Range returns the lowest low and highest high across all cached bars for
// the ticker. ok is false when no bars are cached.
func (bc *BarCache) Range(ticker string) (low, high float64, ok bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	tree, exists := bc.trees[ticker]
	if !exists || tree.Len() == 0 {
		return 0, 0, false
	}

	first := true
	tree.Ascend(func(item btree.Item) bool {
		bar := item.(*barItem).Bar
		if first {
			low = bar.Low
			high = bar.High
			first = false
			return true
		}
		if bar.Low < low {
			low = bar.Low
		}
		if bar.High > high {
			high = bar.High
		}
		return true
	})

	return low, high, true
}

func (bc *BarCache) Len(ticker string) int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if tree, exists := bc.trees[ticker]; exists {
		return tree.Len()
	}
	return 0
}

// Clear drops all cached bars for the ticker.
func (bc *BarCache) Clear(ticker string) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	delete(bc.trees, ticker)
}
