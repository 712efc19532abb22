// Package cache holds classified verdicts keyed by feature fingerprint so
// identical inputs never pay for a second model call.
package cache

import (
	"sync"

	"github.com/copperline/dealwatch/internal/risk"
)

// Memory is an in-process risk.Cache. No eviction and no size bound:
// entries live for the process lifetime.
type Memory struct {
	mu sync.RWMutex
	m  map[string]risk.Verdict
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]risk.Verdict)}
}

func (c *Memory) Get(fingerprint string) (risk.Verdict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[fingerprint]
	return v, ok
}

func (c *Memory) Put(fingerprint string, v risk.Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[fingerprint] = v
}

// Len reports the number of cached verdicts, for status reporting.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
