// Package rotation provides round-robin selectors over fixed lists of
// proxies and user-agent strings. Each Next call is individually atomic,
// but the sequence of picks across concurrent requests is best-effort:
// two overlapping requests may receive the same entry. This mirrors the
// single-counter semantics the rest of the system is written against.
package rotation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
)

// DefaultUserAgent is returned by the user-agent pool when no user-agent
// is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Pool is a round-robin selector over a fixed list of items.
type Pool[T any] struct {
	mu     sync.Mutex
	items  []T
	cursor int
}

// NewPool creates a pool over items. The slice is not copied; callers
// must not mutate it afterwards.
func NewPool[T any](items []T) *Pool[T] {
	return &Pool[T]{items: items}
}

// Next returns the current item and advances the cursor. The second
// return is false when the pool is empty.
func (p *Pool[T]) Next() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	if len(p.items) == 0 {
		return zero, false
	}
	item := p.items[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.items)
	return item, true
}

// Len returns the number of items in the pool.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Items returns a copy of the pool contents in order.
func (p *Pool[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

// portRangeRe matches proxy URLs of the form scheme://host:START-END.
var portRangeRe = regexp.MustCompile(`^([a-z][a-z0-9+.-]*://[^:/]+):(\d+)-(\d+)$`)

// NewProxyPool builds a proxy pool from the configured proxy URL. A
// port-range URL (scheme://host:START-END) expands into one entry per
// port in ascending order; any other non-empty value yields a
// single-entry pool; an empty value yields an empty pool.
func NewProxyPool(proxyURL string) *Pool[string] {
	if proxyURL == "" {
		return NewPool[string](nil)
	}

	m := portRangeRe.FindStringSubmatch(proxyURL)
	if m == nil {
		return NewPool([]string{proxyURL})
	}

	start, err1 := strconv.Atoi(m[2])
	end, err2 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil || start > end {
		return NewPool([]string{proxyURL})
	}

	proxies := make([]string, 0, end-start+1)
	for port := start; port <= end; port++ {
		proxies = append(proxies, fmt.Sprintf("%s:%d", m[1], port))
	}
	return NewPool(proxies)
}

// NewUserAgentPool builds a user-agent pool from the configured value.
// A JSON array of strings yields one entry per non-empty string; any
// other non-empty value is treated as one literal user-agent; an empty
// value yields a pool containing DefaultUserAgent.
func NewUserAgentPool(configured string) *Pool[string] {
	if configured == "" {
		return NewPool([]string{DefaultUserAgent})
	}

	var parsed []any
	if err := json.Unmarshal([]byte(configured), &parsed); err == nil {
		agents := make([]string, 0, len(parsed))
		for _, v := range parsed {
			if s, ok := v.(string); ok && s != "" {
				agents = append(agents, s)
			}
		}
		if len(agents) > 0 {
			return NewPool(agents)
		}
		return NewPool([]string{DefaultUserAgent})
	}

	return NewPool([]string{configured})
}

// NextUserAgent returns the next user-agent, falling back to the
// built-in default when the pool is empty.
func NextUserAgent(p *Pool[string]) string {
	if ua, ok := p.Next(); ok {
		return ua
	}
	return DefaultUserAgent
}
