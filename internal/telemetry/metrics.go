// Package telemetry keeps local statistics about searches: how often each
// stage answered, which ingredients are searched, which combinations found
// nothing, and how long searches took. Nothing is reported anywhere.
package telemetry

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/pantry/internal/search"
)

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketP100  LatencyBucket = "lt100ms"
	BucketP250  LatencyBucket = "lt250ms"
	BucketP500  LatencyBucket = "lt500ms"
	BucketP1000 LatencyBucket = "lt1s"
	BucketSlow  LatencyBucket = "ge1s"
)

// Buckets lists every bucket, fastest first.
var Buckets = []LatencyBucket{BucketP100, BucketP250, BucketP500, BucketP1000, BucketSlow}

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < 100*time.Millisecond:
		return BucketP100
	case d < 250*time.Millisecond:
		return BucketP250
	case d < 500*time.Millisecond:
		return BucketP500
	case d < time.Second:
		return BucketP1000
	default:
		return BucketSlow
	}
}

// Stage names recorded besides the multi-term search stages.
const (
	StageSingle = "single"
	StageFailed = "failed"
)

// SearchEvent is one completed search.
type SearchEvent struct {
	Terms       []string
	Stage       string
	ResultCount int
	Latency     time.Duration
	Timestamp   time.Time
}

// ZeroResult is a search that found nothing.
type ZeroResult struct {
	Terms     string    `json:"terms"`
	Timestamp time.Time `json:"timestamp"`
}

// TermCount is an ingredient and how often it was searched.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Config configures a Metrics collector.
type Config struct {
	// TopTermsCapacity bounds the distinct terms held between flushes.
	TopTermsCapacity int
	// ZeroResultsCapacity bounds the zero-result searches held between flushes.
	ZeroResultsCapacity int
}

// DefaultConfig returns the default capacities.
func DefaultConfig() Config {
	return Config{
		TopTermsCapacity:    200,
		ZeroResultsCapacity: 100,
	}
}

// Metrics aggregates search events in memory and flushes the deltas to a
// Store. It is safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	stages      map[string]int64
	terms       *lru.Cache[string, int64]
	zeroResults *CircularBuffer[ZeroResult]
	latencies   map[LatencyBucket]int64
	total       int64

	store Store
	cfg   Config
	now   func() time.Time
}

// New creates a collector. A nil store keeps everything in memory.
func New(store Store, cfg Config) *Metrics {
	def := DefaultConfig()
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = def.TopTermsCapacity
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = def.ZeroResultsCapacity
	}

	terms, _ := lru.New[string, int64](cfg.TopTermsCapacity)
	return &Metrics{
		stages:      make(map[string]int64),
		terms:       terms,
		zeroResults: NewCircularBuffer[ZeroResult](cfg.ZeroResultsCapacity),
		latencies:   make(map[LatencyBucket]int64),
		store:       store,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Record adds one search.
func (m *Metrics) Record(e SearchEvent) {
	if e.Timestamp.IsZero() {
		e.Timestamp = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Count each ingredient once per search, however the user spelled it.
	terms := search.NewIngredientSet(e.Terms...).Terms()

	m.total++
	m.stages[e.Stage]++
	m.latencies[LatencyToBucket(e.Latency)]++
	for _, term := range terms {
		count, _ := m.terms.Get(term)
		m.terms.Add(term, count+1)
	}
	if e.ResultCount == 0 && e.Stage != StageFailed && len(terms) > 0 {
		m.zeroResults.Add(ZeroResult{Terms: strings.Join(terms, ", "), Timestamp: e.Timestamp})
	}
}

// Pending is the unflushed delta.
type Pending struct {
	Total       int64                   `json:"total"`
	Stages      map[string]int64        `json:"stages"`
	TopTerms    []TermCount             `json:"top_terms"`
	ZeroResults []ZeroResult            `json:"zero_results"`
	Latencies   map[LatencyBucket]int64 `json:"latencies"`
}

// Pending returns a copy of the events recorded since the last flush.
func (m *Metrics) Pending() Pending {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingLocked()
}

func (m *Metrics) pendingLocked() Pending {
	p := Pending{
		Total:       m.total,
		Stages:      make(map[string]int64, len(m.stages)),
		ZeroResults: m.zeroResults.Items(),
		Latencies:   make(map[LatencyBucket]int64, len(m.latencies)),
	}
	for k, v := range m.stages {
		p.Stages[k] = v
	}
	for k, v := range m.latencies {
		p.Latencies[k] = v
	}
	for _, term := range m.terms.Keys() {
		if count, ok := m.terms.Peek(term); ok {
			p.TopTerms = append(p.TopTerms, TermCount{Term: term, Count: count})
		}
	}
	sortTerms(p.TopTerms)
	return p
}

func (m *Metrics) resetLocked() {
	m.total = 0
	clear(m.stages)
	clear(m.latencies)
	m.terms.Purge()
	m.zeroResults.Clear()
}

// Flush writes the pending delta to the store and resets it. On error the
// delta is kept for the next attempt.
func (m *Metrics) Flush(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.total == 0 {
		return nil
	}
	p := m.pendingLocked()
	if err := m.store.Add(ctx, m.now().Format(dateLayout), p); err != nil {
		return err
	}
	m.resetLocked()
	return nil
}

// Run flushes every interval until ctx is done, then flushes once more.
func (m *Metrics) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = m.Flush(ctx)
		case <-ctx.Done():
			return m.Flush(context.WithoutCancel(ctx))
		}
	}
}

func sortTerms(terms []TermCount) {
	slices.SortFunc(terms, func(a, b TermCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Term, b.Term)
	})
}
