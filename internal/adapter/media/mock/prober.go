package mock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// ErrProbeFailed is returned for sources configured to fail.
var ErrProbeFailed = errors.New("mock probe failed")

// Prober is a mock implementation of ports.DurationProber.
type Prober struct {
	mu        sync.Mutex
	durations map[domain.Locator]time.Duration
	failing   map[domain.Locator]bool
	hanging   map[domain.Locator]bool
	delay     time.Duration

	calls       int
	inFlight    int
	maxInFlight int
}

// NewProber creates a prober that reports DefaultDuration for unknown sources.
func NewProber() *Prober {
	return &Prober{
		durations: make(map[domain.Locator]time.Duration),
		failing:   make(map[domain.Locator]bool),
		hanging:   make(map[domain.Locator]bool),
	}
}

// SetDuration configures the duration reported for src.
func (p *Prober) SetDuration(src domain.Locator, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.durations[src] = d
}

// SetFailing makes probes of src fail.
func (p *Prober) SetFailing(src domain.Locator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing[src] = true
}

// SetHanging makes probes of src block until their context ends.
func (p *Prober) SetHanging(src domain.Locator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hanging[src] = true
}

// SetDelay makes every probe take at least d.
func (p *Prober) SetDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

// Probe returns the configured duration for src.
func (p *Prober) Probe(ctx context.Context, src domain.Locator) (time.Duration, error) {
	p.mu.Lock()
	p.calls++
	p.inFlight++
	p.maxInFlight = max(p.maxInFlight, p.inFlight)
	delay := p.delay
	failing := p.failing[src]
	hanging := p.hanging[src]
	d, ok := p.durations[src]
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if hanging {
		<-ctx.Done()
		return 0, ctx.Err()
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	if failing {
		return 0, ErrProbeFailed
	}
	if !ok {
		d = DefaultDuration
	}
	return d, nil
}

// Calls returns how many probes were issued.
func (p *Prober) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// MaxInFlight returns the highest number of concurrent probes observed.
func (p *Prober) MaxInFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxInFlight
}

var _ ports.DurationProber = (*Prober)(nil)
