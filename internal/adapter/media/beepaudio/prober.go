package beepaudio

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// errUnknownLength is returned for streams that do not report their length.
var errUnknownLength = errors.New("stream length unknown")

// Prober reads stream headers to find durations without touching the speaker.
type Prober struct {
	opener *opener
}

// NewProber creates a prober sharing the element's resolution rules.
func NewProber(resolver ports.LocatorResolver, cfg Config) *Prober {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultConfig().HTTPTimeout
	}
	return &Prober{opener: &opener{
		resolver:  resolver,
		client:    &http.Client{Timeout: cfg.HTTPTimeout},
		assetsDir: cfg.AssetsDir,
	}}
}

// Probe decodes src far enough to learn its length.
func (p *Prober) Probe(ctx context.Context, src domain.Locator) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	d, err := p.opener.open(ctx, src)
	if err != nil {
		return 0, err
	}
	defer d.Close()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := d.streamer.Len()
	if n <= 0 {
		return 0, domain.NewMediaError("probe", src, errUnknownLength)
	}
	return d.format.SampleRate.D(n), nil
}

var _ ports.DurationProber = (*Prober)(nil)
