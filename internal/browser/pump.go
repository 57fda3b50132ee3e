package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/newsadvisor/internal/mutation"
	"github.com/nao1215/newsadvisor/internal/scheduler"
)

// Drained is what one poll of the page returns.
type Drained struct {
	Records  []mutation.Record
	Viewport scheduler.Viewport
}

type drainPayload struct {
	Records []mutation.Record `json:"records"`
	Top     int               `json:"top"`
	Height  int               `json:"height"`
}

func decodeDrain(data string) (Drained, error) {
	var p drainPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Drained{}, fmt.Errorf("decode page records: %w", err)
	}
	return Drained{
		Records:  p.Records,
		Viewport: scheduler.Viewport{Top: p.Top, Height: p.Height},
	}, nil
}

type drainer interface {
	Drain(ctx context.Context) (Drained, error)
}

type pumpConfig struct {
	interval time.Duration
	pageURL  string
	initial  scheduler.Viewport
	logger   *slog.Logger
}

// pump polls src and forwards non-empty record sets as sequenced batches
// and changed scroll positions as viewports. Records are sent before the
// viewport of the same poll. It returns nil when ctx is done.
func pump(ctx context.Context, src drainer, cfg pumpConfig, mutations chan<- mutation.Batch, viewport chan<- scheduler.Viewport) error {
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	var seq uint64
	last := cfg.initial
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		d, err := src.Drain(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("poll page: %w", err)
		}

		if len(d.Records) > 0 {
			seq++
			batch := mutation.Batch{
				Seq:       seq,
				PageURL:   cfg.pageURL,
				Records:   d.Records,
				Timestamp: time.Now().UnixMilli(),
			}
			select {
			case mutations <- batch:
			case <-ctx.Done():
				return nil
			}
			cfg.logger.Debug("mutations forwarded", slog.Uint64("seq", seq), slog.Int("records", len(d.Records)))
		}

		if d.Viewport.Height > 0 && d.Viewport != last {
			select {
			case viewport <- d.Viewport:
				last = d.Viewport
			case <-ctx.Done():
				return nil
			}
		}
	}
}
