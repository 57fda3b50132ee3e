package engine

import (
	"context"

	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/mutation"
	"github.com/nao1215/newsadvisor/internal/scheduler"
)

// Inputs are the inbound event channels of a running session. A nil
// channel is never selected.
type Inputs struct {
	Mutations <-chan mutation.Batch
	Viewport  <-chan scheduler.Viewport
	Settings  <-chan config.Settings
	Pointer   <-chan PointerEvent
}

// Run initializes the session and processes events one at a time until
// ctx is done or every channel is closed. It returns ctx.Err() in the
// first case and nil in the second. The session is not torn down.
func (s *Session) Run(ctx context.Context, in Inputs) error {
	s.Init()

	mutations, viewport, settings, pointer := in.Mutations, in.Viewport, in.Settings, in.Pointer
	for mutations != nil || viewport != nil || settings != nil || pointer != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-mutations:
			if !ok {
				mutations = nil
				continue
			}
			s.HandleMutations(b)
		case vp, ok := <-viewport:
			if !ok {
				viewport = nil
				continue
			}
			s.HandleViewport(vp)
		case st, ok := <-settings:
			if !ok {
				settings = nil
				continue
			}
			s.ApplySettings(st)
		case ev, ok := <-pointer:
			if !ok {
				pointer = nil
				continue
			}
			s.HandlePointer(ev)
		}
	}
	return nil
}
