// Package registry tracks which candidates have been seen, which are
// waiting for visibility and which containers have been promoted to zones.
//
// A Registry belongs to one session and is not safe for concurrent use.
package registry

import (
	"github.com/nao1215/newsadvisor/internal/model"
	"golang.org/x/net/html"
)

// Registry holds the at-most-once bookkeeping for one session.
type Registry struct {
	processed map[*html.Node]struct{}
	pending   map[*html.Node]model.Kind
	zones     map[*html.Node]model.Type
	order     []*html.Node
}

// New creates an empty Registry.
func New() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Register records n as pending classification with its capability tag.
// It returns false, doing nothing, when n was already processed, is
// already pending or lies inside a zone.
func (r *Registry) Register(n *html.Node, kind model.Kind) bool {
	if n == nil {
		return false
	}
	if _, ok := r.processed[n]; ok {
		return false
	}
	if _, ok := r.pending[n]; ok {
		return false
	}
	if _, _, ok := r.ZoneOf(n); ok {
		return false
	}
	r.pending[n] = kind
	return true
}

// Pending returns the capability tag of a pending candidate.
func (r *Registry) Pending(n *html.Node) (model.Kind, bool) {
	kind, ok := r.pending[n]
	return kind, ok
}

// PendingCount returns the number of candidates waiting for visibility.
func (r *Registry) PendingCount() int {
	return len(r.pending)
}

// Forget drops n from the pending set without marking it processed. It is
// used when a watched node leaves the document.
func (r *Registry) Forget(n *html.Node) {
	delete(r.pending, n)
}

// Skip marks n processed without classification. It returns false when n
// was already processed.
func (r *Registry) Skip(n *html.Node) bool {
	return r.MarkProcessed(n)
}

// MarkProcessed moves n to the processed set. It returns true only the
// first time it is called for n.
func (r *Registry) MarkProcessed(n *html.Node) bool {
	if n == nil {
		return false
	}
	if _, ok := r.processed[n]; ok {
		return false
	}
	delete(r.pending, n)
	r.processed[n] = struct{}{}
	return true
}

// IsProcessed reports whether n has been classified or skipped.
func (r *Registry) IsProcessed(n *html.Node) bool {
	_, ok := r.processed[n]
	return ok
}

// ZoneOf returns the nearest zone at or above n and its type.
func (r *Registry) ZoneOf(n *html.Node) (*html.Node, model.Type, bool) {
	if len(r.zones) == 0 {
		return nil, model.TypeNews, false
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if t, ok := r.zones[cur]; ok {
			return cur, t, true
		}
	}
	return nil, model.TypeNews, false
}

// PromoteToZone marks container as a zone of type t. Promoting an
// existing zone keeps its original type and returns false.
func (r *Registry) PromoteToZone(container *html.Node, t model.Type) bool {
	if container == nil {
		return false
	}
	if _, ok := r.zones[container]; ok {
		return false
	}
	r.zones[container] = t
	r.order = append(r.order, container)
	return true
}

// Zones returns the zone containers in promotion order.
func (r *Registry) Zones() []*html.Node {
	out := make([]*html.Node, len(r.order))
	copy(out, r.order)
	return out
}

// Reset forgets everything. It is called on teardown.
func (r *Registry) Reset() {
	r.processed = make(map[*html.Node]struct{})
	r.pending = make(map[*html.Node]model.Kind)
	r.zones = make(map[*html.Node]model.Type)
	r.order = nil
}
