package workflow

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// InFlightGuard tracks which mutating operations are currently dispatched,
// keyed by (operation, entity id). Verify and reject on the same document,
// for example, are mutually exclusive while either is pending. This is a
// dispatch guard against duplicate submission, not a server-side lock.
type InFlightGuard struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewInFlightGuard() *InFlightGuard {
	return &InFlightGuard{pending: make(map[string]struct{})}
}

// Begin marks (op, id) as in flight. Returns ErrOperationInFlight if any
// operation in the same exclusion group is already pending for the entity.
// The exclusion group is the set of ops passed as excludes plus op itself.
func (g *InFlightGuard) Begin(id uuid.UUID, op string, excludes ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, other := range append(excludes, op) {
		if _, busy := g.pending[g.key(other, id)]; busy {
			return fmt.Errorf("%s on %s: %w", op, id, ErrOperationInFlight)
		}
	}
	g.pending[g.key(op, id)] = struct{}{}
	return nil
}

// End clears the in-flight mark for (op, id). Safe to call when not set.
func (g *InFlightGuard) End(id uuid.UUID, op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, g.key(op, id))
}

// InFlight reports whether (op, id) is currently dispatched.
func (g *InFlightGuard) InFlight(id uuid.UUID, op string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.pending[g.key(op, id)]
	return busy
}

func (g *InFlightGuard) key(op string, id uuid.UUID) string {
	return op + ":" + id.String()
}
