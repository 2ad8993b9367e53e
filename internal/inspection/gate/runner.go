package gate

import (
	"context"
	"fmt"
	"sync"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
)

// Runner evaluates all four gates for a session.
type Runner struct {
	sketch *SketchGate
	scope  *ScopeGate
	photo  *PhotoDamageGate
	export *ExportGate
}

// NewRunner creates a runner with all four gates over the given store.
func NewRunner(store Store) *Runner {
	return &Runner{
		sketch: NewSketchGate(store),
		scope:  NewScopeGate(store),
		photo:  NewPhotoDamageGate(store),
		export: NewExportGate(store),
	}
}

// RunAll evaluates every gate concurrently and returns results keyed by
// gate. Gates are read-only, so concurrent evaluation is safe.
func (r *Runner) RunAll(ctx context.Context, sessionID string, peril domain.Peril) (map[Gate]Result, error) {
	results := make(map[Gate]Result, 4)
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	record := func(gate Gate, result Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s gate: %w", gate, err)
			}
			return
		}
		results[gate] = result
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		result, err := r.sketch.Evaluate(ctx, sessionID)
		record(GateSketch, result, err)
	}()
	go func() {
		defer wg.Done()
		result, err := r.scope.Evaluate(ctx, sessionID, peril)
		record(GateScope, result, err)
	}()
	go func() {
		defer wg.Done()
		result, err := r.photo.Evaluate(ctx, sessionID)
		record(GatePhotoDamage, result, err)
	}()
	go func() {
		defer wg.Done()
		result, err := r.export.Evaluate(ctx, sessionID, peril)
		record(GateExport, result, err)
	}()
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// Sketch returns the sketch gate for direct evaluation.
func (r *Runner) Sketch() *SketchGate { return r.sketch }

// Scope returns the scope gate for direct evaluation.
func (r *Runner) Scope() *ScopeGate { return r.scope }

// PhotoDamage returns the photo-damage gate for direct evaluation.
func (r *Runner) PhotoDamage() *PhotoDamageGate { return r.photo }

// Export returns the export gate for direct evaluation.
func (r *Runner) Export() *ExportGate { return r.export }
