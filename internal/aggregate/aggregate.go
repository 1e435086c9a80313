// Package aggregate runs the independent sub-resources of one request concurrently
// and merges them, tolerating the failure of any secondary branch.
package aggregate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gauravRathod674/OtakuRealm/log"
	"github.com/gauravRathod674/OtakuRealm/metrics"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

const (
	MinWorkers = 1
	MaxWorkers = 10
)

// Branch is one sub-resource of an aggregate request.
type Branch struct {
	Name string

	// Primary branches fail the whole aggregate.
	Primary bool

	Run func(ctx context.Context) (source.Record, error)
}

// Slot is the outcome of one branch.
type Slot struct {
	Record source.Record
	Err    error
}

// Result holds one slot per branch name.
type Result struct {
	order []string
	slots map[string]Slot
}

// Record returns the record of branch name. A failed branch yields its error marker,
// an unknown one an empty record.
func (r *Result) Record(name string) source.Record {
	slot, ok := r.slots[name]
	if !ok || slot.Record == nil {
		return source.Record{}
	}

	return slot.Record
}

// Err returns the failure of branch name, if any.
func (r *Result) Err(name string) error {
	return r.slots[name].Err
}

// Failed lists the failed branches in declaration order.
func (r *Result) Failed() []string {
	return lo.Filter(r.order, func(name string, _ int) bool {
		return r.slots[name].Err != nil
	})
}

func (r *Result) Names() []string {
	return r.order
}

// MarshalJSON encodes the result as a branch name to record mapping.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]source.Record, len(r.slots))
	for _, name := range r.order {
		out[name] = r.Record(name)
	}

	return json.Marshal(out)
}

// PrimaryError reports the failure of a primary branch.
type PrimaryError struct {
	Branch string
	Err    error
}

func (e *PrimaryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Branch, e.Err)
}

func (e *PrimaryError) Unwrap() error {
	return e.Err
}

// Aggregator bounds the number of branches running at once.
type Aggregator struct {
	workers int
}

// New returns an Aggregator running at most workers branches at once, clamped to [1, 10].
func New(workers int) *Aggregator {
	return &Aggregator{workers: lo.Clamp(workers, MinWorkers, MaxWorkers)}
}

func (a *Aggregator) Workers() int {
	return a.workers
}

// Run executes every branch and waits for all of them.
// Siblings are never cancelled. The returned error is a *PrimaryError when a
// primary branch failed; the result is complete either way.
func (a *Aggregator) Run(ctx context.Context, branches ...Branch) (*Result, error) {
	slots := make([]Slot, len(branches))

	p := pool.New().WithMaxGoroutines(a.workers)
	for i, branch := range branches {
		p.Go(func() {
			slots[i] = run(ctx, branch)
		})
	}
	p.Wait()

	result := &Result{
		order: make([]string, 0, len(branches)),
		slots: make(map[string]Slot, len(branches)),
	}

	var primary error
	for i, branch := range branches {
		slot := slots[i]
		result.order = append(result.order, branch.Name)

		if slot.Err != nil {
			role := lo.Ternary(branch.Primary, "primary", "secondary")
			metrics.BranchFailures.WithLabelValues(branch.Name, role).Inc()
			log.WithFields(log.Fields{"branch": branch.Name, "role": role}).Warnf("branch failed: %s", slot.Err)

			slot.Record = source.Failed(slot.Err)
			if branch.Primary && primary == nil {
				primary = &PrimaryError{Branch: branch.Name, Err: slot.Err}
			}
		}

		result.slots[branch.Name] = slot
	}

	return result, primary
}

func run(ctx context.Context, branch Branch) (slot Slot) {
	recovered := panics.Try(func() {
		slot.Record, slot.Err = branch.Run(ctx)
	})

	if recovered != nil {
		return Slot{Err: recovered.AsError()}
	}

	if slot.Err == nil && slot.Record == nil {
		slot.Record = source.Record{}
	}

	return slot
}
