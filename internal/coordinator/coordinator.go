// Package coordinator implements the Page Coordinator of spec §5: a
// bounded worker pool that drives rasterize -> masks -> locate per page,
// in parallel, with adaptive DPI/worker tuning and in-page-order output.
// Compositing the returned plans is left to the caller. The locator core stays pure and stateless; all
// concurrency lives here, generalized from the teacher's
// processDirectory/eventLoop semaphore-and-waitgroup pattern and from
// the pogo processor's jobs/results channel pair with page-number
// reordering.
package coordinator

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"github.com/jodrm/stampwise/internal/locate"
	"github.com/jodrm/stampwise/internal/rasterize"
	"github.com/jodrm/stampwise/internal/stamp"
	"github.com/rs/zerolog"
)

// Tuning is one row of spec §5's adaptive DPI/worker table.
type Tuning struct {
	Workers    int
	WorkingDPI int
}

// TuningFor selects workers and working DPI from a document's page
// count, per spec §5's table.
func TuningFor(pageCount int) Tuning {
	switch {
	case pageCount < 100:
		return Tuning{Workers: 4, WorkingDPI: 250}
	case pageCount <= 300:
		return Tuning{Workers: 8, WorkingDPI: 200}
	default:
		return Tuning{Workers: 12, WorkingDPI: 150}
	}
}

// Result is one page's outcome: either a StampPlan or an error, always
// attached to its page number so the caller can log/skip it and keep
// going with the rest of the document.
type Result struct {
	Plan stamp.Plan
	Err  error
	Page int
}

// Config controls a Coordinator run.
type Config struct {
	PDFPath        string
	Rasterizer     rasterize.Rasterizer
	LocatorOptions locate.Options
	MaxMemoryBytes int64 // 0 = unbounded
	Logger         zerolog.Logger
}

// estimatedPageBytes approximates per-page memory per spec §5: the
// raster (W*H*3), the three masks (~3*W*H/8 bytes for packed bits —
// this implementation stores one byte per pixel per mask, so the real
// figure is closer to 3*W*H, used here as the conservative estimate),
// and the integral image (4*(W+1)*(H+1) bytes for int32 sums).
func estimatedPageBytes(width, height int) int64 {
	raster := int64(width) * int64(height) * 3
	masks := int64(width) * int64(height) * 3
	integral := int64(4) * int64(width+1) * int64(height+1)
	return raster + masks + integral
}

// Run drives every page of geometry through rasterize -> locate and
// returns StampPlans in page order regardless of completion order.
// Cancellation is cooperative at page-submission boundaries only, per
// spec §5 — a page already in flight runs to completion.
func Run(ctx context.Context, cfg Config) ([]Result, Tuning, error) {
	geom, err := rasterize.ReadGeometry(cfg.PDFPath)
	if err != nil {
		return nil, Tuning{}, fmt.Errorf("reading page geometry: %w", err)
	}

	tuning := TuningFor(geom.PageCount)
	opts := cfg.LocatorOptions
	opts.WorkingDPI = tuning.WorkingDPI

	// memSlots caps in-flight pages by a rough memory budget in addition
	// to the worker-count cap; it is the capacity of the sem channel below.
	memSlots := tuning.Workers
	if cfg.MaxMemoryBytes > 0 && geom.PageCount > 0 {
		avgW := 0.0
		for _, w := range geom.WidthPt {
			avgW += w
		}
		avgW /= float64(len(geom.WidthPt))
		perPage := estimatedPageBytes(
			int(avgW/72.0*float64(tuning.WorkingDPI)),
			int(avgW/72.0*float64(tuning.WorkingDPI)*1.3), // rough aspect guess
		)
		if perPage > 0 {
			budgetSlots := int(cfg.MaxMemoryBytes / perPage)
			if budgetSlots < 1 {
				budgetSlots = 1
			}
			if budgetSlots < memSlots {
				memSlots = budgetSlots
			}
		}
	}

	jobs := make(chan int)
	results := make(chan Result)
	sem := make(chan struct{}, memSlots)

	var workers sync.WaitGroup
	workers.Add(tuning.Workers)
	for w := 0; w < tuning.Workers; w++ {
		go func() {
			defer workers.Done()
			for page := range jobs {
				sem <- struct{}{}
				results <- processPage(cfg, page, opts)
				<-sem
			}
		}()
	}

	go func() {
		defer close(jobs)
		for page := 1; page <= geom.PageCount; page++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- page:
			}
		}
	}()

	go func() {
		workers.Wait()
		close(results)
	}()

	return reorder(results), tuning, nil
}

func processPage(cfg Config, page int, opts locate.Options) Result {
	r, err := cfg.Rasterizer.Rasterize(cfg.PDFPath, page, opts.WorkingDPI)
	if err != nil {
		return Result{Page: page, Err: fmt.Errorf("rasterizing page %d: %w", page, err)}
	}

	placement, err := locate.LocateStamp(r, opts)
	if err != nil {
		cfg.Logger.Warn().Int("page", page).Err(err).Msg("locate_stamp failed, skipping page")
		return Result{Page: page, Err: err}
	}
	if placement.Quality.Tier != locate.TierAccept {
		cfg.Logger.Warn().Int("page", page).Str("tier", placement.Quality.Tier.String()).
			Float64("overlap", placement.OverlapFraction).Msg("no acceptable placement, stamping anyway")
	}

	return Result{Page: page, Plan: stamp.FromPlacement(page, placement)}
}

// resultHeap orders in-flight results by page number so reorder can pop
// them out in document order once the next expected page is ready.
type resultHeap []Result

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].Page < h[j].Page }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// reorder buffers results in a min-heap keyed by page number and emits
// them in order as soon as the next expected page arrives, so completion
// order (which varies by worker scheduling) never leaks to the caller.
// It drains exactly as many results as were actually submitted, so a
// cancelled run (fewer jobs submitted than total pages) still returns
// cleanly instead of blocking forever.
func reorder(results <-chan Result) []Result {
	var ordered []Result
	pending := &resultHeap{}
	heap.Init(pending)
	next := 1

	for r := range results {
		heap.Push(pending, r)
		for pending.Len() > 0 && (*pending)[0].Page == next {
			ordered = append(ordered, heap.Pop(pending).(Result))
			next++
		}
	}
	// Any results left in the heap belong to pages whose predecessors
	// never arrived (cancellation mid-document); emit them in order too
	// rather than silently dropping completed work.
	for pending.Len() > 0 {
		ordered = append(ordered, heap.Pop(pending).(Result))
	}
	return ordered
}
