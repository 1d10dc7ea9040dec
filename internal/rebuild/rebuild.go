// Package rebuild decides when a file's sparse row index has gone
// stale and rebuilds it, grounded on the teacher's internal/compaction
// package: a Director that inspects tracked state and proposes at
// most one Plan, and an Executor that carries the plan out and
// updates the catalog — the same plan/execute split, re-purposed from
// segment recompaction to index rebuilding.
package rebuild

import (
	"context"
	"fmt"
	"os"

	"gridview/internal/catalog"
	"gridview/internal/datafile"
	"gridview/internal/freshness"
	"gridview/internal/indexcodec"
	"gridview/internal/logging"
	"gridview/internal/rowindex"
)

// Plan describes one file whose index needs to be rebuilt and why.
type Plan struct {
	EntryID string
	Path    string
	Reason  string
}

// Director scans the catalog for files whose index no longer matches
// their data file on disk.
type Director interface {
	MaybePlan(ctx context.Context) (*Plan, error)
}

type director struct {
	cat        catalog.Catalog
	controller freshness.Controller
	indexPath  func(dataPath string) string
}

// NewDirector builds a Director. indexPath maps a data file path to
// its on-disk index path (e.g. appending ".idx").
func NewDirector(cat catalog.Catalog, controller freshness.Controller, indexPath func(string) string) Director {
	return &director{cat: cat, controller: controller, indexPath: indexPath}
}

// MaybePlan returns at most one rebuild plan: the first catalog entry
// the director finds whose backing file has diverged from its index.
func (d *director) MaybePlan(ctx context.Context) (*Plan, error) {
	for _, entry := range d.cat.All() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		size, mtime, err := entry.File().Stat()
		if err != nil {
			return nil, fmt.Errorf("rebuild: stat %s: %w", entry.Path, err)
		}

		if d.controller.IsFresh(entry.Index(), size, mtime) {
			continue
		}

		return &Plan{
			EntryID: entry.ID,
			Path:    entry.Path,
			Reason:  "data file diverged from index (size/mtime mismatch or implausible row count)",
		}, nil
	}
	return nil, nil
}

// Executor carries out a rebuild Plan: re-scan the data file, write a
// fresh index and sidecar, reopen the file, and atomically swap both
// into the catalog entry.
type Executor interface {
	Execute(ctx context.Context, plan *Plan) error
}

// OpenFunc opens a data file path as a datafile.Handle, matching
// datafile.Open and datafile.OpenMmap's signature. Executor calls this
// after a rebuild to pick up a handle that actually reflects any rows
// appended since the previous handle was opened — datafile.Handle.Size
// and, for mmap, the mapped region itself, are both fixed at open time
// and never see appended bytes otherwise.
type OpenFunc func(path string) (datafile.Handle, error)

type executor struct {
	cat         catalog.Catalog
	granularity uint64
	log         logging.Logger
	indexPath   func(dataPath string) string
	openFile    OpenFunc
}

// NewExecutor builds an Executor. indexPath maps a data file path to
// its on-disk index path, matching NewDirector's convention. openFile
// reopens a data file after a rebuild; pass datafile.Open or
// datafile.OpenMmap depending on which backs the running catalog.
func NewExecutor(cat catalog.Catalog, granularity uint64, log logging.Logger, indexPath func(string) string, openFile OpenFunc) Executor {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if openFile == nil {
		openFile = datafile.Open
	}
	return &executor{cat: cat, granularity: granularity, log: log, indexPath: indexPath, openFile: openFile}
}

func (e *executor) Execute(ctx context.Context, plan *Plan) error {
	timer := logging.StartTimer(e.log, "index rebuilt", logging.Path(plan.Path), logging.String("reason", plan.Reason))

	f, err := os.Open(plan.Path)
	if err != nil {
		timer.EndError(err)
		return fmt.Errorf("rebuild: opening %s: %w", plan.Path, err)
	}
	defer f.Close()

	idx, err := rowindex.NewBuilder(0).Build(ctx, f, e.granularity)
	if err != nil {
		timer.EndError(err)
		return fmt.Errorf("rebuild: building index for %s: %w", plan.Path, err)
	}

	indexPath := e.indexPath(plan.Path)
	if err := indexcodec.Save(indexPath, idx); err != nil {
		timer.EndError(err)
		return fmt.Errorf("rebuild: saving index for %s: %w", plan.Path, err)
	}

	info, err := f.Stat()
	if err != nil {
		timer.EndError(err)
		return fmt.Errorf("rebuild: stat %s: %w", plan.Path, err)
	}
	if err := indexcodec.SaveSidecar(indexPath, info.Size(), info.ModTime()); err != nil {
		timer.EndError(err)
		return fmt.Errorf("rebuild: saving sidecar for %s: %w", plan.Path, err)
	}

	entry, ok := e.cat.Get(plan.EntryID)
	if !ok {
		timer.EndError(fmt.Errorf("catalog entry %s vanished mid-rebuild", plan.EntryID))
		return nil
	}

	newFile, err := e.openFile(plan.Path)
	if err != nil {
		timer.EndError(err)
		return fmt.Errorf("rebuild: reopening %s: %w", plan.Path, err)
	}

	// Publish the new index and file together so a concurrent reader
	// never sees a rebuilt index paired with a handle still capped at
	// the pre-rebuild size. A reader that already grabbed the old
	// handle via Source.File() just before this swap keeps reading
	// from it safely to completion; only callers after the swap
	// observe the new one.
	oldFile := entry.File()
	entry.SetIndex(idx)
	entry.SetFile(newFile)
	if oldFile != nil {
		_ = oldFile.Close()
	}

	timer.End()
	return nil
}
