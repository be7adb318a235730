package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/cashcast/internal/model"
	"github.com/theirongolddev/cashcast/internal/source"
	"github.com/theirongolddev/cashcast/internal/store"
)

// ImportStore is the write side of the store used by the importer.
type ImportStore interface {
	GetTrackedFiles(ctx context.Context) (map[string]store.FileInfo, error)
	SaveImport(ctx context.Context, filePath string, txns []model.Transaction, info store.FileInfo) error
	ForgetFile(ctx context.Context, filePath string) error
}

// ProgressFunc is called during importing to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// ImportOptions controls an import run.
type ImportOptions struct {
	// Force re-imports files even when their mtime and size are unchanged.
	Force    bool
	Workers  int
	Progress ProgressFunc
}

// ImportResult summarizes an import run.
type ImportResult struct {
	TotalFiles   int
	Imported     int
	Unchanged    int
	Removed      int
	Transactions int
	ParseErrors  int
	FileErrors   int
	Accounts     int
	Failed       []string
}

type parsedFile struct {
	file   source.DiscoveredFile
	info   store.FileInfo
	result source.ParseResult
}

// Import discovers export files under dir, parses the ones that changed since
// the last import with a bounded worker pool, and saves each file's rows in
// its own database transaction. Tracked files under dir that no longer exist
// are removed together with their rows.
func Import(ctx context.Context, dir string, st ImportStore, opts ImportOptions) (*ImportResult, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	files, err := source.ScanDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	tracked, err := st.GetTrackedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading file tracker: %w", err)
	}

	result := &ImportResult{
		TotalFiles: len(files),
		Accounts:   source.CountAccounts(files),
	}

	// Diff: partition into changed and unchanged
	var toParse []parsedFile
	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[f.Path] = struct{}{}
		info, err := os.Stat(f.Path)
		if err != nil {
			result.FileErrors++
			continue
		}
		fi := store.FileInfo{MtimeNs: info.ModTime().UnixNano(), SizeBytes: info.Size()}
		if cached, ok := tracked[f.Path]; ok && !opts.Force && cached == fi {
			result.Unchanged++
			continue
		}
		toParse = append(toParse, parsedFile{file: f, info: fi})
	}

	parseAll(toParse, opts, result.Unchanged, result.TotalFiles)

	for _, p := range toParse {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if p.result.Err != nil {
			result.FileErrors++
			result.Failed = append(result.Failed, p.file.Path)
			continue
		}
		if err := st.SaveImport(ctx, p.file.Path, p.result.Transactions, p.info); err != nil {
			return result, fmt.Errorf("saving %s: %w", p.file.Path, err)
		}
		result.Imported++
		result.Transactions += len(p.result.Transactions)
		result.ParseErrors += p.result.ParseErrors
	}

	var gone []string
	for path := range tracked {
		if _, ok := present[path]; ok || !within(absDir, path) {
			continue
		}
		gone = append(gone, path)
	}
	sort.Strings(gone)
	for _, path := range gone {
		if err := st.ForgetFile(ctx, path); err != nil {
			return result, fmt.Errorf("forgetting %s: %w", path, err)
		}
		result.Removed++
	}

	return result, nil
}

// parseAll parses files in place with a bounded worker pool.
func parseAll(files []parsedFile, opts ImportOptions, done, total int) {
	if len(files) == 0 {
		return
	}

	numWorkers := opts.Workers
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				files[idx].result = source.ParseFile(files[idx].file)
				n := processed.Add(1)
				if opts.Progress != nil {
					opts.Progress(int(n)+done, total)
				}
			}
		}()
	}

	wg.Wait()
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
