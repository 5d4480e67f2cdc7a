package fileSync

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"icrhDiag/metrics"
)

//DefaultMaxFiles is the number of most recent remote files considered by Sync
const DefaultMaxFiles = 1000

//Syncer copies the most recent remote files missing from LocalDir
type Syncer struct {
	Remote   Remote
	LocalDir string
	//MaxFiles limits Sync to the MaxFiles lexicographically last remote names, <= 0 means no limit
	MaxFiles int
	//Parallel number of concurrent transfers, <= 0 means 1
	Parallel int64
	//Timeout per file operation, <= 0 means none
	Timeout time.Duration
}

//Report lists the outcome of a batch. Failed maps file names to their error
type Report struct {
	Copied  []string
	Deleted []string
	Skipped []string
	Failed  map[string]error
}

func newReport() Report {
	return Report{
		Copied:  make([]string, 0),
		Deleted: make([]string, 0),
		Skipped: make([]string, 0),
		Failed:  make(map[string]error),
	}
}

//Err summarizes the failures of the batch, nil if every file succeeded
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Failed))
	for name := range r.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("%v files failed: %v", len(names), strings.Join(names, ", "))
}

func (s *Syncer) parallel() int64 {
	if s.Parallel <= 0 {
		return 1
	}
	return s.Parallel
}

func (s *Syncer) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

//Pending returns the remote names Sync would copy, most recent first
func (s *Syncer) Pending(ctx context.Context) (missing, present []string, err error) {
	remote, err := s.Remote.List(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not list remote files")
	}
	local, err := ListLocal(s.LocalDir)
	if err != nil {
		return nil, nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(remote)))
	if s.MaxFiles > 0 && len(remote) > s.MaxFiles {
		remote = remote[:s.MaxFiles]
	}
	localSet := make(map[string]bool, len(local))
	for _, name := range local {
		localSet[name] = true
	}
	for _, name := range remote {
		if localSet[name] {
			present = append(present, name)
			continue
		}
		missing = append(missing, name)
	}
	return missing, present, nil
}

//Sync copies the missing files. A failing transfer is reported and does not stop the others; the returned
//error is only set if the file lists could not be obtained or ctx was cancelled before all transfers started
func (s *Syncer) Sync(ctx context.Context) (Report, error) {
	report := newReport()
	if err := os.MkdirAll(s.LocalDir, 0755); err != nil {
		return report, errors.Wrapf(err, "could not create %v", s.LocalDir)
	}
	missing, present, err := s.Pending(ctx)
	if err != nil {
		return report, err
	}
	report.Skipped = append(report.Skipped, present...)
	metrics.SyncFiles.WithLabelValues("fetch", "skipped").Add(float64(len(present)))

	var mu sync.Mutex
	err = s.forEach(ctx, missing, func(opCtx context.Context, name string) {
		fetchErr := checkName(name)
		if fetchErr == nil {
			log.Printf("copying %v to %v", name, s.LocalDir)
			fetchErr = s.Remote.Fetch(opCtx, name, s.LocalDir)
		}
		if fetchErr != nil && checkName(name) == nil {
			//scp may leave a truncated file behind
			if rmErr := os.Remove(filepath.Join(s.LocalDir, name)); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Printf("could not remove partial copy of %v : %v", name, rmErr)
			}
		}
		mu.Lock()
		defer mu.Unlock()
		if fetchErr != nil {
			log.Printf("failed to copy %v : %v", name, fetchErr)
			report.Failed[name] = fetchErr
			metrics.SyncFiles.WithLabelValues("fetch", "error").Inc()
			return
		}
		report.Copied = append(report.Copied, name)
		metrics.SyncFiles.WithLabelValues("fetch", "ok").Inc()
	})
	sort.Sort(sort.Reverse(sort.StringSlice(report.Copied)))
	return report, err
}

//Delete removes each file from the remote and from the local directory. A file missing locally is not an
//error
func (s *Syncer) Delete(ctx context.Context, names []string) (Report, error) {
	report := newReport()
	var mu sync.Mutex
	err := s.forEach(ctx, names, func(opCtx context.Context, name string) {
		var errs []string
		if err := checkName(name); err != nil {
			errs = append(errs, err.Error())
		} else {
			log.Printf("deleting %v", name)
			if err := s.Remote.Remove(opCtx, name); err != nil {
				errs = append(errs, err.Error())
			}
			if err := os.Remove(filepath.Join(s.LocalDir, name)); err != nil && !os.IsNotExist(err) {
				errs = append(errs, errors.Wrapf(err, "could not remove local file %v", name).Error())
			}
		}
		mu.Lock()
		defer mu.Unlock()
		if len(errs) > 0 {
			report.Failed[name] = errors.New(strings.Join(errs, "; "))
			metrics.SyncFiles.WithLabelValues("remove", "error").Inc()
			return
		}
		report.Deleted = append(report.Deleted, name)
		metrics.SyncFiles.WithLabelValues("remove", "ok").Inc()
	})
	sort.Strings(report.Deleted)
	return report, err
}

//forEach runs op for every name with at most s.Parallel operations in flight
func (s *Syncer) forEach(ctx context.Context, names []string, op func(ctx context.Context, name string)) error {
	workers := s.parallel()
	sema := semaphore.NewWeighted(workers)
	var startErr error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			startErr = errors.Wrap(err, "sync interrupted")
			break
		}
		if err := sema.Acquire(ctx, 1); err != nil {
			startErr = errors.Wrap(err, "sync interrupted")
			break
		}
		go func(name string) {
			defer sema.Release(1)
			opCtx, cancel := s.opContext(ctx)
			defer cancel()
			op(opCtx, name)
		}(name)
	}
	//wait for the running operations, ctx may already be done
	if err := sema.Acquire(context.Background(), workers); err != nil {
		return err
	}
	return startErr
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%q is not a plain file name", name)
	}
	return nil
}
