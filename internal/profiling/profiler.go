// Package profiling writes pprof and trace output for a single pantry run.
package profiling

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/dustin/go-humanize"
)

// Options names the files to write. Empty paths are skipped.
type Options struct {
	CPU   string
	Heap  string
	Trace string
	// Goroutine dumps every goroutine's stack at Stop, which shows a
	// verification worker that failed to exit.
	Goroutine string
}

// Enabled reports whether any output is requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Heap != "" || o.Trace != "" || o.Goroutine != ""
}

// Session is one profiling run. Stop must be called exactly once.
type Session struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
	logger    *slog.Logger
}

// Start begins CPU profiling and tracing as requested. Snapshots are
// written by Stop.
func Start(opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{opts: opts, logger: logger}

	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, fmt.Errorf("create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("start CPU profile: %w", err)
		}
		s.cpuFile = f
	}

	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("create trace file: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopCPU()
			return nil, fmt.Errorf("start trace: %w", err)
		}
		s.traceFile = f
	}

	return s, nil
}

// Stop ends CPU profiling and tracing, then writes the heap and goroutine
// snapshots. It returns every error encountered.
func (s *Session) Stop() error {
	var errs []error
	if err := s.stopCPU(); err != nil {
		errs = append(errs, err)
	}
	if s.traceFile != nil {
		trace.Stop()
		if err := s.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trace: %w", err))
		}
		s.traceFile = nil
	}

	if s.opts.Heap != "" {
		// Heap profiles report as of the last GC.
		runtime.GC()
		if err := writeProfile("heap", s.opts.Heap, 0); err != nil {
			errs = append(errs, err)
		}
	}
	if s.opts.Goroutine != "" {
		if err := writeProfile("goroutine", s.opts.Goroutine, 1); err != nil {
			errs = append(errs, err)
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s.logger.Debug("profile_written",
		slog.String("cpu", s.opts.CPU),
		slog.String("heap", s.opts.Heap),
		slog.String("trace", s.opts.Trace),
		slog.String("goroutine", s.opts.Goroutine),
		slog.String("heap_alloc", humanize.IBytes(m.HeapAlloc)),
		slog.String("total_alloc", humanize.IBytes(m.TotalAlloc)),
		slog.Int("goroutines", runtime.NumGoroutine()))

	return errors.Join(errs...)
}

func (s *Session) stopCPU() error {
	if s.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := s.cpuFile.Close()
	s.cpuFile = nil
	if err != nil {
		return fmt.Errorf("close CPU profile: %w", err)
	}
	return nil
}

func writeProfile(name, path string, debug int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s profile: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	if err := pprof.Lookup(name).WriteTo(f, debug); err != nil {
		return fmt.Errorf("write %s profile: %w", name, err)
	}
	return nil
}
