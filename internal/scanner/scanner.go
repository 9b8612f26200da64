// Package scanner discovers tabular source files inside input locations,
// descending into zip and gzip containers up to configured depth and
// extracted-size caps. Per-file failures are logged, counted, and skipped;
// the scan itself only fails on context cancellation.
package scanner

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/observability"
)

const sniffLen = 512

// Scanner walks input roots and emits RawFile descriptors.
type Scanner struct {
	maxDepth   int
	maxExtract int64
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Stats summarizes one scan pass.
type Stats struct {
	Emitted int
	Skipped map[string]int
}

// New creates a Scanner with the given archive nesting and extraction caps.
func New(maxDepth int, maxExtractedBytes int64, logger *slog.Logger, metrics *observability.Metrics) *Scanner {
	return &Scanner{
		maxDepth:   maxDepth,
		maxExtract: maxExtractedBytes,
		logger:     logger,
		metrics:    metrics,
	}
}

// Scan enumerates every recognized tabular file under roots, calling emit for
// each. Emission is lazy: file bodies are opened on demand via RawFile.Open.
// Returns early only when ctx is cancelled or emit returns an error.
func (s *Scanner) Scan(ctx context.Context, roots []string, emit func(domain.RawFile) error) (Stats, error) {
	stats := Stats{Skipped: make(map[string]int)}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			s.skip(&stats, domain.SkipScan, &domain.ScanError{Path: root, Err: err})
			continue
		}

		if !info.IsDir() {
			if err := s.scanPath(ctx, root, info.Size(), &stats, emit); err != nil {
				return stats, err
			}
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				s.skip(&stats, domain.SkipScan, &domain.ScanError{Path: path, Err: err})
				return nil
			}
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if !d.Type().IsRegular() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				s.skip(&stats, domain.SkipScan, &domain.ScanError{Path: path, Err: err})
				return nil
			}
			return s.scanPath(ctx, path, fi.Size(), &stats, emit)
		})
		if walkErr != nil {
			return stats, walkErr
		}
	}
	return stats, nil
}

// scanPath classifies one filesystem file and either emits it or descends
// into it as a container.
func (s *Scanner) scanPath(ctx context.Context, path string, size int64, stats *Stats, emit func(domain.RawFile) error) error {
	src := source{path: path}
	head, err := s.readHead(src)
	if err != nil {
		s.skip(stats, domain.SkipScan, &domain.ScanError{Path: path, Err: err})
		return nil
	}

	switch format := Sniff(head, path); format {
	case domain.FormatZip:
		budget := s.maxExtract
		return s.scanZip(ctx, src, 1, &budget, stats, emit)
	case domain.FormatGzip:
		budget := s.maxExtract
		return s.scanGzip(ctx, src, 1, &budget, stats, emit)
	case domain.FormatCSV, domain.FormatJSON:
		return s.emitFile(stats, domain.RawFile{
			Path:   path,
			Format: format,
			Size:   size,
			Open:   s.opener(src),
		}, emit)
	default:
		s.skip(stats, domain.SkipFormat, &domain.FormatError{Path: path})
		return nil
	}
}

// scanZip enumerates a zip container's entries, recursing into nested
// containers. budget is the cumulative extracted-size allowance shared by the
// whole container tree of one top-level archive; exhausting it abandons only
// the current sub-archive.
func (s *Scanner) scanZip(ctx context.Context, src source, depth int, budget *int64, stats *Stats, emit func(domain.RawFile) error) error {
	if depth > s.maxDepth {
		s.skip(stats, domain.SkipResourceLimit, &domain.ResourceLimitError{Path: src.logical(), Limit: "depth"})
		return nil
	}

	zr, closeZip, err := s.openZip(src)
	if err != nil {
		s.skip(stats, domain.SkipScan, &domain.ScanError{Path: src.logical(), Err: err})
		return nil
	}
	defer closeZip()

	for _, entry := range zr.File {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if entry.FileInfo().IsDir() {
			continue
		}

		*budget -= int64(entry.UncompressedSize64)
		if *budget < 0 {
			s.skip(stats, domain.SkipResourceLimit, &domain.ResourceLimitError{Path: src.logical(), Limit: "size"})
			return nil
		}

		esrc, ok := src.child(entry.Name)
		if !ok {
			s.skip(stats, domain.SkipFormat, &domain.FormatError{Path: src.logical() + "!" + entry.Name})
			continue
		}
		head, err := readEntryHead(entry)
		if err != nil {
			s.skip(stats, domain.SkipScan, &domain.ScanError{Path: esrc.logical(), Err: err})
			continue
		}

		switch format := Sniff(head, entry.Name); format {
		case domain.FormatZip:
			if err := s.scanZip(ctx, esrc, depth+1, budget, stats, emit); err != nil {
				return err
			}
		case domain.FormatGzip:
			if err := s.scanGzip(ctx, esrc, depth+1, budget, stats, emit); err != nil {
				return err
			}
		case domain.FormatCSV, domain.FormatJSON:
			if err := s.emitFile(stats, domain.RawFile{
				Path:   esrc.logical(),
				Format: format,
				Size:   int64(entry.UncompressedSize64),
				Depth:  depth,
				Open:   s.opener(esrc),
			}, emit); err != nil {
				return err
			}
		default:
			s.skip(stats, domain.SkipFormat, &domain.FormatError{Path: esrc.logical()})
		}
	}
	return nil
}

// scanGzip classifies the content behind a gzip wrapper. Gzip carries a
// single member, so this emits at most one RawFile (or recurses once for a
// zip-in-gzip).
func (s *Scanner) scanGzip(ctx context.Context, src source, depth int, budget *int64, stats *Stats, emit func(domain.RawFile) error) error {
	if depth > s.maxDepth {
		s.skip(stats, domain.SkipResourceLimit, &domain.ResourceLimitError{Path: src.logical(), Limit: "depth"})
		return nil
	}

	gsrc := src
	gsrc.gunzip = true
	head, err := s.readHead(gsrc)
	if err != nil {
		s.skip(stats, domain.SkipScan, &domain.ScanError{Path: src.logical(), Err: err})
		return nil
	}

	innerName := strings.TrimSuffix(filepath.Base(src.logical()), ".gz")
	switch format := Sniff(head, innerName); format {
	case domain.FormatZip:
		// The gzip wrapper and its payload archive count as one nesting
		// level, so a .zip.gz spends the same depth as a plain .zip.
		return s.scanZip(ctx, gsrc, depth, budget, stats, emit)
	case domain.FormatCSV, domain.FormatJSON:
		return s.emitFile(stats, domain.RawFile{
			Path:   src.logical(),
			Format: format,
			Depth:  depth,
			Open:   s.opener(gsrc),
		}, emit)
	default:
		s.skip(stats, domain.SkipFormat, &domain.FormatError{Path: src.logical()})
		return nil
	}
}

// openZip gives random access to a zip source. The top-level archive is read
// straight from disk; nested archives are buffered under the extraction cap.
func (s *Scanner) openZip(src source) (*zip.Reader, func(), error) {
	if len(src.chain) == 0 && !src.gunzip {
		f, err := os.Open(src.path)
		if err != nil {
			return nil, nil, err
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		zr, err := zip.NewReader(f, info.Size())
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return zr, func() { f.Close() }, nil
	}

	rc, err := src.open(s.maxExtract)
	if err != nil {
		return nil, nil, err
	}
	data, err := readCapped(rc, s.maxExtract)
	rc.Close()
	if err != nil {
		return nil, nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, err
	}
	return zr, func() {}, nil
}

// opener builds a RawFile.Open closure for a source, capping reads of
// intermediate containers at the extraction limit.
func (s *Scanner) opener(src source) func() (io.ReadCloser, error) {
	maxExtract := s.maxExtract
	return func() (io.ReadCloser, error) { return src.open(maxExtract) }
}

func (s *Scanner) readHead(src source) ([]byte, error) {
	rc, err := src.open(s.maxExtract)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return head[:n], nil
}

func readEntryHead(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return head[:n], nil
}

func (s *Scanner) emitFile(stats *Stats, file domain.RawFile, emit func(domain.RawFile) error) error {
	stats.Emitted++
	s.metrics.FilesScanned.Inc()
	s.logger.Debug("source file discovered", "path", file.Path, "format", file.Format, "depth", file.Depth)
	return emit(file)
}

func (s *Scanner) skip(stats *Stats, kind string, err error) {
	stats.Skipped[kind]++
	s.metrics.FilesSkipped.WithLabelValues(kind).Inc()
	s.logger.Warn("skipping source", "reason", kind, "error", err)
}
