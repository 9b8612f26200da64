package scanner

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// source identifies one openable blob: a plain file, or an entry reached
// through a chain of zip containers, with an optional gzip unwrap at either
// end. Opening replays the chain from disk, so RawFile sequences built on
// sources are restartable without buffering file bodies across the run.
type source struct {
	path    string   // filesystem path of the outermost file
	gzOuter bool     // outermost file is gzip-compressed (a .zip.gz)
	chain   []string // zip entry names, outermost container first
	gunzip  bool     // decompress the target stream through gzip
}

// logical returns the descriptor path, container entries joined with "!".
func (s source) logical() string {
	if len(s.chain) == 0 {
		return s.path
	}
	return s.path + "!" + strings.Join(s.chain, "!")
}

// child returns the source for an entry inside this zip source. A gzipped
// zip nested inside another container cannot be replayed lazily; ok is false
// for that shape and the caller skips it.
func (s source) child(entry string) (source, bool) {
	if s.gunzip && len(s.chain) > 0 {
		return source{}, false
	}
	chain := make([]string, 0, len(s.chain)+1)
	chain = append(chain, s.chain...)
	return source{
		path:    s.path,
		gzOuter: s.gzOuter || s.gunzip,
		chain:   append(chain, entry),
	}, true
}

// open returns a reader over the source's (decompressed) bytes. Intermediate
// containers are buffered in memory, each capped at maxBytes.
func (s source) open(maxBytes int64) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}

	if len(s.chain) == 0 {
		if !s.gunzip {
			return f, nil
		}
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &chainReader{r: zr, closers: []io.Closer{zr, f}}, nil
	}

	var (
		ra      io.ReaderAt
		size    int64
		closers []io.Closer
	)
	if s.gzOuter {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		data, err := readCapped(gz, maxBytes)
		gz.Close()
		f.Close()
		if err != nil {
			return nil, err
		}
		ra, size = bytes.NewReader(data), int64(len(data))
	} else {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		ra, size = f, info.Size()
		closers = append(closers, f)
	}

	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	for i, name := range s.chain {
		zr, err := zip.NewReader(ra, size)
		if err != nil {
			closeAll()
			return nil, err
		}
		entry := findEntry(zr, name)
		if entry == nil {
			closeAll()
			return nil, fmt.Errorf("entry %q vanished from %s", name, s.path)
		}
		rc, err := entry.Open()
		if err != nil {
			closeAll()
			return nil, err
		}

		if i == len(s.chain)-1 {
			closers = append([]io.Closer{rc}, closers...)
			if !s.gunzip {
				return &chainReader{r: rc, closers: closers}, nil
			}
			gz, err := gzip.NewReader(rc)
			if err != nil {
				for _, c := range closers {
					c.Close()
				}
				return nil, err
			}
			return &chainReader{r: gz, closers: append([]io.Closer{gz}, closers...)}, nil
		}

		// Intermediate container: buffer so the next level has random access.
		data, err := readCapped(rc, maxBytes)
		rc.Close()
		if err != nil {
			closeAll()
			return nil, err
		}
		ra = bytes.NewReader(data)
		size = int64(len(data))
	}

	closeAll()
	return nil, fmt.Errorf("empty container chain for %s", s.path)
}

func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// readCapped reads r fully, failing once more than maxBytes come out. Guards
// against containers whose entries decompress far beyond their declared size.
func readCapped(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("entry exceeds %d byte extraction cap", maxBytes)
	}
	return data, nil
}

// chainReader bundles a reader with the container handles beneath it.
type chainReader struct {
	r       io.Reader
	closers []io.Closer
}

func (c *chainReader) Read(p []byte) (int, error) { return c.r.Read(p) }

func (c *chainReader) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
