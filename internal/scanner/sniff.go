package scanner

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Sniff classifies file content by magic bytes first, falling back to the
// file extension for content the header alone cannot settle. Returns
// FormatUnknown when neither identifies the file.
func Sniff(head []byte, name string) domain.Format {
	if len(head) >= 4 && head[0] == 'P' && head[1] == 'K' {
		switch {
		case head[2] == 3 && head[3] == 4, // local file header
			head[2] == 5 && head[3] == 6, // empty archive
			head[2] == 7 && head[3] == 8: // spanned archive
			return domain.FormatZip
		}
	}
	if len(head) >= 2 && head[0] == 0x1f && head[1] == 0x8b {
		return domain.FormatGzip
	}

	trimmed := bytes.TrimPrefix(head, utf8BOM)
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return domain.FormatJSON
	}

	if looksDelimited(trimmed) {
		return domain.FormatCSV
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", ".tsv":
		if len(trimmed) == 0 || isText(trimmed) {
			return domain.FormatCSV
		}
	case ".json", ".jsonl", ".ndjson":
		return domain.FormatJSON
	}
	return domain.FormatUnknown
}

// looksDelimited reports whether the first line is printable text containing
// a field delimiter.
func looksDelimited(head []byte) bool {
	if len(head) == 0 || !isText(head) {
		return false
	}
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	return bytes.ContainsAny(line, ",;\t")
}

// isText reports whether the sample is free of NUL and other bytes that do
// not appear in delimited text exports.
func isText(sample []byte) bool {
	for _, b := range sample {
		if b == 0 {
			return false
		}
		if b < 0x09 { // control chars below tab
			return false
		}
	}
	return true
}
