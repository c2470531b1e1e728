// Package ingest adapts the teacher's compressed-file reading idiom
// (readers.go's CompressedReader) to this verifier's inputs, which may
// arrive as gzip/bzip2 compressed, newline-delimited text. Package
// bgpline reads bgpdump AS-path exports through it; package asrel opens
// its as-rel files itself. Nothing here loads files in parallel.
package ingest

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CompressedReader opens a file, transparently decompressing .gz/.bz2
// by extension, and exposes a line scanner — the same three-method
// shape (Open/Scanner/Close) as the teacher's CompressedReader.
type CompressedReader struct {
	filename     string
	fp           io.ReadCloser
	decompressed io.Reader
	gzipCloser   io.ReadCloser
}

func NewCompressedReader(filename string) *CompressedReader {
	return &CompressedReader{filename: filename}
}

func (r *CompressedReader) Open() error {
	fp, err := os.Open(r.filename)
	if err != nil {
		return errors.New("ingest: " + err.Error() + " " + r.filename)
	}
	r.fp = fp

	switch {
	case strings.HasSuffix(r.filename, ".gz"):
		gz, err := gzip.NewReader(fp)
		if err != nil {
			fp.Close()
			return errors.New("ingest: " + err.Error() + " " + r.filename)
		}
		r.gzipCloser = gz
		r.decompressed = gz
	case strings.HasSuffix(r.filename, ".bz2"):
		r.decompressed = bzip2.NewReader(fp)
	default:
		r.decompressed = fp
	}
	return nil
}

func (r *CompressedReader) Scanner() *bufio.Scanner {
	return bufio.NewScanner(r.decompressed)
}

func (r *CompressedReader) Close() {
	if r.gzipCloser != nil {
		r.gzipCloser.Close()
	}
	if r.fp != nil {
		r.fp.Close()
	}
}

// DirFiles lists the regular files directly under dir, sorted, mirroring
// pool.Get_directory_files's contract. Package asrel's LoadDir does its
// own directory listing and does not call it.
func DirFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
