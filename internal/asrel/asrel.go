// Package asrel loads CAIDA AS-relationship files (the
// "<provider-as>|<customer-as>|-1" / "<peer-as>|<peer-as>|0" format)
// into a relationship.Table, grounded on the teacher's read_as_rel
// (caida_file_readers.go), generalized from string AS numbers to
// uint32 and from a bare map to package relationship's Kind enum.
package asrel

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	pool "github.com/Emeline-1/pool"

	"github.com/rpslverify/rpslverify/internal/relationship"
)

// LoadFile parses a single CAIDA as-rel file (optionally gzip/bzip2
// compressed, detected by extension) into per-AS neighbor maps.
func LoadFile(filename string) (map[uint32]map[uint32]relationship.Kind, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("asrel: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch filepath.Ext(filename) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("asrel: %w", err)
		}
		defer gz.Close()
		r = gz
	case ".bz2":
		r = bzip2.NewReader(f)
	}

	neighbors := make(map[uint32]map[uint32]relationship.Kind)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "#") || line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 3 {
			continue
		}
		a, okA := parseASN(fields[0])
		b, okB := parseASN(fields[1])
		if !okA || !okB {
			log.Println("asrel: skipping line with unparsable AS number:", line)
			continue
		}
		switch fields[2] {
		case "0":
			setRelationship(neighbors, a, b, relationship.P2P)
			setRelationship(neighbors, b, a, relationship.P2P)
		case "-1":
			setRelationship(neighbors, a, b, relationship.P2C)
			setRelationship(neighbors, b, a, relationship.C2P)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("asrel: %w", err)
	}
	return neighbors, nil
}

// LoadDir loads every as-rel file under dir in parallel (spec.md §5:
// ingest fans out across files); each worker merges its per-file result
// into the shared table under a mutex as soon as it finishes.
func LoadDir(dir string) (*relationship.Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("asrel: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	var mu sync.Mutex
	merged := make(map[uint32]map[uint32]relationship.Kind)
	var firstErr error

	worker := func(path string) {
		part, err := LoadFile(path)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		for as, rels := range part {
			if merged[as] == nil {
				merged[as] = make(map[uint32]relationship.Kind)
			}
			for neighbor, k := range rels {
				merged[as][neighbor] = k
			}
		}
	}
	pool.Launch_pool(16, files, worker)

	if firstErr != nil {
		return nil, firstErr
	}
	return relationship.New(merged), nil
}

func setRelationship(m map[uint32]map[uint32]relationship.Kind, as, neighbor uint32, k relationship.Kind) {
	if m[as] == nil {
		m[as] = make(map[uint32]relationship.Kind)
	}
	m[as][neighbor] = k
}

func parseASN(s string) (uint32, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(s), "AS"))
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
