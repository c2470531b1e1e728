// Package bgpline parses bgpdump's TABLE_DUMP2 text export of an MRT RIB
// dump into (prefix, AS-path) pairs, the observed-route input the
// compliance driver checks against RPSL policy (spec.md §6). Line
// scanning follows the teacher's bufio.Scanner/strings.Fields idiom
// (readers.go), adapted from whitespace-delimited files to bgpdump's
// pipe-delimited TABLE_DUMP2 format.
package bgpline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rpslverify/rpslverify/internal/ingest"
)

// Route is one parsed RIB entry: the advertised prefix and the AS path
// that reached it, origin-to-destination order reversed to match
// bgpdump's left-to-right-from-collector convention (spec.md §6: the
// compliance driver walks pairs right-to-left, i.e. from origin toward
// the observer).
type Route struct {
	Prefix string
	AsPath []PathEntry
}

// PathEntryKind tags the two forms an AS-path token can take (spec.md
// §6: "AS-path tokens are integers or {a,b,…} indicating an AS-set").
type PathEntryKind int

const (
	PathEntrySeq PathEntryKind = iota // a concrete AS number
	PathEntrySet                     // an unresolved {a,b,c} aggregation token
)

// PathEntry is one token of an observed AS-path: either a concrete AS
// (Seq) or an inline AS-set aggregation token (Set), preserved rather
// than collapsed so the compliance driver can still recognize and
// report on it (spec.md §4.7 steps 1/6).
type PathEntry struct {
	Kind    PathEntryKind
	As      uint32   // valid when Kind == PathEntrySeq
	Members []uint32 // valid when Kind == PathEntrySet
}

func Seq(as uint32) PathEntry { return PathEntry{Kind: PathEntrySeq, As: as} }

func SetEntry(members []uint32) PathEntry {
	return PathEntry{Kind: PathEntrySet, Members: members}
}

// Representative is the concrete AS number used wherever a path entry
// must stand in for a single AS (hop endpoints, filter matching): the
// entry itself for Seq, or the aggregation token's first member for
// Set — the set's own ordering carries no further meaning here.
func (p PathEntry) Representative() uint32 {
	if p.Kind == PathEntrySeq {
		return p.As
	}
	if len(p.Members) > 0 {
		return p.Members[0]
	}
	return 0
}

// Equal reports whether p and o are the same path token, used to
// dedupe consecutive AS-path repeats without losing a Set token.
func (p PathEntry) Equal(o PathEntry) bool {
	if p.Kind != o.Kind {
		return false
	}
	if p.Kind == PathEntrySeq {
		return p.As == o.As
	}
	if len(p.Members) != len(o.Members) {
		return false
	}
	for i, m := range p.Members {
		if o.Members[i] != m {
			return false
		}
	}
	return true
}

// ParseLine parses a single TABLE_DUMP2 line. Non-"B" (non-best-path/
// RIB-entry) lines and comments are skipped by returning ok=false with
// a nil error, the same "skip, don't fail the whole scan" policy the
// teacher's line readers apply to blank/comment lines.
func ParseLine(line string) (route Route, ok bool, err error) {
	if line == "" || strings.HasPrefix(line, "#") {
		return Route{}, false, nil
	}
	fields := strings.Split(line, "|")
	if len(fields) < 7 || fields[0] != "TABLE_DUMP2" {
		return Route{}, false, nil
	}
	if fields[2] != "B" {
		return Route{}, false, nil
	}

	prefix := fields[5]
	path, err := parseAsPath(fields[6])
	if err != nil {
		return Route{}, false, fmt.Errorf("bgpline: %w", err)
	}
	if len(path) == 0 {
		return Route{}, false, nil
	}
	return Route{Prefix: prefix, AsPath: path}, true, nil
}

// parseAsPath tokenizes a space-separated AS-path field and dedupes
// consecutive repeats (prepending/AS-path-padding artifacts, spec.md
// §4.7). A {a,b,c} AS-SET aggregation token — which bgpdump emits when
// multiple ASes aggregate a route — is preserved as a PathEntrySet
// rather than resolved to a single member, so the compliance driver
// can still recognize and report on it (spec.md §4.7 steps 1/6).
func parseAsPath(field string) ([]PathEntry, error) {
	tokens := strings.Fields(field)
	var path []PathEntry
	var prev PathEntry
	havePrev := false
	for _, tok := range tokens {
		var entry PathEntry
		if strings.HasPrefix(tok, "{") {
			members, err := parseAsSetToken(tok)
			if err != nil {
				return nil, err
			}
			entry = SetEntry(members)
		} else {
			asn, err := strconv.ParseUint(tok, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid AS-path token %q: %w", tok, err)
			}
			entry = Seq(uint32(asn))
		}
		if havePrev && prev.Equal(entry) {
			continue
		}
		path = append(path, entry)
		prev = entry
		havePrev = true
	}
	return path, nil
}

func parseAsSetToken(tok string) ([]uint32, error) {
	tok = strings.Trim(tok, "{}")
	var members []uint32
	for _, m := range strings.Split(tok, ",") {
		asn, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid AS-set token member %q: %w", m, err)
		}
		members = append(members, uint32(asn))
	}
	return members, nil
}

// ParseFile streams every route out of a (possibly compressed)
// TABLE_DUMP2 export via fn, stopping at the first hard parse error.
func ParseFile(filename string, fn func(Route)) error {
	r := ingest.NewCompressedReader(filename)
	if err := r.Open(); err != nil {
		return err
	}
	defer r.Close()

	scanner := r.Scanner()
	for scanner.Scan() {
		route, ok, err := ParseLine(scanner.Text())
		if err != nil {
			return err
		}
		if ok {
			fn(route)
		}
	}
	return scanner.Err()
}
