package ir

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// MarshalJSON renders an AddrPfxRange the way it is written in RPSL,
// e.g. "192.0.2.0/24^24-26", rather than spelling out net.IPNet's raw
// byte slices.
func (r AddrPfxRange) MarshalJSON() ([]byte, error) {
	if r.Prefix == nil {
		return json.Marshal("")
	}
	s := r.Prefix.String()
	switch r.Op.Kind {
	case RangeExact:
		// no suffix: matches the prefix exactly
	case RangeLessExcl:
		s += "^-" // strictly more specific than the prefix
	case RangeLessIncl:
		s += "^+" // the prefix itself or more specific
	case RangeBetween:
		if r.Op.M == r.Op.N {
			s += fmt.Sprintf("^%d", r.Op.M)
		} else {
			s += fmt.Sprintf("^%d-%d", r.Op.M, r.Op.N)
		}
	}
	return json.Marshal(s)
}

// UnmarshalJSON parses the inverse of MarshalJSON.
func (r *AddrPfxRange) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*r = AddrPfxRange{}
		return nil
	}
	parsed, err := ParseAddrPfxRange(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseAddrPfxRange parses "<prefix>[^<op>]" as written in RPSL filters
// and route-sets (spec.md §3 AddrPfxRange). Supported operators: bare
// (Exact), "^-" (strictly more specific), "^+" (prefix or more specific),
// "^n" (more specific of exactly length n) and "^n-m" (length between n
// and m inclusive).
func ParseAddrPfxRange(s string) (AddrPfxRange, error) {
	prefixText, opText, hasOp := strings.Cut(s, "^")
	_, network, err := net.ParseCIDR(prefixText)
	if err != nil {
		return AddrPfxRange{}, fmt.Errorf("ir: invalid prefix %q: %w", prefixText, err)
	}
	r := AddrPfxRange{Prefix: network}
	if !hasOp {
		return r, nil
	}
	switch {
	case opText == "-":
		r.Op = RangeOp{Kind: RangeLessExcl}
	case opText == "+":
		r.Op = RangeOp{Kind: RangeLessIncl}
	case strings.Contains(opText, "-"):
		lo, hi, _ := strings.Cut(opText, "-")
		m, err1 := strconv.Atoi(lo)
		n, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			return AddrPfxRange{}, fmt.Errorf("ir: invalid range operator %q", opText)
		}
		r.Op = RangeOp{Kind: RangeBetween, M: m, N: n}
	default:
		n, err := strconv.Atoi(opText)
		if err != nil {
			return AddrPfxRange{}, fmt.Errorf("ir: invalid range operator %q: %w", opText, err)
		}
		r.Op = RangeOp{Kind: RangeBetween, M: n, N: n}
	}
	return r, nil
}

// maxPrefixLen returns 32 for IPv4 prefixes and 128 for IPv6.
func maxPrefixLen(n *net.IPNet) int {
	bits, _ := n.Mask.Size()
	if n.IP.To4() != nil {
		return 32
	}
	_ = bits
	return 128
}

// Contains reports whether p lies inside the range r describes: p's
// network must be a subnet of r.Prefix's network, and p's mask length
// must satisfy r.Op relative to r.Prefix's own mask length (spec.md §8
// property 7).
func (r AddrPfxRange) Contains(p *net.IPNet) bool {
	if r.Prefix == nil || p == nil {
		return false
	}
	if !r.Prefix.Contains(p.IP) {
		return false
	}
	baseLen, _ := r.Prefix.Mask.Size()
	pLen, _ := p.Mask.Size()
	switch r.Op.Kind {
	case RangeExact:
		return pLen == baseLen
	case RangeLessExcl:
		return pLen > baseLen && pLen <= maxPrefixLen(r.Prefix)
	case RangeLessIncl:
		return pLen >= baseLen && pLen <= maxPrefixLen(r.Prefix)
	case RangeBetween:
		return pLen >= r.Op.M && pLen <= r.Op.N
	default:
		return false
	}
}
