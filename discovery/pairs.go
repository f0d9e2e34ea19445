package discovery

import (
	"context"
	"fmt"
	"strconv"
)

// Pair associates the low- and high-quality variants of one index.
// Low is always set on a resolved pair; High may be empty.
type Pair struct {
	Low  AssetRef `json:"low" yaml:"low"`
	High AssetRef `json:"high,omitempty" yaml:"high,omitempty"`
}

// Single wraps a plain asset as a pair with no high-quality variant.
func Single(ref AssetRef) Pair {
	return Pair{Low: ref}
}

// Best returns the high-quality variant when known, else the low one.
func (p Pair) Best() AssetRef {
	if p.High != "" {
		return p.High
	}
	return p.Low
}

// ResolvePair probes the low-quality conventions and the canonical path
// for index i independently. When only the canonical asset exists it is
// used as the low variant too. ok is false only when neither resolves.
func (d *Discoverer) ResolvePair(ctx context.Context, folder string, i int) (Pair, bool) {
	var low AssetRef
	for _, pattern := range LowQualityPatterns {
		if ref, ok := d.first(ctx, folder, fmt.Sprintf(pattern, i)); ok {
			low = ref
			break
		}
	}
	high, hasHigh := d.first(ctx, folder, strconv.Itoa(i))
	switch {
	case low != "" && hasHigh:
		return Pair{Low: low, High: high}, true
	case low != "":
		return Pair{Low: low}, true
	case hasHigh:
		return Pair{Low: high, High: high}, true
	}
	return Pair{}, false
}

// DiscoverPairs resolves pairs for indices 1..Limit(hint), stopping at the
// first index where neither variant resolves.
func (d *Discoverer) DiscoverPairs(ctx context.Context, folder string, hint int) []Pair {
	limit := d.Limit(hint)
	var found []Pair
	for i := 1; i <= limit; i++ {
		if ctx.Err() != nil {
			break
		}
		p, ok := d.ResolvePair(ctx, folder, i)
		if !ok {
			break
		}
		found = append(found, p)
	}
	d.logger().Debugf("discovery: %s: %d pairs (limit=%d)", folder, len(found), limit)
	return found
}

// Singles converts plain assets to pairs without a high variant.
func Singles(refs []AssetRef) []Pair {
	out := make([]Pair, len(refs))
	for i, r := range refs {
		out[i] = Single(r)
	}
	return out
}
