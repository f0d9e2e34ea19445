package discovery

import (
	"context"
	"fmt"
	"path"
	"strconv"
)

// DefaultSafetyCap is the highest index ever probed for one folder.
const DefaultSafetyCap = 50

// DefaultExtensions lists candidate extensions, compressed formats first.
var DefaultExtensions = []string{".webp", ".jpg", ".jpeg", ".png"}

// LowQualityPatterns are the naming conventions tried for low-quality
// variants. %d is the asset index.
var LowQualityPatterns = []string{"%d-sm", "%d_sm", "sm/%d", "thumbs/%d"}

// GapPolicy decides when a run of missing indices ends discovery.
type GapPolicy struct {
	Name string
	// MaxMisses is the number of consecutive missed indices that stops
	// the scan. Strict uses 1.
	MaxMisses int
	// MinScanned is how many indices must have been scanned before a run
	// of misses may stop the scan.
	MinScanned int
}

// Strict stops at the first index with no asset.
func Strict() GapPolicy {
	return GapPolicy{Name: "strict", MaxMisses: 1, MinScanned: 0}
}

// Tolerant stops after three consecutive misses once two indices have been
// scanned.
func Tolerant() GapPolicy {
	return GapPolicy{Name: "tolerant", MaxMisses: 3, MinScanned: 2}
}

// ParseGapPolicy maps a configured name to a policy.
func ParseGapPolicy(name string) (GapPolicy, error) {
	switch name {
	case "", "strict":
		return Strict(), nil
	case "tolerant":
		return Tolerant(), nil
	}
	return GapPolicy{}, fmt.Errorf("discovery: unknown gap policy %q", name)
}

func (g GapPolicy) stop(misses, scanned int) bool {
	max := g.MaxMisses
	if max < 1 {
		max = 1
	}
	return misses >= max && scanned >= g.MinScanned
}

// Discoverer walks indices 1..N of a folder and probes each candidate in
// turn, awaiting every probe before issuing the next.
type Discoverer struct {
	Prober     Prober
	Root       string // e.g. "imgs"
	Extensions []string
	Policy     GapPolicy
	SafetyCap  int
	Log        Logger
}

// NewDiscoverer returns a Discoverer with default extensions, strict gap
// policy and the default safety cap.
func NewDiscoverer(p Prober, root string) *Discoverer {
	return &Discoverer{
		Prober:     p,
		Root:       root,
		Extensions: DefaultExtensions,
		Policy:     Strict(),
		SafetyCap:  DefaultSafetyCap,
	}
}

func (d *Discoverer) logger() Logger {
	if d.Log == nil {
		return nopLogger{}
	}
	return d.Log
}

func (d *Discoverer) extensions() []string {
	if len(d.Extensions) == 0 {
		return DefaultExtensions
	}
	return d.Extensions
}

// Limit returns the highest index probed for the given count hint.
// A hint of zero or less means no hint.
func (d *Discoverer) Limit(hint int) int {
	safety := d.SafetyCap
	if safety <= 0 {
		safety = DefaultSafetyCap
	}
	if hint <= 0 {
		return safety
	}
	return min(safety, max(1, hint))
}

// candidate builds root/folder/stem+ext.
func (d *Discoverer) candidate(folder, stem, ext string) string {
	return path.Join(d.Root, folder, stem) + ext
}

// first probes stem against every extension and returns the first hit.
func (d *Discoverer) first(ctx context.Context, folder, stem string) (AssetRef, bool) {
	for _, ext := range d.extensions() {
		if ctx.Err() != nil {
			return "", false
		}
		if ref, ok := d.Prober.Probe(ctx, d.candidate(folder, stem, ext)); ok {
			return ref, true
		}
	}
	return "", false
}

// FindFirst probes only index 1, for painting before the full scan.
func (d *Discoverer) FindFirst(ctx context.Context, folder string) (AssetRef, bool) {
	return d.first(ctx, folder, "1")
}

// Discover returns every asset found in index order, applying the gap
// policy and never probing past Limit(hint).
func (d *Discoverer) Discover(ctx context.Context, folder string, hint int) []AssetRef {
	limit := d.Limit(hint)
	var found []AssetRef
	misses := 0
	for i := 1; i <= limit; i++ {
		if ctx.Err() != nil {
			break
		}
		ref, ok := d.first(ctx, folder, strconv.Itoa(i))
		if ok {
			found = append(found, ref)
			misses = 0
			continue
		}
		misses++
		if d.Policy.stop(misses, i) {
			break
		}
	}
	d.logger().Debugf("discovery: %s: %d assets (policy=%s, limit=%d)", folder, len(found), d.Policy.Name, limit)
	return found
}
