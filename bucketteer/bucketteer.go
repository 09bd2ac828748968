// Package bucketteer is an in-memory "might already exist" existence probe
// over content hashes, consulted by the bulk ingestor before it pays for a
// LookupByHashBatch round trip to the store (spec.md §4.7 step 4). It is
// adapted from the teacher's on-disk CID-signature presence index
// (bucketteer/write.go, read.go): the same 2-byte-prefix bucketing, rebuilt
// here as a pure in-memory structure that the bulk ingestor fills with the
// hashes it has flushed during one run, rather than a file format, since the
// substrate has no analogous on-disk artifact to persist between runs.
package bucketteer

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/AHartTN/hypersphere/internal/model"
)

const prefixBuckets = 1 << 16 // top two bytes of the content hash

// Probe is a sorted, bucketed set of content-hash fingerprints. It never
// produces a false negative for a hash it was built from, but may produce
// false positives across different hashes sharing a fingerprint -- exactly
// the "hint, not source of truth" contract spec.md §4.4 assigns the cache.
type Probe struct {
	mu      sync.RWMutex
	buckets [prefixBuckets][]uint64
	sealed  bool
}

// New returns an empty Probe.
func New() *Probe {
	return &Probe{}
}

func prefix(h model.ContentHash) uint16 {
	return uint16(h[0])<<8 | uint16(h[1])
}

func fingerprint(h model.ContentHash) uint64 {
	return xxhash.Sum64(h[:])
}

// Add records hash as present. Safe for concurrent use with every other
// Probe method; it un-seals the probe until the next Seal.
func (p *Probe) Add(hash model.ContentHash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pre := prefix(hash)
	p.buckets[pre] = append(p.buckets[pre], fingerprint(hash))
	p.sealed = false
}

// AddBatch records a batch of hashes, e.g. the result of a store warm-up
// scan or a completed LookupByHashBatch.
func (p *Probe) AddBatch(hashes []model.ContentHash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range hashes {
		pre := prefix(h)
		p.buckets[pre] = append(p.buckets[pre], fingerprint(h))
	}
	p.sealed = false
}

// Seal sorts every bucket so MightContain can binary search it. Call once
// after a batch of Add/AddBatch calls and before the probe is queried from
// multiple goroutines.
func (p *Probe) Seal() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.buckets {
		sort.Slice(p.buckets[i], func(a, b int) bool { return p.buckets[i][a] < p.buckets[i][b] })
	}
	p.sealed = true
}

// MightContain reports whether hash may already be present. A false result
// is authoritative; a true result must still be confirmed against the store.
func (p *Probe) MightContain(hash model.ContentHash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	bucket := p.buckets[prefix(hash)]
	fp := fingerprint(hash)
	if !p.sealed {
		for _, v := range bucket {
			if v == fp {
				return true
			}
		}
		return false
	}
	idx := sort.Search(len(bucket), func(i int) bool { return bucket[i] >= fp })
	return idx < len(bucket) && bucket[idx] == fp
}

// Len returns the total number of fingerprints recorded.
func (p *Probe) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}
