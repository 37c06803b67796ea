package spam

import (
	"strings"
	"sync"
	"time"
)

// Fingerprint - Duplicate posting key, content based and not author based.
// Identical text from different accounts lands in the same bucket.
type Fingerprint struct {
	Content     string
	Attachments string
}

// NewFingerprint - Trim the content and join attachment filenames with commas
func NewFingerprint(content string, attachmentNames []string) Fingerprint {
	return Fingerprint{
		Content:     strings.TrimSpace(content),
		Attachments: strings.Join(attachmentNames, ","),
	}
}

// String - "content|attachments"
func (f Fingerprint) String() string {
	return f.Content + "|" + f.Attachments
}

// Occurrence - One observed posting of a fingerprint
type Occurrence struct {
	ChannelID string
	MessageID string
	AuthorID  string
	Time      time.Time
}

// Decision - Result of observing an occurrence. Occurrences is only set
// when Flagged is true and holds the whole burst in arrival order
type Decision struct {
	Flagged     bool
	Occurrences []Occurrence
}

// Tracker - One time-ordered bucket per fingerprint
type Tracker struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	buckets   map[Fingerprint][]Occurrence
}

// NewTracker - Flag a fingerprint once it reaches threshold distinct channels within window
func NewTracker(threshold int, window time.Duration) *Tracker {
	return &Tracker{
		threshold: threshold,
		window:    window,
		buckets:   make(map[Fingerprint][]Occurrence),
	}
}

// Observe - Prune the bucket relative to occ.Time, append occ and count distinct channels.
// Reaching the threshold flags the burst and drops the bucket, so the same burst is
// never flagged twice. The whole sequence runs under one lock.
func (t *Tracker) Observe(fp Fingerprint, occ Occurrence) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket := t.prune(t.buckets[fp], occ.Time)
	bucket = append(bucket, occ)

	channels := make(map[string]struct{}, len(bucket))
	for _, o := range bucket {
		channels[o.ChannelID] = struct{}{}
	}

	if len(channels) >= t.threshold {
		delete(t.buckets, fp)
		return Decision{Flagged: true, Occurrences: bucket}
	}

	t.buckets[fp] = bucket
	return Decision{}
}

// prune - Keep occurrences strictly younger than the window, exactly window old is dropped
func (t *Tracker) prune(bucket []Occurrence, now time.Time) []Occurrence {
	kept := bucket[:0]
	for _, o := range bucket {
		if now.Sub(o.Time) < t.window {
			kept = append(kept, o)
		}
	}
	return kept
}

// Sweep - Drop buckets that are empty after pruning against now, returns the number removed
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for fp, bucket := range t.buckets {
		bucket = t.prune(bucket, now)
		if len(bucket) == 0 {
			delete(t.buckets, fp)
			removed++
			continue
		}
		t.buckets[fp] = bucket
	}
	return removed
}

// Len - Number of live buckets
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}
