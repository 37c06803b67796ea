package spam

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func at(sec float64) time.Time {
	return epoch.Add(time.Duration(sec * float64(time.Second)))
}

func occ(channel string, sec float64) Occurrence {
	return Occurrence{ChannelID: channel, MessageID: fmt.Sprintf("%s-%v", channel, sec), AuthorID: "U", Time: at(sec)}
}

func TestFingerprint(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("hello|", NewFingerprint("  hello \n", nil).String())
	assert.Equal("|a.png,b.txt", NewFingerprint("", []string{"a.png", "b.txt"}).String())
	assert.Equal(NewFingerprint("hi", nil), NewFingerprint(" hi", nil))
	assert.NotEqual(NewFingerprint("hi", []string{"x"}), NewFingerprint("hi", nil))
}

func TestTrackerScenario(t *testing.T) {
	assert := assert.New(t)
	tr := NewTracker(3, 60*time.Second)
	fp := NewFingerprint("hello", nil)

	assert.False(tr.Observe(fp, occ("A", 0)).Flagged)
	assert.False(tr.Observe(fp, occ("B", 10)).Flagged)

	d := tr.Observe(fp, occ("C", 50))
	assert.True(d.Flagged)
	assert.Equal([]Occurrence{occ("A", 0), occ("B", 10), occ("C", 50)}, d.Occurrences)
	assert.Equal(0, tr.Len())

	// fresh bucket after the flag
	assert.False(tr.Observe(fp, occ("D", 200)).Flagged)
	assert.False(tr.Observe(fp, occ("E", 230)).Flagged)
	assert.True(tr.Observe(fp, occ("F", 259)).Flagged)
}

func TestTrackerNewBurstRetriggers(t *testing.T) {
	assert := assert.New(t)
	tr := NewTracker(2, time.Minute)
	fp := NewFingerprint("buy now", []string{"scam.png"})

	flags := 0
	for i := 0; i < 6; i++ {
		if tr.Observe(fp, occ(fmt.Sprintf("C%d", i), float64(i))).Flagged {
			flags++
		}
	}
	assert.Equal(3, flags)
}

func TestTrackerWindowBoundary(t *testing.T) {
	assert := assert.New(t)
	tr := NewTracker(2, 60*time.Second)

	// exactly window old: excluded
	fp := NewFingerprint("a", nil)
	tr.Observe(fp, occ("A", 0))
	assert.False(tr.Observe(fp, occ("B", 60)).Flagged)

	// just inside the window: included
	fp = NewFingerprint("b", nil)
	tr.Observe(fp, occ("A", 0))
	assert.True(tr.Observe(fp, occ("B", 59.999)).Flagged)
}

func TestTrackerSameChannelDoesNotCount(t *testing.T) {
	assert := assert.New(t)
	tr := NewTracker(2, time.Minute)
	fp := NewFingerprint("same", nil)

	for i := 0; i < 10; i++ {
		o := occ("A", float64(i))
		o.AuthorID = fmt.Sprintf("U%d", i)
		assert.False(tr.Observe(fp, o).Flagged)
	}
	assert.Equal(1, tr.Len())
}

func TestTrackerDifferentAuthorsShareBucket(t *testing.T) {
	tr := NewTracker(2, time.Minute)
	fp := NewFingerprint("raid", nil)

	a := occ("A", 0)
	a.AuthorID = "U1"
	b := occ("B", 1)
	b.AuthorID = "U2"

	tr.Observe(fp, a)
	d := tr.Observe(fp, b)
	assert.True(t, d.Flagged)
	assert.Len(t, d.Occurrences, 2)
}

func TestTrackerEmptyFingerprint(t *testing.T) {
	tr := NewTracker(2, time.Minute)
	fp := NewFingerprint("", nil)

	tr.Observe(fp, occ("A", 0))
	assert.True(t, tr.Observe(fp, occ("B", 1)).Flagged)
}

func TestTrackerSweep(t *testing.T) {
	assert := assert.New(t)
	tr := NewTracker(5, time.Minute)

	tr.Observe(NewFingerprint("old", nil), occ("A", 0))
	tr.Observe(NewFingerprint("new", nil), occ("A", 100))
	assert.Equal(2, tr.Len())

	assert.Equal(1, tr.Sweep(at(120)))
	assert.Equal(1, tr.Len())
	assert.Equal(1, tr.Sweep(at(160)))
	assert.Equal(0, tr.Len())
}

func TestTrackerConcurrentFlagsOnce(t *testing.T) {
	tr := NewTracker(5, time.Minute)
	fp := NewFingerprint("burst", nil)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		flags int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if tr.Observe(fp, occ(fmt.Sprintf("C%d", i), 1)).Flagged {
				mu.Lock()
				flags++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, flags)
	assert.Equal(t, 0, tr.Len())
}
