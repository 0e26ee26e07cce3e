// Package smoke holds the histogram and event round-trip checks run by
// cmd/testrootio and the package tests.
package smoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/hepio"
	"github.com/hupe1980/hepio/event"
	"github.com/hupe1980/hepio/hist"
	"github.com/hupe1980/hepio/random"
	"github.com/hupe1980/hepio/tree"
)

const (
	// DefaultFile is the file written by the event round trip.
	DefaultFile = "testevents.root"
	// TreeName is the name of the event tree.
	TreeName = "tree"
	// BranchName is the name of the event branch.
	BranchName = "events"
)

// ErrCheckFailed is wrapped by every failed check.
var ErrCheckFailed = errors.New("testrootio FAILED")

// Check returns an error carrying msg when cond is false.
func Check(cond bool, msg string) error {
	if cond {
		return nil
	}
	return fmt.Errorf("%w : %s", ErrCheckFailed, msg)
}

// Momentum is the four-momentum given to every written particle.
var Momentum = event.LorentzVector{X: 1, Y: 2, Z: 3, T: 4}

// CheckHistogram fills a histogram with n samples of fname and checks
// that it counts n entries.
func CheckHistogram(fname string, n int, rng *random.RNG) error {
	h, err := hist.NewH1F("h1", "smoke test histogram", 100, -4, 4)
	if err != nil {
		return err
	}
	if err := h.FillRandom(fname, n, rng); err != nil {
		return err
	}
	return Check(h.Entries() == int64(n), fmt.Sprintf("histogram has %d entries, want %d", h.Entries(), n))
}

// CreateEventsFile writes events Events with particles Particles each to
// the branch "events" of tree "tree" in a new file at path.
func CreateEventsFile(ctx context.Context, path string, events, particles int, opts ...hepio.Option) (err error) {
	f, err := hepio.Create(ctx, path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	t := tree.New(f, TreeName, "smoke test events")
	var evt event.Event
	if _, err := t.Branch(BranchName, &evt); err != nil {
		return err
	}

	for i := 0; i < events; i++ {
		evt = event.Event{}
		for j := 0; j < particles; j++ {
			evt.Add(event.Particle{ID: int32(j), P4: Momentum})
		}
		if _, err := t.Fill(ctx); err != nil {
			return err
		}
	}
	_, err = t.Write(ctx)
	return err
}

// VerifyEventsFile reads the file written by CreateEventsFile twice, once
// through SetBranchAddress and GetEntry and once through a tree.Reader,
// and checks every record.
func VerifyEventsFile(ctx context.Context, path string, events, particles int, opts ...hepio.Option) error {
	f, err := hepio.Open(ctx, path, opts...)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := event.Load(f.Registry()); err != nil {
		return err
	}
	t, err := tree.Open(ctx, f, TreeName)
	if err != nil {
		return err
	}
	if err := Check(t.Entries() == int64(events), fmt.Sprintf("tree has %d entries, want %d", t.Entries(), events)); err != nil {
		return err
	}

	var evt event.Event
	if err := t.SetBranchAddress(BranchName, &evt); err != nil {
		return err
	}
	for i := int64(0); i < t.Entries(); i++ {
		if _, err := t.GetEntry(ctx, i); err != nil {
			return err
		}
		if err := checkEvent(i, &evt, particles); err != nil {
			return err
		}
	}

	r := tree.NewReader(t)
	v := tree.NewValue[event.Event](r, BranchName)
	n := 0
	for r.Next(ctx) {
		if err := Check(v.SetupStatus() == tree.SetupMatch, fmt.Sprintf("setup status %d", v.SetupStatus())); err != nil {
			return err
		}
		if err := checkEvent(r.CurrentEntry(), v.Get(), particles); err != nil {
			return err
		}
		n++
	}
	if err := r.Err(); err != nil {
		return err
	}
	return Check(n == events, fmt.Sprintf("read %d records, wrote %d", n, events))
}

func checkEvent(entry int64, evt *event.Event, particles int) error {
	if err := Check(len(evt.Particles) == particles, fmt.Sprintf("entry %d has %d particles, want %d", entry, len(evt.Particles), particles)); err != nil {
		return err
	}
	for j, p := range evt.Particles {
		if err := Check(p.ID == int32(j), fmt.Sprintf("entry %d particle %d has id %d", entry, j, p.ID)); err != nil {
			return err
		}
		if err := Check(p.P4 == Momentum, fmt.Sprintf("entry %d particle %d has momentum %+v, want %+v", entry, j, p.P4, Momentum)); err != nil {
			return err
		}
	}
	return nil
}

// Run performs the histogram check and the event round trip.
func Run(ctx context.Context, path string, events, particles int, opts ...hepio.Option) error {
	if err := CheckHistogram("gaus", 10000, nil); err != nil {
		return err
	}
	if err := CreateEventsFile(ctx, path, events, particles, opts...); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := VerifyEventsFile(ctx, path, events, particles, opts...); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
