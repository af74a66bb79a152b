package ccd

import (
	"context"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestSession(t *testing.T, seed uint64, pol SeedPolicy) *Session {
	t.Helper()
	pl, err := NewPipeline(mustPreset(t, "KAF-6303"), DefaultParams())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return NewSession(pl, seed, pol)
}

func TestSessionSeeds(t *testing.T) {
	img := gradientImage(image.Rect(0, 0, 16, 12))
	ctx := context.Background()

	tests := []struct {
		pol       SeedPolicy
		wantSeeds []uint64
	}{
		{SeedFixed, []uint64{10, 10, 10}},
		{SeedAdvance, []uint64{10, 11, 12}},
	}
	for _, tc := range tests {
		t.Run(tc.pol.String(), func(t *testing.T) {
			sess := newTestSession(t, 10, tc.pol)
			var seeds []uint64
			var results []*SessionResult
			for range tc.wantSeeds {
				res, err := sess.Render(ctx, img)
				if err != nil {
					t.Fatalf("Render: %v", err)
				}
				seeds = append(seeds, res.Seed)
				results = append(results, res)
			}
			if diff := cmp.Diff(tc.wantSeeds, seeds); diff != "" {
				t.Errorf("seeds (-want +got):\n%s", diff)
			}

			same := cmp.Equal(results[0].RGB.Pix, results[1].RGB.Pix)
			if tc.pol == SeedFixed && !same {
				t.Errorf("fixed seed renders differ")
			}
			if tc.pol == SeedAdvance && same {
				t.Errorf("advancing seed renders are identical")
			}
		})
	}
}

func TestSessionGenerations(t *testing.T) {
	img := gradientImage(image.Rect(0, 0, 8, 8))
	sess := newTestSession(t, 3, SeedAdvance)

	r1, err := sess.Render(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	if !sess.IsCurrent(r1.Generation) {
		t.Errorf("only render is not current")
	}
	r2, err := sess.Render(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	if sess.IsCurrent(r1.Generation) || !sess.IsCurrent(r2.Generation) {
		t.Errorf("generation %d should have replaced %d", r2.Generation, r1.Generation)
	}

	sess.Reset()
	r3, err := sess.Render(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	if r3.Seed != 3 {
		t.Errorf("seed after reset %d, want 3", r3.Seed)
	}
	if r3.Generation <= r2.Generation {
		t.Errorf("generation went backwards after reset")
	}
}
