package domain_test

import (
	"testing"

	"timekit/internal/modules/timer/domain"
)

func ms(v int64) *int64 { return &v }

func TestElapsedAndRemaining(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name      string
		startedAt *int64
		acc       int64
		now       int64
		want      int64
	}{
		{"idle", nil, 0, 10_000, 0},
		{"paused keeps accumulation", nil, 4_000, 99_000, 4_000},
		{"running", ms(1_000), 0, 6_000, 5_000},
		{"running after pauses", ms(10_000), 2_500, 12_000, 4_500},
		{"clock regression clamps", ms(50_000), 1_000, 40_000, 1_000},
	}
	for _, tc := range cases {
		if got := domain.Elapsed(tc.startedAt, tc.acc, tc.now); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
	if got := domain.Remaining(600_000, 2_000); got != 598_000 {
		t.Fatalf("expected 598000 remaining, got %d", got)
	}
	if got := domain.Remaining(1_000, 5_000); got != 0 {
		t.Fatalf("remaining must clamp at zero, got %d", got)
	}
}

func TestElapsedIsMonotonicAndAtLeastAccumulated(t *testing.T) {
	t.Parallel()
	start := int64(1_700_000_000_000)
	for _, acc := range []int64{0, 1, 999, 60_000} {
		prev := int64(-1)
		for now := start; now < start+5_000; now += 37 {
			got := domain.Elapsed(&start, acc, now)
			if got < acc {
				t.Fatalf("elapsed %d below accumulated %d", got, acc)
			}
			if got < prev {
				t.Fatalf("elapsed decreased from %d to %d at now=%d", prev, got, now)
			}
			prev = got
		}
	}
}
