package chain

import (
	"errors"
	"math"
	"testing"

	"github.com/Klingon-tech/ots/pkg/types"
)

func TestHeightFromTimestamp_Main(t *testing.T) {
	tests := []struct {
		name string
		ts   uint64
		want uint64
	}{
		{"before genesis", 0, 0},
		{"genesis", MainGenesisTime, 0},
		{"one v1 block", MainGenesisTime + 60, 1},
		{"fork", MainForkTime, MainForkHeight},
		{"after fork", MainForkTime + 1200, MainForkHeight + 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeightFromTimestamp(tt.ts, types.NetworkMain); got != tt.want {
				t.Errorf("HeightFromTimestamp(%d) = %d, want %d", tt.ts, got, tt.want)
			}
		})
	}
}

func TestTimestampFromHeight_Reference(t *testing.T) {
	if got := TimestampFromHeight(0, types.NetworkMain); got != MainGenesisTime {
		t.Errorf("mainnet height 0 = %d, want %d", got, MainGenesisTime)
	}
	if got := TimestampFromHeight(TestRefHeight, types.NetworkTest); got != TestRefTime {
		t.Errorf("testnet reference = %d, want %d", got, TestRefTime)
	}
	if got := TimestampFromHeight(StageRefHeight, types.NetworkStage); got != StageRefTime {
		t.Errorf("stagenet reference = %d, want %d", got, StageRefTime)
	}
	if got := HeightFromTimestamp(0, types.NetworkStage); got != 0 {
		t.Errorf("stagenet time 0 = %d, want 0", got)
	}
}

func TestTimestampFromHeight_Saturates(t *testing.T) {
	heights := []uint64{math.MaxUint64 / 120, math.MaxUint64/120 + 1, math.MaxUint64 - 1, math.MaxUint64}
	for _, n := range types.Networks {
		prev := TimestampFromHeight(3000000, n)
		for _, h := range heights {
			got := TimestampFromHeight(h, n)
			if got < prev {
				t.Errorf("%v: TimestampFromHeight(%d) = %d, below %d", n, h, got, prev)
			}
			prev = got
		}
		if got := TimestampFromHeight(math.MaxUint64, n); got != math.MaxUint64 {
			t.Errorf("%v: TimestampFromHeight(max) = %d, want max", n, got)
		}
	}
	_, ts, err := Resolve(math.MaxUint64, 0, types.NetworkMain)
	if err != nil || ts != math.MaxUint64 {
		t.Errorf("Resolve(max, 0) = %d, %v", ts, err)
	}
}

func TestRoundtrip(t *testing.T) {
	heights := []uint64{0, 1, 5000, MainForkHeight - 1, MainForkHeight, 3000000}
	for _, n := range types.Networks {
		for _, h := range heights {
			ts := TimestampFromHeight(h, n)
			if ts == 0 {
				continue
			}
			if got := HeightFromTimestamp(ts, n); got != h {
				t.Errorf("%v: HeightFromTimestamp(TimestampFromHeight(%d)) = %d", n, h, got)
			}
		}
	}
}

func TestMonotonic(t *testing.T) {
	for _, n := range types.Networks {
		var prev uint64
		for ts := uint64(1390000000); ts < 1800000000; ts += 86400 * 7 {
			h := HeightFromTimestamp(ts, n)
			if h < prev {
				t.Fatalf("%v: height decreased at %d", n, ts)
			}
			prev = h
		}
	}
}

func TestResolve(t *testing.T) {
	h, ts, err := Resolve(0, 0, types.NetworkMain)
	if err != nil || h != 0 || ts != 0 {
		t.Errorf("Resolve(0, 0) = %d, %d, %v", h, ts, err)
	}
	h, ts, err = Resolve(MainForkHeight, 0, types.NetworkMain)
	if err != nil || ts != MainForkTime {
		t.Errorf("Resolve(height) = %d, %d, %v", h, ts, err)
	}
	h, ts, err = Resolve(0, MainForkTime, types.NetworkMain)
	if err != nil || h != MainForkHeight {
		t.Errorf("Resolve(timestamp) = %d, %d, %v", h, ts, err)
	}
	if _, _, err := Resolve(1, 1, types.NetworkMain); !errors.Is(err, ErrHeightAndTimestamp) {
		t.Errorf("Resolve(both) error = %v, want ErrHeightAndTimestamp", err)
	}
}
