package chain

import (
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/ots/pkg/types"
)

// ErrHeightAndTimestamp is returned when both a height and a timestamp
// are supplied for the same seed.
var ErrHeightAndTimestamp = errors.New("only one of height and timestamp may be set")

// Reference points for block height estimation.
const (
	MainGenesisTime = 1397818193
	MainForkHeight  = 1009827
	MainForkTime    = 1458748658

	TestRefHeight = 624634
	TestRefTime   = 1448285909

	StageRefHeight = 32000
	StageRefTime   = 1520937818

	targetV1 = 60
	targetV2 = 120
)

// HeightFromTimestamp estimates the block height at unix time ts.
func HeightFromTimestamp(ts uint64, network types.Network) uint64 {
	switch network {
	case types.NetworkTest:
		return fromReference(ts, TestRefHeight, TestRefTime)
	case types.NetworkStage:
		return fromReference(ts, StageRefHeight, StageRefTime)
	}
	if ts <= MainGenesisTime {
		return 0
	}
	if ts < MainForkTime {
		return min((ts-MainGenesisTime)/targetV1, MainForkHeight)
	}
	return MainForkHeight + (ts-MainForkTime)/targetV2
}

// TimestampFromHeight estimates the unix time of block h.
func TimestampFromHeight(h uint64, network types.Network) uint64 {
	switch network {
	case types.NetworkTest:
		return toReference(h, TestRefHeight, TestRefTime)
	case types.NetworkStage:
		return toReference(h, StageRefHeight, StageRefTime)
	}
	if h < MainForkHeight {
		return MainGenesisTime + h*targetV1
	}
	return addBlocks(MainForkTime, h-MainForkHeight)
}

// addBlocks returns ts advanced by n blocks, saturating at MaxUint64.
func addBlocks(ts, n uint64) uint64 {
	if n > (math.MaxUint64-ts)/targetV2 {
		return math.MaxUint64
	}
	return ts + n*targetV2
}

func fromReference(ts, refHeight, refTime uint64) uint64 {
	if ts >= refTime {
		return refHeight + (ts-refTime)/targetV2
	}
	back := (refTime - ts) / targetV2
	if back >= refHeight {
		return 0
	}
	return refHeight - back
}

func toReference(h, refHeight, refTime uint64) uint64 {
	if h >= refHeight {
		return addBlocks(refTime, h-refHeight)
	}
	back := (refHeight - h) * targetV2
	if back >= refTime {
		return 0
	}
	return refTime - back
}

// Resolve fills in whichever of height and timestamp is zero. Supplying
// both is an error; supplying neither leaves both zero.
func Resolve(height, timestamp uint64, network types.Network) (uint64, uint64, error) {
	switch {
	case height != 0 && timestamp != 0:
		return 0, 0, fmt.Errorf("%w: height %d, timestamp %d", ErrHeightAndTimestamp, height, timestamp)
	case height != 0:
		return height, TimestampFromHeight(height, network), nil
	case timestamp != 0:
		return HeightFromTimestamp(timestamp, network), timestamp, nil
	}
	return 0, 0, nil
}
