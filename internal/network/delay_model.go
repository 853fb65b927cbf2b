package network

import "math"

const (
	// SpeedOfLight is the constant propagation speed in metres per second.
	SpeedOfLight = 299792458.0
	// DefaultBitRate is the 2.4 GHz O-QPSK rate of an 802.15.4 radio.
	DefaultBitRate = 250000.0
)

// DelayModel turns a hop into the time between submission and confirmation:
// propagation over the distance plus the airtime of the frame.
type DelayModel struct {
	PropagationSpeed float64
	BitRate          float64
}

type DelayModelConfig struct {
	PropagationSpeed float64
	BitRate          float64
}

type DelayComponents struct {
	Propagation float64
	Airtime     float64
	TotalDelay  float64
}

func DefaultDelayModel() *DelayModel {
	return &DelayModel{
		PropagationSpeed: SpeedOfLight,
		BitRate:          DefaultBitRate,
	}
}

func NewDelayModelConfig(cfg DelayModelConfig) *DelayModel {
	dm := DefaultDelayModel()
	if cfg.PropagationSpeed > 0 {
		dm.PropagationSpeed = cfg.PropagationSpeed
	}
	if cfg.BitRate > 0 {
		dm.BitRate = cfg.BitRate
	}
	return dm
}

func (dm *DelayModel) Propagation(distance float64) float64 {
	return math.Abs(distance) / dm.PropagationSpeed
}

func (dm *DelayModel) Airtime(bytes int) float64 {
	return float64(bytes*8) / dm.BitRate
}

func (dm *DelayModel) ComputeTotalDelay(distance float64, bytes int) DelayComponents {
	prop := dm.Propagation(distance)
	air := dm.Airtime(bytes)
	return DelayComponents{
		Propagation: prop,
		Airtime:     air,
		TotalDelay:  prop + air,
	}
}
