package statemachine

import "time"

// Params carries every tunable the machine needs out of internal/config,
// mirroring the teacher's preference for a small per-package parameter
// struct over importing the shared config type directly.
type Params struct {
	DarkToInactiveDuration  time.Duration
	LightToCollapseDuration time.Duration
	CollapseDuration        time.Duration
	AliveEntryDuration      time.Duration
	DeadEntryDuration       time.Duration

	DispenseFlashDuration time.Duration
	DispenseDuration      time.Duration
	RejectFlashDuration   time.Duration
	DispenseHoldDuration  time.Duration

	TrackingGain        float64
	TrackingDeadzone    float64
	TrackingMinVelocity float64
	TrackingMaxVelocity float64
	MinFaceWidthRatio   float64

	ArmWaveMin      float64
	ArmWaveMax      float64
	ArmWaveSpeed    float64
	ArmWaveInterval time.Duration

	AliveProbability float64

	ShakeSpeed float64
	ShakeRange float64
}

// DefaultParams returns the documented production defaults.
func DefaultParams() Params {
	return Params{
		DarkToInactiveDuration:  2 * time.Second,
		LightToCollapseDuration: 1 * time.Second,
		CollapseDuration:        2 * time.Second,
		AliveEntryDuration:      2 * time.Second,
		DeadEntryDuration:       2 * time.Second,

		DispenseFlashDuration: 5 * time.Second,
		DispenseDuration:      5 * time.Second,
		RejectFlashDuration:   2 * time.Second,
		DispenseHoldDuration:  1 * time.Second,

		TrackingGain:        0.02,
		TrackingDeadzone:    0.05,
		TrackingMinVelocity: 0.5,
		TrackingMaxVelocity: 3.0,
		MinFaceWidthRatio:   0.06,

		ArmWaveMin:      45,
		ArmWaveMax:      135,
		ArmWaveSpeed:    4,
		ArmWaveInterval: 4 * time.Second,

		AliveProbability: 0.5,

		ShakeSpeed: 15,
		ShakeRange: 30,
	}
}
