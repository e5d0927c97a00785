package edge

import (
	"math"

	"github.com/banshee-data/navgraph/internal/config"
)

// Settings holds the thresholds used when classifying edges. Distances are
// metres, angles radians, times milliseconds.
type Settings struct {
	PanoMinDistance       float64
	PanoMaxDistance       float64
	PanoPreferredDistance float64
	PanoMaxItems          int
	PanoMaxStepTurnChange float64

	SimilarMaxDirectionChange float64
	SimilarMaxDistance        float64
	SimilarMinTimeDifference  int64

	StepMaxDistance        float64
	StepMaxDirectionChange float64
	StepMaxDrift           float64
	StepPreferredDistance  float64

	TurnMaxDistance           float64
	TurnMaxDirectionChange    float64
	TurnMaxRigDistance        float64
	TurnMinRigDirectionChange float64
}

func DefaultSettings() Settings {
	return Settings{
		PanoMinDistance:       0.1,
		PanoMaxDistance:       20,
		PanoPreferredDistance: 5,
		PanoMaxItems:          4,
		PanoMaxStepTurnChange: math.Pi / 8,

		SimilarMaxDirectionChange: math.Pi / 8,
		SimilarMaxDistance:        12,
		SimilarMinTimeDifference:  12 * 3600 * 1000,

		StepMaxDistance:        20,
		StepMaxDirectionChange: math.Pi / 6,
		StepMaxDrift:           math.Pi / 6,
		StepPreferredDistance:  4,

		TurnMaxDistance:           15,
		TurnMaxDirectionChange:    2 * math.Pi / 9,
		TurnMaxRigDistance:        0.65,
		TurnMinRigDirectionChange: math.Pi / 6,
	}
}

// MaxDistance is the largest distance any pass considers.
func (s Settings) MaxDistance() float64 {
	return math.Max(
		math.Max(s.PanoMaxDistance, s.SimilarMaxDistance),
		math.Max(s.StepMaxDistance, s.TurnMaxDistance))
}

// SettingsFromConfig adapts the tuning config.
func SettingsFromConfig(cfg *config.NavigationConfig) Settings {
	return Settings{
		PanoMinDistance:           cfg.GetPanoMinDistance(),
		PanoMaxDistance:           cfg.GetPanoMaxDistance(),
		PanoPreferredDistance:     cfg.GetPanoPreferredDistance(),
		PanoMaxItems:              cfg.GetPanoMaxItems(),
		PanoMaxStepTurnChange:     cfg.GetPanoMaxStepTurnChange(),
		SimilarMaxDirectionChange: cfg.GetSimilarMaxDirectionChange(),
		SimilarMaxDistance:        cfg.GetSimilarMaxDistance(),
		SimilarMinTimeDifference:  cfg.GetSimilarMinTimeDifferenceMs(),
		StepMaxDistance:           cfg.GetStepMaxDistance(),
		StepMaxDirectionChange:    cfg.GetStepMaxDirectionChange(),
		StepMaxDrift:              cfg.GetStepMaxDrift(),
		StepPreferredDistance:     cfg.GetStepPreferredDistance(),
		TurnMaxDistance:           cfg.GetTurnMaxDistance(),
		TurnMaxDirectionChange:    cfg.GetTurnMaxDirectionChange(),
		TurnMaxRigDistance:        cfg.GetTurnMaxRigDistance(),
		TurnMinRigDirectionChange: cfg.GetTurnMinRigDirectionChange(),
	}
}

// Coefficients weight the terms of each selection score.
type Coefficients struct {
	PanoPreferredDistance float64
	PanoMotion            float64
	PanoSequencePenalty   float64
	PanoMergeCCPenalty    float64

	StepPreferredDistance float64
	StepMotion            float64
	StepRotation          float64
	StepSequencePenalty   float64
	StepMergeCCPenalty    float64

	SimilarDistance float64
	SimilarRotation float64

	TurnDistance        float64
	TurnMotion          float64
	TurnSequencePenalty float64
	TurnMergeCCPenalty  float64
}

func DefaultCoefficients() Coefficients {
	return Coefficients{
		PanoPreferredDistance: 2,
		PanoMotion:            2,
		PanoSequencePenalty:   1,
		PanoMergeCCPenalty:    4,

		StepPreferredDistance: 4,
		StepMotion:            3,
		StepRotation:          4,
		StepSequencePenalty:   2,
		StepMergeCCPenalty:    6,

		SimilarDistance: 2,
		SimilarRotation: 3,

		TurnDistance:        4,
		TurnMotion:          2,
		TurnSequencePenalty: 1,
		TurnMergeCCPenalty:  4,
	}
}

// CoefficientsFromConfig adapts the coefficients map of the tuning config.
// Missing names keep their defaults.
func CoefficientsFromConfig(cfg *config.NavigationConfig) Coefficients {
	d := DefaultCoefficients()
	return Coefficients{
		PanoPreferredDistance: cfg.GetCoefficient("pano_preferred_distance", d.PanoPreferredDistance),
		PanoMotion:            cfg.GetCoefficient("pano_motion", d.PanoMotion),
		PanoSequencePenalty:   cfg.GetCoefficient("pano_sequence_penalty", d.PanoSequencePenalty),
		PanoMergeCCPenalty:    cfg.GetCoefficient("pano_merge_cc_penalty", d.PanoMergeCCPenalty),
		StepPreferredDistance: cfg.GetCoefficient("step_preferred_distance", d.StepPreferredDistance),
		StepMotion:            cfg.GetCoefficient("step_motion", d.StepMotion),
		StepRotation:          cfg.GetCoefficient("step_rotation", d.StepRotation),
		StepSequencePenalty:   cfg.GetCoefficient("step_sequence_penalty", d.StepSequencePenalty),
		StepMergeCCPenalty:    cfg.GetCoefficient("step_merge_cc_penalty", d.StepMergeCCPenalty),
		SimilarDistance:       cfg.GetCoefficient("similar_distance", d.SimilarDistance),
		SimilarRotation:       cfg.GetCoefficient("similar_rotation", d.SimilarRotation),
		TurnDistance:          cfg.GetCoefficient("turn_distance", d.TurnDistance),
		TurnMotion:            cfg.GetCoefficient("turn_motion", d.TurnMotion),
		TurnSequencePenalty:   cfg.GetCoefficient("turn_sequence_penalty", d.TurnSequencePenalty),
		TurnMergeCCPenalty:    cfg.GetCoefficient("turn_merge_cc_penalty", d.TurnMergeCCPenalty),
	}
}
