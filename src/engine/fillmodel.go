package engine

import (
	"fmt"
	"math/rand"
)

// FillModel decides the probabilistic parts of matching: whether a limit
// order fills when its price is touched, whether a stop order triggers on
// touch, and whether an aggressive order slips one price increment.
//
// All randomness in the venue flows through the model's seeded source so a
// replay with the same seed reproduces the same event stream.
type FillModel struct {
	probFillOnLimit float64
	probFillOnStop  float64
	probSlippage    float64
	rng             *rand.Rand
}

func NewFillModel(probFillOnLimit, probFillOnStop, probSlippage float64, seed int64) (*FillModel, error) {
	for name, p := range map[string]float64{
		"prob_fill_on_limit": probFillOnLimit,
		"prob_fill_on_stop":  probFillOnStop,
		"prob_slippage":      probSlippage,
	} {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("fill model: %s must be in [0, 1], got %v", name, p)
		}
	}
	return &FillModel{
		probFillOnLimit: probFillOnLimit,
		probFillOnStop:  probFillOnStop,
		probSlippage:    probSlippage,
		rng:             rand.New(rand.NewSource(seed)),
	}, nil
}

func (m *FillModel) IsLimitFilled() bool {
	return m.draw(m.probFillOnLimit)
}

func (m *FillModel) IsStopFilled() bool {
	return m.draw(m.probFillOnStop)
}

func (m *FillModel) IsSlipped() bool {
	return m.draw(m.probSlippage)
}

func (m *FillModel) draw(prob float64) bool {
	if prob >= 1 {
		return true
	}
	if prob <= 0 {
		return false
	}
	return m.rng.Float64() < prob
}
