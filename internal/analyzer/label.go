package analyzer

import "TrendSentinel/internal/model"

// Classify labels the trend from the latest close and the averages ordered
// shortest window first. Only the leading run of defined averages counts.
//
// The chain close, MA20, MA50, MA200 (as far as defined) is bullish when it is
// strictly descending, bearish when strictly ascending, and mixed otherwise.
// Without a short average there is not enough data to say anything.
func Classify(close float64, averages ...*float64) model.TrendLabel {
	chain := []float64{close}
	for _, avg := range averages {
		if avg == nil {
			break
		}
		chain = append(chain, *avg)
	}
	if len(chain) < 2 {
		return model.LabelInsufficientData
	}

	descending, ascending := true, true
	for i := 1; i < len(chain); i++ {
		if !(chain[i-1] > chain[i]) {
			descending = false
		}
		if !(chain[i-1] < chain[i]) {
			ascending = false
		}
	}
	switch {
	case descending:
		return model.LabelBullish
	case ascending:
		return model.LabelBearish
	default:
		return model.LabelMixed
	}
}
