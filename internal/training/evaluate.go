package training

import "github.com/mikey/mailguard/internal/core"

// Evaluate scores predictions with spam as the positive class. Ratios with
// a zero denominator are reported as 0.
func Evaluate(truth, predicted []core.Label) core.TrainingMetrics {
	var tp, fp, fn, correct int
	for i, want := range truth {
		got := predicted[i]
		if got == want {
			correct++
		}
		switch {
		case got == core.LabelSpam && want == core.LabelSpam:
			tp++
		case got == core.LabelSpam:
			fp++
		case want == core.LabelSpam:
			fn++
		}
	}

	var m core.TrainingMetrics
	if len(truth) > 0 {
		m.Accuracy = float64(correct) / float64(len(truth))
	}
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1Score = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}
