package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// AUC is the area under the ROC curve of scores against binary labels.
// Tied scores count half. A single-class input has no ROC curve: NaN and
// contracts.ErrDegenerateFold.
func AUC(scores []float64, labels []bool) (float64, error) {
	if len(scores) != len(labels) {
		return math.NaN(), fmt.Errorf("auc: %d scores but %d labels", len(scores), len(labels))
	}

	var pos int
	for _, l := range labels {
		if l {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return math.NaN(), fmt.Errorf("auc over %d rows with %d positives: %w", len(labels), pos, contracts.ErrDegenerateFold)
	}

	y := append([]float64(nil), scores...)
	classes := append([]bool(nil), labels...)
	stat.SortWeightedLabeled(y, classes, nil)

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}
