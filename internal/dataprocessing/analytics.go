package dataprocessing

import (
	"fmt"
	"math"

	apperrors "concretelab/internal/errors"
	"concretelab/pkg/contracts/domain"
)

// RollingMean computes a trailing moving average. Positions with fewer than
// window predecessors have no value, so the result holds
// max(0, len(values)-window+1) entries and out[k] belongs to values[k+window-1].
func RollingMean(values []float64, window int) []float64 {
	if window < 1 || len(values) < window {
		return []float64{}
	}

	out := make([]float64, len(values)-window+1)
	for k := range out {
		sum := 0.0
		for _, v := range values[k : k+window] {
			sum += v
		}
		out[k] = sum / float64(window)
	}
	return out
}

// LinearRegression fits y = slope*x + intercept by ordinary least squares and
// reports the Pearson correlation coefficient.
func LinearRegression(x, y []float64) (domain.RegressionResult, error) {
	if len(x) != len(y) {
		return domain.RegressionResult{}, fmt.Errorf("regression inputs differ in length: %d x values, %d y values", len(x), len(y))
	}
	n := len(x)
	if n < 2 {
		return domain.RegressionResult{}, apperrors.NewInsufficientDataError(
			fmt.Sprintf("regression needs at least 2 points, got %d", n))
	}

	meanX, meanY := mean(x), mean(y)

	var sxx, syy, sxy float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}

	if sxx == 0 {
		return domain.RegressionResult{}, apperrors.NewInsufficientDataError(
			fmt.Sprintf("all %d strain values are identical", n))
	}

	slope := sxy / sxx
	result := domain.RegressionResult{
		Slope:     slope,
		Intercept: meanY - slope*meanX,
		Points:    n,
	}
	if syy > 0 {
		// Rounding can push a perfect fit just past 1.
		result.RValue = math.Max(-1, math.Min(1, sxy/math.Sqrt(sxx*syy)))
	}
	return result, nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
