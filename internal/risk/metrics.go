package risk

import (
	"math"
	"sort"
)

// minTradesForVaR is the sample size below which VaR keeps its prior value.
const minTradesForVaR = 10

// annualizationFactor annualizes per-trade Sharpe assuming 252 trading days.
var annualizationFactor = math.Sqrt(252)

// populationStdDev returns the population standard deviation of the sample.
func populationStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}

	return math.Sqrt(sumSquares / float64(len(values)))
}

// sharpeRatio computes the annualized Sharpe ratio from per-trade returns.
// It is defined as zero below two trades or at zero variance.
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}

	mean := sum / float64(len(returns))

	stdDev := populationStdDev(returns, mean)
	if stdDev == 0 {
		return 0
	}

	return mean / stdDev * annualizationFactor
}

// valueAtRisk computes VaR at the given tail probability from the empirical
// distribution of trade net values: the absolute value at the tail
// percentile index of the ascending-sorted sample. Returns ok=false when
// the sample is too small to be meaningful.
func valueAtRisk(netValues []float64, tail float64) (float64, bool) {
	if len(netValues) < minTradesForVaR {
		return 0, false
	}

	sorted := make([]float64, len(netValues))
	copy(sorted, netValues)
	sort.Float64s(sorted)

	index := int(tail * float64(len(sorted)))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return math.Abs(sorted[index]), true
}

// profitFactor is gross profit over absolute gross loss. It is positive
// infinity when there are profits but no losses, and zero when there are
// neither.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss > 0 {
		return grossProfit / grossLoss
	}

	if grossProfit > 0 {
		return math.Inf(1)
	}

	return 0
}

// utilizationTerm contributes a capped weighted term to the composite risk
// score: utilization of a limit, capped at 1, times the term's weight.
func utilizationTerm(value, limit, weight float64) float64 {
	if limit <= 0 {
		return 0
	}

	utilization := value / limit
	if utilization < 0 {
		utilization = 0
	}

	if utilization > 1 {
		utilization = 1
	}

	return utilization * weight
}
