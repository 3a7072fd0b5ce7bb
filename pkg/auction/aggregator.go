package auction

import (
	"math"

	"github.com/shopspring/decimal"
)

// Aggregator computes summary statistics over auctions. It holds no state
// and is safe for concurrent use.
type Aggregator struct{}

// NewAggregator returns an Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

var hundred = decimal.NewFromInt(100)

// Summarize reduces auctions to a Summary. Both averages are 0 for an empty
// list and rounded to two decimals.
//
// The progress average divides by the full auction count: auctions without a
// bid or without a minimum ask contribute 0 to the sum but still count.
// Sums and divisions are decimal, so a mean of exactly 1.005 rounds to 1.01.
func (a *Aggregator) Summarize(auctions []Auction) Summary {
	n := len(auctions)
	if n == 0 {
		return Summary{}
	}

	ratios := make([]float64, 0, n)
	bids := make([]float64, 0, n)
	for _, auc := range auctions {
		bids = append(bids, auc.NumBids)
		if auc.CurrentHighestBidValue != 0 && auc.MinimumRequiredAsk != 0 {
			ratios = append(ratios, auc.CurrentHighestBidValue/auc.MinimumRequiredAsk)
		}
	}

	count := decimal.NewFromInt(int64(n))
	return Summary{
		NumberOfAuctions:                   n,
		AverageNumberOfBids:                mean(bids, count, decimal.NewFromInt(1)),
		AveragePercentageOfAuctionProgress: mean(ratios, count, hundred),
	}
}

// mean returns sum(values)/count*scale rounded to two decimals. Non-finite
// values cannot be represented as decimals and propagate as in float math.
func mean(values []float64, count, scale decimal.Decimal) float64 {
	sum := decimal.Zero
	var fsum float64
	finite := true
	for _, v := range values {
		fsum += v
		if math.IsNaN(v) || math.IsInf(v, 0) {
			finite = false
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	if !finite {
		return fsum / count.InexactFloat64() * scale.InexactFloat64()
	}

	return sum.Mul(scale).Div(count).Round(2).InexactFloat64()
}

// Round2 rounds x to two decimals, halves away from zero. x is taken at its
// shortest decimal representation, so Round2(1.005) is 1.01.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
