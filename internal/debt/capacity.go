package debt

import "math"

// DSCRTargets holds the coverage ratios lenders require on each revenue type.
type DSCRTargets struct {
	Contract float64 `json:"contract"`
	Merchant float64 `json:"merchant"`
}

// CalculateCapacity returns the maximum debt service each period can support.
// CFADS is apportioned by revenue mix and each share is divided by its own
// DSCR target.
func CalculateCapacity(periods []PeriodCashFlow, targets DSCRTargets) []float64 {
	capacity := make([]float64, len(periods))
	for i, p := range periods {
		capacity[i] = periodCapacity(p.MerchantRevenue, p.ContractedRevenue, p.Opex, targets)
	}
	return capacity
}

func periodCapacity(merchantRevenue, contractedRevenue, opex float64, targets DSCRTargets) float64 {
	totalRevenue := merchantRevenue + contractedRevenue
	totalCFADS := math.Max(0, totalRevenue-opex)

	merchantShare, contractedShare := revenueMix(merchantRevenue, contractedRevenue)
	merchantCFADS := totalCFADS * merchantShare
	contractedCFADS := totalCFADS * contractedShare

	var merchantService, contractedService float64
	if targets.Merchant > 0 && merchantCFADS > 0 {
		merchantService = merchantCFADS / targets.Merchant
	}
	if targets.Contract > 0 && contractedCFADS > 0 {
		contractedService = contractedCFADS / targets.Contract
	}
	return math.Max(0, merchantService+contractedService)
}

// revenueMix defaults to an even split when there is no revenue.
func revenueMix(merchantRevenue, contractedRevenue float64) (merchant, contracted float64) {
	total := merchantRevenue + contractedRevenue
	if total <= 0 {
		return 0.5, 0.5
	}
	merchant = merchantRevenue / total
	return merchant, 1 - merchant
}

// BlendedDSCR returns the single coverage ratio implied by the apportioned
// capacity formula for the given revenue mix: CFADS divided by capacity.
// With no revenue the merchant target applies.
func BlendedDSCR(contractedRevenue, merchantRevenue float64, targets DSCRTargets) float64 {
	if contractedRevenue+merchantRevenue <= 0 {
		return targets.Merchant
	}
	merchantShare, contractedShare := revenueMix(merchantRevenue, contractedRevenue)
	var coverage float64
	if targets.Merchant > 0 {
		coverage += merchantShare / targets.Merchant
	}
	if targets.Contract > 0 {
		coverage += contractedShare / targets.Contract
	}
	if coverage == 0 {
		return 0
	}
	return 1 / coverage
}
