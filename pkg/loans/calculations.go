// Package loans provides level-payment (annuity) loan calculations.
package loans

import (
	"math"

	"github.com/iwvelando/project-finance/pkg/constants"
)

// Payment holds the values for a given payment period.
type Payment struct {
	Payment            float64
	Principal          float64
	Interest           float64
	RemainingPrincipal float64
}

// CalculateLevelPayment calculates the constant per-period payment that fully
// amortizes principal over the given number of periods at periodRate.
func CalculateLevelPayment(principal, periodRate float64, periods int) float64 {
	if periods <= 0 || principal <= 0 {
		return 0
	}
	if periodRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(periods)
	}

	power := math.Pow(1.00+periodRate, float64(periods))
	discountFactor := (power - 1.00) / power
	return principal * periodRate / discountFactor
}

// CalculateInterestPayment calculates the interest portion of a payment on the
// opening balance, scaled by the fraction of the period that elapsed.
func CalculateInterestPayment(remainingPrincipal, periodRate, fraction float64) float64 {
	return remainingPrincipal * periodRate * fraction
}

// PeriodRate converts an annual rate (decimal, e.g. 0.055) to a per-period rate.
func PeriodRate(annualRate float64, periodsPerYear int) float64 {
	if periodsPerYear <= 0 {
		return annualRate
	}
	return annualRate / float64(periodsPerYear)
}

// GenerateSchedule creates a level-payment amortization schedule. The final
// payment absorbs any floating point residue so the loan closes at zero.
func GenerateSchedule(principal, periodRate float64, periods int) []Payment {
	if periods <= 0 {
		return nil
	}

	schedule := make([]Payment, periods)
	payment := CalculateLevelPayment(principal, periodRate, periods)
	balance := principal

	for i := 0; i < periods; i++ {
		interest := CalculateInterestPayment(balance, periodRate, 1.0)
		principalPaid := payment - interest
		if principalPaid > balance {
			principalPaid = balance
		}
		if i == periods-1 || math.Abs(balance-principalPaid) < constants.Tolerance {
			// We will get machine error otherwise so just clear the balance.
			principalPaid = balance
		}
		balance -= principalPaid
		schedule[i] = Payment{
			Payment:            interest + principalPaid,
			Principal:          principalPaid,
			Interest:           interest,
			RemainingPrincipal: balance,
		}
		if balance == 0 {
			break
		}
	}

	return schedule
}
