package calculator

import (
	"fmt"
	"strings"

	"github.com/mmynk/billsplit/internal/models"
)

// Policy selects how a bill's tax and tip are divided among the people who
// claimed items on it.
type Policy string

const (
	// PolicyEqual divides tax and tip equally among people with a positive subtotal.
	PolicyEqual Policy = "equal"

	// PolicyProportional divides tax and tip in proportion to each person's
	// share of the summed subtotals.
	PolicyProportional Policy = "proportional"
)

// ParsePolicy converts a request value into a Policy.
// An empty string selects PolicyEqual.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyEqual:
		return PolicyEqual, nil
	case PolicyProportional:
		return PolicyProportional, nil
	default:
		return "", models.NewValidationError("policy", fmt.Sprintf("unknown allocation policy %q", s))
	}
}

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == PolicyEqual || p == PolicyProportional
}

// Allocate returns each participant's addend of amount, index-aligned with
// subtotals. Participants with a subtotal of zero always receive zero.
func (p Policy) Allocate(subtotals []float64, amount float64) []float64 {
	switch p {
	case PolicyProportional:
		return allocateProportional(subtotals, amount)
	default:
		return allocateEqual(subtotals, amount)
	}
}

// taxLabel and tipLabel name the synthetic line-shares added to each split.
func (p Policy) taxLabel() string {
	if p == PolicyProportional {
		return "Tax (proportional)"
	}
	return "Tax (split equally)"
}

func (p Policy) tipLabel() string {
	if p == PolicyProportional {
		return "Tip (proportional)"
	}
	return "Tip (split equally)"
}

func allocateEqual(subtotals []float64, amount float64) []float64 {
	shares := make([]float64, len(subtotals))
	eligible := 0
	for _, s := range subtotals {
		if s > 0 {
			eligible++
		}
	}
	if eligible == 0 || amount == 0 {
		return shares
	}

	share := amount / float64(eligible)
	for i, s := range subtotals {
		if s > 0 {
			shares[i] = share
		}
	}
	return shares
}

func allocateProportional(subtotals []float64, amount float64) []float64 {
	shares := make([]float64, len(subtotals))
	var sum float64
	for _, s := range subtotals {
		if s > 0 {
			sum += s
		}
	}
	if sum <= 0 || amount == 0 {
		return shares
	}

	for i, s := range subtotals {
		if s > 0 {
			shares[i] = amount * (s / sum)
		}
	}
	return shares
}
