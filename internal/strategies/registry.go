package strategies

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindConservative Kind = iota
	KindBalanced
	KindAggressive
	KindYieldMaximizer
	KindRiskParity
)

var kinds = []Kind{
	KindConservative,
	KindBalanced,
	KindAggressive,
	KindYieldMaximizer,
	KindRiskParity,
}

func (k Kind) String() string {
	switch k {
	case KindConservative:
		return "conservative"
	case KindBalanced:
		return "balanced"
	case KindAggressive:
		return "aggressive"
	case KindYieldMaximizer:
		return "yield_maximizer"
	case KindRiskParity:
		return "risk_parity"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var aliases = map[string]Kind{
	"conservative":    KindConservative,
	"balanced":        KindBalanced,
	"aggressive":      KindAggressive,
	"yield_maximizer": KindYieldMaximizer,
	"yield":           KindYieldMaximizer,
	"risk_parity":     KindRiskParity,
	"risk":            KindRiskParity,
}

// New builds the built-in strategy for kind.
func New(kind Kind) (Strategy, error) {
	switch kind {
	case KindConservative:
		return NewConservativeStrategy(), nil
	case KindBalanced:
		return NewBalancedStrategy(), nil
	case KindAggressive:
		return NewAggressiveStrategy(), nil
	case KindYieldMaximizer:
		return NewYieldMaximizerStrategy(), nil
	case KindRiskParity:
		return NewRiskParityStrategy(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, kind)
	}
}

// ParseKind resolves a case-insensitive strategy name or alias.
func ParseKind(name string) (Kind, error) {
	kind, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
	return kind, nil
}

func FromName(name string) (Strategy, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	return New(kind)
}

// ListAll returns the canonical names of the built-in strategies.
func ListAll() []string {
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, kind.String())
	}
	return names
}

func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}
