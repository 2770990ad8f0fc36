package strategies

import "errors"

var (
	ErrUnknownStrategy  = errors.New("unknown strategy")
	ErrInsufficientCash = errors.New("insufficient cash for routing decision")
	ErrInvalidAmount    = errors.New("invalid routing amount")
	ErrInvalidPortfolio = errors.New("invalid portfolio")
)
