package core

import (
	"fmt"

	apperrors "carhub/pkg/errors"
)

const (
	MAX_CONCURRENT_API_CALLS = 40
)

var (
	RequestLimiter = make(chan struct{}, MAX_CONCURRENT_API_CALLS)
)

// RunWithRateLimitedConcurrency executes fn while holding a RequestLimiter
// slot. The slot is released even if fn panics.
func RunWithRateLimitedConcurrency(fn func()) {
	RequestLimiter <- struct{}{}
	defer func() { <-RequestLimiter }()

	fn()
}

func IsMissing(str string) bool {
	return len(str) == 0
}

func MissingParamErr(paramName string) error {
	return apperrors.InvalidInput(fmt.Sprintf("required param [%v] is missing", paramName))
}
