package core

import (
	"fmt"
	"sort"

	apperrors "carhub/pkg/errors"
)

type Engine struct {
	flows map[string]Flow
}

func NewEngine(flows ...Flow) *Engine {
	m := map[string]Flow{}
	for _, f := range flows {
		m[f.Name()] = f
	}
	return &Engine{flows: m}
}

// Run executes the steps of flowName in order and stops at the first failure.
// Each step holds a RequestLimiter slot, bounding downstream calls across
// all running flows.
// Step errors that already carry an AppError keep their code and status so
// callers see the downstream reason (a booking conflict stays a 409).
func (e *Engine) Run(flowName string, ctx *MaestroContext) error {
	f, exists := e.flows[flowName]
	if !exists {
		return apperrors.NotFound(fmt.Sprintf("unsupported flow: %v", flowName))
	}

	for _, step := range f.Steps() {
		if err := ctx.Err(); err != nil {
			return apperrors.Timeout(fmt.Sprintf("%s step not started", step.Name))
		}

		ctx.Log.Debug("running flow step", "flow", flowName, "step", step.Name)
		var err error
		RunWithRateLimitedConcurrency(func() { err = step.Execute(ctx) })
		if err != nil {
			if apperrors.IsAppError(err) {
				return withStep(apperrors.AsAppError(err), step.Name)
			}
			return apperrors.Internal(fmt.Sprintf("%s step failed, pipeline errored", step.Name), err)
		}
	}
	return nil
}

// Names lists the registered flows in lexical order.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.flows))
	for name := range e.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func withStep(appErr *apperrors.AppError, step string) *apperrors.AppError {
	details := make(map[string]any, len(appErr.Details)+1)
	for k, v := range appErr.Details {
		details[k] = v
	}
	details["step"] = step
	return appErr.WithDetails(details)
}
