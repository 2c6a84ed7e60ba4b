package core

import (
	"context"
	"fmt"
	"time"

	"carhub/pkg/client"
	apperrors "carhub/pkg/errors"
	httputil "carhub/pkg/http"
	"carhub/pkg/logger"
)

// MaestroContext carries one flow execution: the caller's Input, values
// produced by earlier steps in Process, and what is returned in Output.
type MaestroContext struct {
	context.Context

	Input   map[string]any
	Process map[string]any
	Output  map[string]any
	Client  *client.Client
	Log     *logger.Logger
}

func NewMaestroContext(ctx context.Context, input map[string]any, client *client.Client, log *logger.Logger) *MaestroContext {
	if input == nil {
		input = make(map[string]any)
	}
	return &MaestroContext{
		Context: ctx,
		Input:   input,
		Process: make(map[string]any),
		Output:  make(map[string]any),
		Client:  client,
		Log:     log.FromContext(ctx),
	}
}

// ExtractString returns Input[key] as a string, or "" when absent.
func (c *MaestroContext) ExtractString(key string) string {
	str, _ := c.Input[key].(string)
	return str
}

func (c *MaestroContext) ExtractRequiredString(key string) (string, error) {
	str := c.ExtractString(key)
	if IsMissing(str) {
		return "", MissingParamErr(key)
	}
	return str, nil
}

// ExtractTime parses Input[key] as RFC3339 or as a bare YYYY-MM-DD date.
func (c *MaestroContext) ExtractTime(key string) (time.Time, error) {
	raw, err := c.ExtractRequiredString(key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := httputil.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(fmt.Sprintf("param [%v] must be YYYY-MM-DD or RFC3339, got %q", key, raw))
	}
	return t, nil
}

// Store keeps an intermediate value for later steps.
func Store[T any](c *MaestroContext, key string, value T) {
	c.Process[key] = value
}

// Load fetches a value stored by an earlier step.
func Load[T any](c *MaestroContext, key string) (T, error) {
	value, ok := c.Process[key].(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("process value [%v] is missing", key)
	}
	return value, nil
}
