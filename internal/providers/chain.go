// Package providers fetches current values and short histories from the
// public sources behind each dashboard asset.
package providers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
)

// Strategy is one named way of obtaining a T.
type Strategy[T any] interface {
	Name() string
	Fetch(ctx context.Context) (T, error)
}

type funcStrategy[T any] struct {
	name string
	fn   func(context.Context) (T, error)
}

func (s funcStrategy[T]) Name() string { return s.name }

func (s funcStrategy[T]) Fetch(ctx context.Context) (T, error) { return s.fn(ctx) }

// NewStrategy adapts a function into a Strategy.
func NewStrategy[T any](name string, fn func(context.Context) (T, error)) Strategy[T] {
	return funcStrategy[T]{name: name, fn: fn}
}

// Constant always succeeds with value. It closes chains that must produce
// something.
func Constant[T any](name string, value func() T) Strategy[T] {
	return NewStrategy(name, func(context.Context) (T, error) { return value(), nil })
}

// FirstSuccess tries strategies in order and returns the first value
// obtained along with the name of the strategy that produced it. When every
// strategy fails the joined causes are returned. The result is a
// source-unavailable error only when at least one cause was a transport
// failure; chains that failed purely on parsing report that instead.
func FirstSuccess[T any](ctx context.Context, logger *zap.Logger, chain string, strategies []Strategy[T]) (T, string, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}

	var errs []error
	unreachable := len(strategies) == 0
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			unreachable = true
			break
		}
		value, err := s.Fetch(ctx)
		if err == nil {
			logger.Debug("Source succeeded", zap.String("chain", chain), zap.String("source", s.Name()))
			return value, s.Name(), nil
		}
		logger.Warn("Source failed",
			zap.String("chain", chain),
			zap.String("source", s.Name()),
			zap.Error(err))
		if apperrors.IsSourceUnavailable(err) {
			unreachable = true
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	if unreachable {
		return zero, "", &apperrors.ErrSourceUnavailable{Source: chain, Err: errors.Join(errs...)}
	}
	return zero, "", fmt.Errorf("%s: every source failed: %w", chain, errors.Join(errs...))
}
