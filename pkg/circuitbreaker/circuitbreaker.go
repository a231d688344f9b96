// Package circuitbreaker holds the breaker settings shared by calls to remote
// collaborators.
package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

type Config struct {
	Name             string
	MaxRequests      uint32        // allowed through while half-open
	Interval         time.Duration // closed-state counter reset
	Timeout          time.Duration // open -> half-open
	FailureThreshold uint32        // consecutive failures that trip the breaker
}

func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          15 * time.Second,
		FailureThreshold: 5,
	}
}

// New builds a breaker. isSuccessful decides which errors do not count as
// failures (for example "not found" answers from a healthy backend).
func New[T any](cfg Config, isSuccessful func(error) bool, onStateChange func(name string, from, to gobreaker.State)) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful:  isSuccessful,
		OnStateChange: onStateChange,
	})
}

// IsOpen reports whether err came from a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
