// Package log wires the repository's structured logging. The driver and
// executor depend only on logr.Logger (github.com/go-logr/logr, a direct
// dependency of kedacore/keda), so this package's job is just to build a
// concrete zap-backed implementation via go-logr/zapr, the adapter keda's
// own controller-runtime stack uses to pair logr with zap.
package log

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// NewProduction returns a logr.Logger backed by a production zap config
// (JSON encoding, info level, epoch timestamps).
func NewProduction() (logr.Logger, error) {
	zl, err := zap.NewProduction()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

// NewDevelopment returns a logr.Logger backed by a development zap config
// (console encoding, debug level, stack traces on warn+).
func NewDevelopment() (logr.Logger, error) {
	zl, err := zap.NewDevelopment()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}
