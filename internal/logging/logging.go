// Package logging builds the process logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a development logger for the development environment and a JSON production logger otherwise.
func New(environment string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// Address is the structured field every wallet-scoped log line carries
func Address(address string) zap.Field {
	return zap.String("address", address)
}
