package logger

import (
	"go.uber.org/zap"
)

// NewNamed creates a named zap logger tuned for the given environment.
// Development gets the human-readable console encoder; everything else
// logs structured JSON at info level.
func NewNamed(appEnv, name string) (*zap.Logger, error) {
	var cfg zap.Config
	if appEnv == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Named(name), nil
}
