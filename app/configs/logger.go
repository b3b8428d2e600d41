package configs

import (
	"go.uber.org/zap"
)

func NewLogger(e ENV) (*zap.Logger, error) {
	if e.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
