package logger

import (
	"go.uber.org/zap"
)

const (
	FieldProvider       = "ai_provider"
	FieldModel          = "ai_model"
	FieldSearchProvider = "search_provider"
)

// ProviderFields describe the model destination behind a gateway.
func ProviderFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithProvider(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, ProviderFields(provider, model)...)
}

// WithSearchProvider tags web presence lookups with their backend.
func WithSearchProvider(logger *zap.Logger, provider string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldSearchProvider, Value: provider})...)
}
