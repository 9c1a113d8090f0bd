package logger

import (
	"strconv"

	"go.uber.org/zap"
)

const (
	// FieldRunID identifies one screening batch across every log line it emits.
	FieldRunID = "run_id"
	// FieldDocument is the file name of the résumé being processed.
	FieldDocument = "document"
	// FieldStage names the pipeline stage a log line belongs to.
	FieldStage = "stage"
)

// DocumentFields returns the fields attached to every per-document log line.
// order is the 1-based upload position; non-positive values are omitted.
func DocumentFields(runID, document string, order int) []zap.Field {
	fields := StringFields(
		StringField{Key: FieldRunID, Value: runID},
		StringField{Key: FieldDocument, Value: document},
	)
	if order > 0 {
		fields = append(fields, zap.String("order", strconv.Itoa(order)))
	}
	return fields
}

// WithDocumentFields derives a per-document logger.
func WithDocumentFields(logger *zap.Logger, runID, document string, order int) *zap.Logger {
	return WithFields(logger, DocumentFields(runID, document, order)...)
}

// WithStage tags the logger with a pipeline stage name.
func WithStage(logger *zap.Logger, stage string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldStage, Value: stage})...)
}
