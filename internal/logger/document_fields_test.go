package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDocumentFields(t *testing.T) {
	fields := DocumentFields(" run-1 ", "cv.pdf", 2)
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[0].Key != FieldRunID || fields[0].String != "run-1" {
		t.Fatalf("unexpected run field: %+v", fields[0])
	}
	if fields[1].Key != FieldDocument || fields[1].String != "cv.pdf" {
		t.Fatalf("unexpected document field: %+v", fields[1])
	}
	if fields[2].Key != "order" || fields[2].String != "2" {
		t.Fatalf("unexpected order field: %+v", fields[2])
	}

	if got := DocumentFields("", "", 0); len(got) != 0 {
		t.Fatalf("expected no fields, got %d", len(got))
	}
}

func TestWithDocumentFieldsAndStage(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := WithStage(WithDocumentFields(zap.New(core), "run-7", "a.pdf", 1), "screening")
	log.Debug("stage started")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx[FieldRunID] != "run-7" || ctx[FieldDocument] != "a.pdf" || ctx[FieldStage] != "screening" {
		t.Fatalf("unexpected context: %v", ctx)
	}

	if WithStage(nil, "") == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
}
