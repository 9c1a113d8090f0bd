package utils

import (
	"context"
	"strings"
	"time"
)

var sleep = time.Sleep

// WaitFor blocks for d or until ctx is done, whichever comes first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	// Captured before the goroutine starts so a later SetSleep restore does not race with it.
	fn := sleep
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// SetSleep replaces the sleep function used by WaitFor and returns a restore func.
// Tests across packages use it to keep backoff and cooldown instant.
func SetSleep(fn func(time.Duration)) (restore func()) {
	original := sleep
	sleep = fn
	return func() { sleep = original }
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// TruncateRunes cuts s to at most limit runes without adding a marker.
// Prompt builders use it to keep job descriptions and resumes inside their budget.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
