package database

import (
	"context"
	"errors"
	"testing"
)

func TestCheck(t *testing.T) {
	status, ok := Check(context.Background(), map[string]Pinger{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("refused") },
	})
	if ok {
		t.Error("Check() reported healthy with a failing probe")
	}
	if status["postgres"] != "ok" {
		t.Errorf("postgres = %q", status["postgres"])
	}
	if status["redis"] != "down: refused" {
		t.Errorf("redis = %q", status["redis"])
	}
}
