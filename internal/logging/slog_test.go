package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestWithServiceAddsAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := WithService(slog.New(slog.NewTextHandler(&buf, nil)), "backup")

	logger.Info("test message")

	if !strings.Contains(buf.String(), "service=backup") {
		t.Errorf("expected service attribute in output: %s", buf.String())
	}
}

func TestWithOperationAddsAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOperation(slog.New(slog.NewTextHandler(&buf, nil)), "download")

	logger.Info("test message")

	if !strings.Contains(buf.String(), "operation=download") {
		t.Errorf("expected operation attribute in output: %s", buf.String())
	}
}

func TestErrWithNilErrorIsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("ok", Err(nil))

	if strings.Contains(buf.String(), "error=") {
		t.Errorf("nil error must not appear in output: %s", buf.String())
	}
}

func TestErrRendersMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Warn("failed", Err(errors.New("boom")))

	if !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("expected error attribute in output: %s", buf.String())
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q", got)
	}
	got := SanitizeToken("ya29.secret-token")
	if strings.Contains(got, "secret") {
		t.Errorf("token material leaked into %q", got)
	}
	if !strings.Contains(got, "17") {
		t.Errorf("expected length in %q", got)
	}
}
