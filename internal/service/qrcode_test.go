package service

import (
	"strings"
	"testing"
	"time"
)

func TestNewQRCode(t *testing.T) {
	t.Parallel()

	code, err := NewQRCode()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(code, "QR") {
		t.Fatalf("expected QR prefix, got %s", code)
	}
	if code != strings.ToUpper(code) {
		t.Fatalf("expected upper case code, got %s", code)
	}
	if len(code) > 64 {
		t.Fatalf("code %s exceeds column width", code)
	}
}

func TestNewQRCodeSameInstantDiffers(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code, err := newQRCodeAt(now)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %s at iteration %d", code, i)
		}
		seen[code] = struct{}{}
	}
}
