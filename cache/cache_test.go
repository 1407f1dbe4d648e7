package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestCacheKey_Validation tests key validation rules.
func TestCacheKey_Validation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", ErrInvalidKey},
		{"valid key", "norm:node--article:abc123", nil},
		{"too long", strings.Repeat("x", MaxKeyLength+1), ErrKeyTooLong},
		{"contains newline", "key\nwith\nnewlines", ErrInvalidKey},
		{"contains carriage return", "key\rwith\rreturns", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"max length exactly", strings.Repeat("x", MaxKeyLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if err != tt.wantErr {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestLookup_Validate(t *testing.T) {
	tests := []struct {
		name    string
		lookup  Lookup
		wantErr bool
	}{
		{"valid", Lookup{Key: "norm:a:1", Bin: DefaultBin}, false},
		{"empty bin", Lookup{Key: "norm:a:1"}, true},
		{"bin with separator", Lookup{Key: "norm:a:1", Bin: "a:b"}, true},
		{"bin with slot separator", Lookup{Key: "norm:a:1", Bin: "a|b"}, true},
		{"empty key", Lookup{Bin: DefaultBin}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lookup.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLookup_Address(t *testing.T) {
	l := Lookup{Key: "norm:node--article:abc", Bin: "normalizations"}
	if got, want := l.Address(), "normalizations:norm:node--article:abc"; got != want {
		t.Errorf("Address() = %q, want %q", got, want)
	}
}

// TestSentinelErrors verifies sentinel errors have expected messages.
func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrNilStore", ErrNilStore, "cache: store is nil"},
		{"ErrInvalidKey", ErrInvalidKey, "cache: key is invalid"},
		{"ErrKeyTooLong", ErrKeyTooLong, "cache: key exceeds max length"},
		{"ErrInvalidEntry", ErrInvalidEntry, "cache: entry is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("%s.Error() = %q, want %q", tt.name, got, tt.wantMsg)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrInvalidKey, true},
		{ErrKeyTooLong, true},
		{fmt.Errorf("redisstore: decode record: %w", ErrInvalidEntry), true},
		{errors.New("connection refused"), false},
		{context.DeadlineExceeded, false},
		{ErrNilStore, false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := IsInvalid(tt.err); got != tt.want {
			t.Errorf("IsInvalid(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
