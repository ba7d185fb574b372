package cli

import (
	"testing"
	"time"
)

func TestParseSinceDuration(t *testing.T) {
	tests := []struct {
		in      string
		wantAgo time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"12h", 12 * time.Hour, false},
		{"", 7 * 24 * time.Hour, false},
		{"  3d ", 3 * 24 * time.Hour, false},
		{"xd", 0, true},
		{"7w", 0, true},
	}
	for _, tt := range tests {
		got, err := parseSinceDuration(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseSinceDuration(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSinceDuration(%q): %v", tt.in, err)
			continue
		}
		ago := time.Now().UTC().Sub(got)
		if ago < tt.wantAgo-time.Minute || ago > tt.wantAgo+time.Minute {
			t.Errorf("parseSinceDuration(%q) = %v ago, want ~%v", tt.in, ago, tt.wantAgo)
		}
	}
}
