package supervisor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

func TestValidateArgs(t *testing.T) {
	tests := []struct {
		name    string
		source  domain.CrawlerSource
		args    []string
		wantErr bool
	}{
		{"valid daily with domain", domain.SourceLeetCode, []string{"--daily", "--domain", "com"}, false},
		{"unknown flag rejected", domain.SourceLeetCode, []string{"--bogus"}, true},
		{"duplicate flag rejected", domain.SourceLeetCode, []string{"--daily", "--daily"}, true},
		{"missing required value rejected", domain.SourceLeetCode, []string{"--date"}, true},
		{"malformed date rejected", domain.SourceLeetCode, []string{"--date", "not-a-date"}, true},
		{"valid date accepted", domain.SourceLeetCode, []string{"--date", "2026-07-31"}, false},
		{"invalid domain rejected", domain.SourceLeetCode, []string{"--domain", "uk"}, true},
		{"valid monthly year and month", domain.SourceLeetCode, []string{"--monthly", "2024", "03"}, false},
		{"monthly year out of range rejected", domain.SourceLeetCode, []string{"--monthly", "1900", "03"}, true},
		{"monthly month out of range rejected", domain.SourceLeetCode, []string{"--monthly", "2024", "13"}, true},
		{"value without a preceding flag rejected", domain.SourceLeetCode, []string{"leetcode"}, true},
		{"valid positive rate limit", domain.SourceAtCoder, []string{"--rate-limit", "1.5"}, false},
		{"negative rate limit rejected", domain.SourceAtCoder, []string{"--rate-limit", "-1"}, true},
		{"non-numeric rate limit rejected", domain.SourceAtCoder, []string{"--rate-limit", "fast"}, true},
		{"absolute data-dir rejected", domain.SourceAtCoder, []string{"--data-dir", "/etc/passwd"}, true},
		{"data-dir path traversal rejected", domain.SourceAtCoder, []string{"--data-dir", "../etc"}, true},
		{"relative data-dir accepted", domain.SourceAtCoder, []string{"--data-dir", "data/atcoder"}, false},
		{"empty string value rejected", domain.SourceAtCoder, []string{"--contest", ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateArgs(tt.source, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, domain.ErrInvalidArgument)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateArgs_ReturnsArgsUnchangedOnSuccess(t *testing.T) {
	args := []string{"--daily", "--domain", "com"}
	got, err := ValidateArgs(domain.SourceLeetCode, args)
	require.NoError(t, err)
	require.Equal(t, args, got)
}
