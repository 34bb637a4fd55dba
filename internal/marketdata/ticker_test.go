package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateSymbols(t *testing.T) {
	tests := []struct {
		name   string
		ticker string
		want   []string
	}{
		{
			name:   "US ticker gets suffix fallbacks",
			ticker: "AAPL",
			want:   []string{"AAPL", "AAPL.SI", "AAPL.HK", "AAPL.TO", "AAPL.L"},
		},
		{
			name:   "already suffixed passes through",
			ticker: "D05.SI",
			want:   []string{"D05.SI"},
		},
		{
			name:   "lowercase is normalized",
			ticker: "d05.si",
			want:   []string{"D05.SI"},
		},
		{
			name:   "SGX prefix",
			ticker: "SGX:D05",
			want:   []string{"D05.SI", "D05"},
		},
		{
			name:   "HKG prefix pads short numeric codes",
			ticker: "HKG:700",
			want:   []string{"700.HK", "0700.HK", "700"},
		},
		{
			name:   "HKG prefix with four digits",
			ticker: "HKG:9988",
			want:   []string{"9988.HK", "9988"},
		},
		{
			name:   "NASDAQ prefix strips to bare symbol",
			ticker: "NASDAQ:MSFT",
			want:   []string{"MSFT"},
		},
		{
			name:   "unknown exchange prefix used as suffix",
			ticker: "ASX:BHP",
			want:   []string{"BHP.ASX", "BHP"},
		},
		{
			name:   "whitespace trimmed",
			ticker: "  aapl.l ",
			want:   []string{"AAPL.L"},
		},
		{
			name:   "empty input",
			ticker: "",
			want:   nil,
		},
		{
			name:   "prefix with empty symbol",
			ticker: "SGX:",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CandidateSymbols(tt.ticker))
		})
	}
}
