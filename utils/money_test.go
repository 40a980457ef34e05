package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercentOf(t *testing.T) {
	cases := []struct {
		amount, rate, want string
	}{
		{"10000", "10", "1000"},
		{"10000", "12", "1200"},
		{"99.99", "3", "3"},
		{"0.05", "10", "0.01"},
		{"0.04", "10", "0"},
		{"123.45", "0", "0"},
	}
	for _, tc := range cases {
		got := PercentOf(decimal.RequireFromString(tc.amount), decimal.RequireFromString(tc.rate))
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "%s%% of %s = %s", tc.rate, tc.amount, got)
	}
}
