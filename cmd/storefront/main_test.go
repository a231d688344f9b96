package main

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseItem(t *testing.T) {
	line, err := parseItem("45.50:2")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("45.5").Equal(line.UnitPrice))
	assert.Equal(t, 2, line.Quantity)

	line, err = parseItem("100")
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)

	for _, bad := range []string{"", "abc", "10:0", "10:x", "-5:1"} {
		_, err := parseItem(bad)
		assert.Error(t, err, bad)
	}
}

func TestQuoteCommand(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		lines []string
	}{
		{
			name:  "standard below threshold",
			args:  []string{"quote", "--item", "100:2"},
			lines: []string{"Subtotal  $200.00", "Shipping  $15.00", "Tax       $16.00", "Total     $231.00", "Pay $231.00"},
		},
		{
			name:  "free standard shipping at the threshold",
			args:  []string{"quote", "--item", "150", "--item", "100"},
			lines: []string{"Shipping  Free", "Total     $270.00"},
		},
		{
			name:  "express is never free",
			args:  []string{"quote", "--item", "300:1", "--method", "express"},
			lines: []string{"Shipping  $25.00", "Tax       $24.00", "Total     $349.00"},
		},
		{
			name:  "empty cart",
			args:  []string{"quote"},
			lines: []string{"Subtotal  $0.00", "Shipping  $15.00", "Total     $15.00"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			for _, line := range tt.lines {
				assert.Contains(t, out, line)
			}
		})
	}
}

func TestQuoteCommand_RejectsUnknownMethod(t *testing.T) {
	_, err := run(t, "quote", "--item", "10", "--method", "overnight")
	assert.ErrorContains(t, err, "shipping_method")
}

func TestSeedCommand_MemoryStore(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ID", "seed-test")

	out, err := run(t, "seed", "--driver", "memory")

	require.NoError(t, err)
	assert.Contains(t, out, "seeded 7 products")
}

func TestSeedCommand_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "seed", "--driver", "memory", "--file", "nope.yaml")

	assert.ErrorContains(t, err, "open catalog")
}
