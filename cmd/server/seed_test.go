package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
}

func TestParseSeedItems(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	in := `
items:
  - name: pen
    price: "1.50"
  - name: book
    price: 12
`
	items, err := parseSeedItems(strings.NewReader(in), seqIDs(), now)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "item-1", items[0].ID)
	assert.Equal(t, "pen", items[0].Name)
	assert.True(t, decimal.RequireFromString("1.5").Equal(items[0].Price))
	assert.Equal(t, "book", items[1].Name)
	assert.True(t, decimal.NewFromInt(12).Equal(items[1].Price))
	assert.Equal(t, now, items[1].CreatedAt)
}

func TestParseSeedItems_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty list", "items: []\n"},
		{"missing name", "items:\n  - price: \"1\"\n"},
		{"bad price", "items:\n  - name: pen\n    price: cheap\n"},
		{"negative price", "items:\n  - name: pen\n    price: \"-1\"\n"},
		{"duplicate", "items:\n  - name: pen\n    price: 1\n  - name: pen\n    price: 2\n"},
		{"not yaml", "items: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSeedItems(strings.NewReader(tt.in), seqIDs(), time.Now())
			assert.Error(t, err)
		})
	}
}
