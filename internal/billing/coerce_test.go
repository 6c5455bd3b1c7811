package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"2500", 2500},
		{" 2500 ", 2500},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"25.50", 0},
		{"-100", 0},
		{"9999999999", 9999999999},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseAmount(tc.in), "input %q", tc.in)
	}
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-01-15")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), got)

	_, ok = ParseDate("15/01/2024")
	assert.False(t, ok)

	_, ok = ParseDate("")
	assert.False(t, ok)

	_, ok = ParseDate("2024-02-30")
	assert.False(t, ok)
}

func TestFormatDateRoundTrip(t *testing.T) {
	d := time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
	parsed, ok := ParseDate(FormatDate(d))
	assert.True(t, ok)
	assert.Equal(t, d, parsed)
}
