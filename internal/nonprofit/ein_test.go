package nonprofit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidEINFormat(t *testing.T) {
	cases := []struct {
		ein   string
		valid bool
	}{
		{"12-3456789", true},
		{"123456789", true},
		{"012345678", true},
		{"1-23456789", false},
		{"12-345678", false},
		{"12345678", false},
		{"1234567890", false},
		{"ab-cdefghi", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, ValidEINFormat(tc.ein), "ein %q", tc.ein)
	}
}

func TestEINFormatSource_Applicable(t *testing.T) {
	src := NewEINFormatSource()

	assert.True(t, src.Applicable("Org", "12-3456789"))
	assert.False(t, src.Applicable("Org", ""))
}

func TestEINFormatSource_NeverConfirms(t *testing.T) {
	src := NewEINFormatSource()

	status, confirmed := src.Check(context.Background(), "Org", "12-3456789")

	assert.False(t, confirmed)
	require.NotNil(t, status)
	require.NotNil(t, status.EINValidFormat)
	assert.True(t, *status.EINValidFormat)

	status, confirmed = src.Check(context.Background(), "Org", "not-an-ein")
	assert.False(t, confirmed)
	assert.False(t, *status.EINValidFormat)
}
