package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "09:00", want: 9 * 60},
		{input: "18:00", want: 18 * 60},
		{input: "00:00", want: 0},
		{input: "23:59", want: 23*60 + 59},
		{input: "09:00:00", want: 9 * 60},
		{input: "9:30", want: 9*60 + 30},
		{input: "24:00", want: 24 * 60},
		{input: "", wantErr: true},
		{input: "09", wantErr: true},
		{input: "25:00", wantErr: true},
		{input: "09:60", wantErr: true},
		{input: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClockTime(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicyAligned(t *testing.T) {
	p := DefaultPolicy()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	assert.True(t, p.Aligned(base, base.Add(30*time.Minute)))
	assert.True(t, p.Aligned(base, base.Add(2*time.Hour)))
	assert.False(t, p.Aligned(base, base.Add(45*time.Minute)))
	assert.False(t, p.Aligned(base, base))
	assert.False(t, p.Aligned(base, base.Add(-30*time.Minute)))
}

func TestPolicySlotsPerDay(t *testing.T) {
	p := DefaultPolicy()
	// 09:00-18:00 in 30-minute steps.
	assert.Equal(t, 18, p.SlotsPerDay())

	p.SlotDuration = time.Hour
	assert.Equal(t, 9, p.SlotsPerDay())
}
