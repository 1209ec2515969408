package indicators

import (
	"errors"
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	tests := []struct {
		name        string
		closes      []float64
		period      int
		expected    float64
		expectError bool
	}{
		{
			name:     "simple average over full window",
			closes:   []float64{1, 2, 3, 4},
			period:   4,
			expected: 2.5,
		},
		{
			name:     "only the last period values count",
			closes:   []float64{100, 100, 2, 4, 6},
			period:   3,
			expected: 4,
		},
		{
			name:        "insufficient data",
			closes:      []float64{1, 2},
			period:      3,
			expectError: true,
		},
		{
			name:        "empty series",
			closes:      nil,
			period:      9,
			expectError: true,
		},
		{
			name:        "non-positive period",
			closes:      []float64{1, 2, 3},
			period:      0,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := SMA(tt.closes, tt.period)
			if tt.expectError {
				if !errors.Is(err, ErrNotEnoughData) {
					t.Errorf("expected ErrNotEnoughData, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(value-tt.expected) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.expected, value)
			}
		})
	}
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name        string
		closes      []float64
		period      int
		expected    float64
		expectError bool
	}{
		{
			name:   "mixed gains and losses",
			closes: []float64{100, 102, 101, 103},
			period: 3,
			// gains 2+2=4, losses 1 -> rs=4 -> 100-100/5 = 80
			expected: 80,
		},
		{
			name:     "monotone rise yields 100",
			closes:   []float64{100, 101, 102, 103, 104, 105},
			period:   5,
			expected: 100,
		},
		{
			name:     "monotone fall yields 0",
			closes:   []float64{105, 104, 103, 102},
			period:   3,
			expected: 0,
		},
		{
			name:     "flat series counts as all gains",
			closes:   []float64{100, 100, 100, 100},
			period:   3,
			expected: 100,
		},
		{
			name:        "needs period+1 closes",
			closes:      []float64{100, 101, 102},
			period:      3,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := RSI(tt.closes, tt.period)
			if tt.expectError {
				if !errors.Is(err, ErrNotEnoughData) {
					t.Errorf("expected ErrNotEnoughData, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(value-tt.expected) > 1e-6 {
				t.Errorf("expected %f, got %f", tt.expected, value)
			}
			if value < 0 || value > 100 {
				t.Errorf("RSI %f outside [0,100]", value)
			}
		})
	}
}

func TestRSI_AlwaysBounded(t *testing.T) {
	closes := []float64{100, 120, 80, 140, 60, 160, 40, 180, 20, 200}
	for period := 2; period < len(closes); period++ {
		value, err := RSI(closes, period)
		if err != nil {
			t.Fatalf("period %d: unexpected error: %v", period, err)
		}
		if value < 0 || value > 100 {
			t.Errorf("period %d: RSI %f outside [0,100]", period, value)
		}
	}
}

func TestATR(t *testing.T) {
	tests := []struct {
		name                string
		highs, lows, closes []float64
		period              int
		expected            float64
		expectError         bool
	}{
		{
			name:   "plain high-low ranges",
			highs:  []float64{12, 13, 14},
			lows:   []float64{8, 9, 10},
			closes: []float64{10, 11, 12},
			period: 2,
			// TR1 = max(4, |13-10|, |9-10|) = 4, TR2 = max(4, |14-11|, |10-11|) = 4
			expected: 4,
		},
		{
			name:   "gap up dominates the range",
			highs:  []float64{11, 25},
			lows:   []float64{9, 22},
			closes: []float64{10, 24},
			period: 1,
			// TR = max(3, |25-10|, |22-10|) = 15
			expected: 15,
		},
		{
			name:        "needs period+1 bars",
			highs:       []float64{11, 12},
			lows:        []float64{9, 10},
			closes:      []float64{10, 11},
			period:      2,
			expectError: true,
		},
		{
			name:        "mismatched series lengths",
			highs:       []float64{11, 12},
			lows:        []float64{9, 10, 11},
			closes:      []float64{10, 11, 12},
			period:      2,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := ATR(tt.highs, tt.lows, tt.closes, tt.period)
			if tt.expectError {
				if !errors.Is(err, ErrNotEnoughData) {
					t.Errorf("expected ErrNotEnoughData, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(value-tt.expected) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.expected, value)
			}
			if value < 0 {
				t.Errorf("ATR %f must be non-negative", value)
			}
		})
	}
}
