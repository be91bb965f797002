package indicator

import (
	"errors"
	"math"
	"testing"
)

func TestRSI_AllGains(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	rsi, err := RSI(closes, 14)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	if !math.IsNaN(rsi[0]) {
		t.Errorf("rsi[0] = %v, want NaN (no prior close)", rsi[0])
	}
	for i := 1; i < len(rsi); i++ {
		if rsi[i] != 100 {
			t.Errorf("rsi[%d] = %v, want 100 for all-gain series", i, rsi[i])
		}
	}
}

func TestRSI_AllLosses(t *testing.T) {
	closes := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	rsi, err := RSI(closes, 14)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	for i := 1; i < len(rsi); i++ {
		if rsi[i] != 0 {
			t.Errorf("rsi[%d] = %v, want 0 for all-loss series", i, rsi[i])
		}
	}
}

func TestRSI_FlatSeries(t *testing.T) {
	// Zero average loss means RS is treated as infinite.
	rsi, err := RSI([]float64{5, 5, 5, 5}, 2)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	for i := 1; i < len(rsi); i++ {
		if rsi[i] != 100 {
			t.Errorf("rsi[%d] = %v, want 100 for flat series", i, rsi[i])
		}
	}
}

func TestRSI_WilderSmoothing(t *testing.T) {
	// Gains [1,0], losses [0,1]; with period 2 the averages are
	// gain [1, 0.5] and loss [0, 0.5], so RSI is [NaN, 100, 50].
	rsi, err := RSI([]float64{1, 2, 1}, 2)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	if !math.IsNaN(rsi[0]) {
		t.Errorf("rsi[0] = %v, want NaN", rsi[0])
	}
	if rsi[1] != 100 {
		t.Errorf("rsi[1] = %v, want 100", rsi[1])
	}
	if !approx(rsi[2], 50) {
		t.Errorf("rsi[2] = %v, want 50", rsi[2])
	}
}

func TestRSI_SinglePoint(t *testing.T) {
	rsi, err := RSI([]float64{7}, 14)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	if len(rsi) != 1 || !math.IsNaN(rsi[0]) {
		t.Errorf("single point: got %v, want [NaN]", rsi)
	}
}

func TestRSI_Validation(t *testing.T) {
	if _, err := RSI(nil, 14); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("empty input: got %v, want ErrEmptySeries", err)
	}
	if _, err := RSI([]float64{1, 2}, 0); err == nil {
		t.Error("expected error for non-positive period")
	}
}
