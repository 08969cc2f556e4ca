package mocks

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Days = 2

	data := gen.Generate(config)

	// 09:15 to 15:29 inclusive is 375 one-minute bars
	if len(data) != 750 {
		t.Errorf("expected 750 bars, got %d", len(data))
	}

	// Verify data is in chronological order
	for i := 1; i < len(data); i++ {
		if !data[i].Time.After(data[i-1].Time) {
			t.Errorf("data not in chronological order at index %d", i)
		}
	}

	for i, d := range data {
		if d.Symbol != config.Symbol {
			t.Errorf("expected symbol %s at index %d, got %s", config.Symbol, i, d.Symbol)
		}

		if d.Price <= 0 {
			t.Errorf("invalid price at index %d: %f", i, d.Price)
		}
	}

	days, err := types.GroupByDay(data, IST)
	if err != nil {
		t.Fatalf("failed to group bars: %v", err)
	}

	if len(days) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(days))
	}

	first := days[0].Bars[0].Time
	if first.Hour() != 9 || first.Minute() != 15 {
		t.Errorf("expected session to open at 09:15, got %s", first.Format("15:04"))
	}

	last := days[0].Last().Unwrap().Time
	if last.Hour() != 15 || last.Minute() != 29 {
		t.Errorf("expected session to close at 15:29, got %s", last.Format("15:04"))
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	// Same seed should produce same results
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(42)

	config := DefaultConfig()
	config.Days = 1

	data1 := gen1.Generate(config)
	data2 := gen2.Generate(config)

	for i := range data1 {
		if data1[i].Price != data2[i].Price {
			t.Errorf("data not reproducible at index %d: got %f and %f",
				i, data1[i].Price, data2[i].Price)
		}
	}
}

func TestDataGenerator_Different_Seeds(t *testing.T) {
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(123)

	config := DefaultConfig()
	config.Days = 1

	data1 := gen1.Generate(config)
	data2 := gen2.Generate(config)

	same := true
	for i := range data1 {
		if data1[i].Price != data2[i].Price {
			same = false
			break
		}
	}

	if same {
		t.Error("different seeds produced identical data")
	}
}

func TestSessionDatesSkipWeekends(t *testing.T) {
	// 2024-01-26 is a Friday
	dates := SessionDates(time.Date(2024, 1, 26, 0, 0, 0, 0, IST), 2)

	if len(dates) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(dates))
	}

	if dates[1].Weekday() != time.Monday || dates[1].Day() != 29 {
		t.Errorf("expected Monday 29th, got %s", dates[1].Format("Mon 2006-01-02"))
	}
}

func TestSessionBarsAndLinearPrices(t *testing.T) {
	prices := LinearPrices(100, 110, 11)
	if prices[0] != 100 || prices[10] != 110 || prices[5] != 105 {
		t.Errorf("unexpected ramp: %v", prices)
	}

	date := time.Date(2024, 1, 22, 0, 0, 0, 0, IST)
	bars := SessionBars("NIFTY", date, types.ClockTime{Hour: 9, Minute: 15}, time.Minute, prices)

	if len(bars) != 11 {
		t.Fatalf("expected 11 bars, got %d", len(bars))
	}

	if got := bars[10].Time.Format("15:04"); got != "09:25" {
		t.Errorf("expected last bar at 09:25, got %s", got)
	}

	if flat := ConstantPrices(7, 3); len(flat) != 3 || flat[2] != 7 {
		t.Errorf("unexpected constant prices: %v", flat)
	}
}
