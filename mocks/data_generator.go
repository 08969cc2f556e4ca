package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-options/internal/types"
)

// IST is the exchange timezone used by generated sessions.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// DataGenerator generates intraday underlying bars for testing.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// Symbol is the underlying (e.g., "NIFTY")
	Symbol string
	// StartDate is the first session date; weekends are skipped
	StartDate time.Time
	// Days is the number of sessions to generate
	Days int
	// SessionOpen is the time of the first bar of each session
	SessionOpen types.ClockTime
	// SessionClose is the time of the last bar of each session
	SessionClose types.ClockTime
	// Interval is the duration between each bar
	Interval time.Duration
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement per bar (0.0005 = 0.05%)
	Volatility float64
	// Trend is the drift per session (-0.01 to 0.01 for bearish to bullish)
	Trend float64
}

// DefaultConfig returns five one-minute NIFTY sessions.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "NIFTY",
		StartDate:    time.Date(2024, 1, 22, 0, 0, 0, 0, IST),
		Days:         5,
		SessionOpen:  types.ClockTime{Hour: 9, Minute: 15},
		SessionClose: types.ClockTime{Hour: 15, Minute: 29},
		Interval:     time.Minute,
		InitialPrice: 21500,
		Volatility:   0.0005, // 0.05% per bar
		Trend:        0.0,    // neutral
	}
}

// Generate creates bars for every session in the configuration. Prices follow a
// geometric Brownian motion that carries over from one session to the next.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	var bars []types.Bar

	price := config.InitialPrice

	for _, date := range SessionDates(config.StartDate, config.Days) {
		times := SessionTimes(date, config.SessionOpen, config.SessionClose, config.Interval)
		drift := config.Trend / float64(len(times))

		for _, t := range times {
			// Box-Muller transform for a standard normal draw
			u1 := g.rng.Float64()
			u2 := g.rng.Float64()
			z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

			next := price * (1 + config.Volatility*z + drift)
			if next <= 0 {
				next = price * 0.99
			}

			bars = append(bars, types.Bar{
				Time:   t,
				Symbol: config.Symbol,
				Price:  roundToDecimals(next, 2),
			})

			price = next
		}
	}

	return bars
}

// SessionDates returns count weekdays starting at start.
func SessionDates(start time.Time, count int) []time.Time {
	dates := make([]time.Time, 0, count)

	for date := start; len(dates) < count; date = date.AddDate(0, 0, 1) {
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		dates = append(dates, date)
	}

	return dates
}

// SessionTimes returns the bar timestamps of one session, open and close included.
func SessionTimes(date time.Time, open, last types.ClockTime, interval time.Duration) []time.Time {
	var times []time.Time

	end := last.On(date)
	for t := open.On(date); !t.After(end); t = t.Add(interval) {
		times = append(times, t)
	}

	return times
}

// SessionBars places prices on consecutive interval steps starting at open on date.
func SessionBars(symbol string, date time.Time, open types.ClockTime, interval time.Duration, prices []float64) []types.Bar {
	bars := make([]types.Bar, 0, len(prices))
	start := open.On(date)

	for i, price := range prices {
		bars = append(bars, types.Bar{
			Time:   start.Add(time.Duration(i) * interval),
			Symbol: symbol,
			Price:  price,
		})
	}

	return bars
}

// LinearPrices returns n prices moving in equal steps from from to to.
func LinearPrices(from, to float64, n int) []float64 {
	if n == 1 {
		return []float64{from}
	}

	prices := make([]float64, n)
	step := (to - from) / float64(n-1)

	for i := range prices {
		prices[i] = from + step*float64(i)
	}

	return prices
}

// ConstantPrices returns n copies of price.
func ConstantPrices(price float64, n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = price
	}

	return prices
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
