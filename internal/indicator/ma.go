package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"github.com/shopspring/decimal"
)

// MovingAverage is a simple moving average over a trailing window of prices.
// The running sum is kept in decimal so that the mean always equals the exact
// arithmetic mean of the buffer, however many prices were added and evicted.
type MovingAverage struct {
	window  int
	minFill int

	// buffer is a ring of the last window prices; head is the next write slot
	buffer []decimal.Decimal
	head   int
	count  int
	sum    decimal.Decimal
}

var _ Tracker = (*MovingAverage)(nil)

// NewMovingAverage creates a tracker over the given window that starts reporting once
// minFill prices have been seen.
func NewMovingAverage(window, minFill int) (*MovingAverage, error) {
	if window <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidWindow, "window must be positive, got %d", window)
	}

	if minFill <= 0 || minFill > window {
		return nil, errors.Newf(errors.ErrCodeInvalidWindow, "min fill must be in [1, %d], got %d", window, minFill)
	}

	return &MovingAverage{
		window:  window,
		minFill: minFill,
		buffer:  make([]decimal.Decimal, window),
		head:    0,
		count:   0,
		sum:     decimal.Zero,
	}, nil
}

// Name returns the name of the tracker.
func (m *MovingAverage) Name() string {
	return fmt.Sprintf("ma(%d)", m.window)
}

// Window returns the configured window length.
func (m *MovingAverage) Window() int {
	return m.window
}

// Len returns the number of prices currently buffered.
func (m *MovingAverage) Len() int {
	return m.count
}

// Update pushes a price, evicting the oldest one when the window is full.
func (m *MovingAverage) Update(price float64) optional.Option[float64] {
	d := decimal.NewFromFloat(price)

	if m.count == m.window {
		m.sum = m.sum.Sub(m.buffer[m.head])
	} else {
		m.count++
	}

	m.buffer[m.head] = d
	m.head = (m.head + 1) % m.window
	m.sum = m.sum.Add(d)

	if !m.Ready() {
		return optional.None[float64]()
	}

	return optional.Some(m.mean())
}

// Value returns the current mean.
func (m *MovingAverage) Value() (float64, error) {
	if !m.Ready() {
		return 0, errors.NewInsufficientWarmupError(m.Name(), m.minFill, m.count)
	}

	return m.mean(), nil
}

// Ready reports whether min fill has been reached.
func (m *MovingAverage) Ready() bool {
	return m.count >= m.minFill
}

// Reset clears the buffer. Called at the start of every trading day.
func (m *MovingAverage) Reset() {
	for i := range m.buffer {
		m.buffer[i] = decimal.Zero
	}

	m.head = 0
	m.count = 0
	m.sum = decimal.Zero
}

// Oldest returns the earliest buffered price, the one the next Update evicts once the
// window is full.
func (m *MovingAverage) Oldest() optional.Option[float64] {
	if m.count == 0 {
		return optional.None[float64]()
	}

	return optional.Some(m.buffer[(m.head-m.count+m.window)%m.window].InexactFloat64())
}

// Prices returns the buffered prices, oldest first.
func (m *MovingAverage) Prices() []float64 {
	prices := make([]float64, 0, m.count)
	start := (m.head - m.count + m.window) % m.window

	for i := range m.count {
		prices = append(prices, m.buffer[(start+i)%m.window].InexactFloat64())
	}

	return prices
}

func (m *MovingAverage) mean() float64 {
	return m.sum.Div(decimal.NewFromInt(int64(m.count))).InexactFloat64()
}
