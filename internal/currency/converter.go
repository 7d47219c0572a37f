package currency

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/edgard/rublebot/internal/metrics"
)

// Converter turns an amount of a currency into rubles.
type Converter struct {
	source RateSource
	log    *slog.Logger
}

// NewConverter returns a Converter reading rates from source.
func NewConverter(source RateSource, log *slog.Logger) *Converter {
	return &Converter{source: source, log: log.With("component", "currency_converter")}
}

// Rate returns the current ruble rate of code; rubles are always 1.
func (c *Converter) Rate(ctx context.Context, code string) (float64, error) {
	if code == RUB {
		return 1, nil
	}
	if !IsSupported(code) {
		return 0, fmt.Errorf("unsupported currency %q", code)
	}

	start := time.Now()
	rate, err := c.source.Rate(ctx, code)
	metrics.Global().LookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Global().RateLookups.WithLabelValues(code, metrics.ResultError).Inc()
		return 0, fmt.Errorf("rate lookup for %s failed: %w", code, err)
	}
	metrics.Global().RateLookups.WithLabelValues(code, metrics.ResultOK).Inc()

	c.log.DebugContext(ctx, "Fetched rate", "currency", code, "rate", rate, "duration", time.Since(start))
	return rate, nil
}

// Convert returns amount*rate rounded half-to-even to two decimals. Rubles
// convert to themselves without a lookup. Results follow the scraped page, so
// two calls may differ.
func (c *Converter) Convert(ctx context.Context, code string, amount float64) (float64, error) {
	if code == RUB {
		return amount, nil
	}
	rate, err := c.Rate(ctx, code)
	if err != nil {
		return 0, err
	}
	return roundHalfEven(amount*rate, 2)
}

// exactDigits is enough fractional digits to print any float64 without loss.
const exactDigits = 1074

// roundHalfEven rounds the exact binary value of f, so 1.005 (stored as
// 1.00499...) gives 1.0 and 0.125 gives 0.12.
func roundHalfEven(f float64, places int32) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("converted amount %v is not finite", f)
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(f, 'f', exactDigits, 64))
	if err != nil {
		return 0, fmt.Errorf("parse converted amount: %w", err)
	}
	return d.RoundBank(places).InexactFloat64(), nil
}
