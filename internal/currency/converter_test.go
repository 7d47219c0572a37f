package currency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type staticRates struct {
	rates map[string]float64
	calls atomic.Int32
}

func (s *staticRates) Rate(_ context.Context, code string) (float64, error) {
	s.calls.Add(1)
	rate, ok := s.rates[code]
	if !ok {
		return 0, ErrRateNotFound
	}
	return rate, nil
}

type slowRates struct{}

func (slowRates) Rate(ctx context.Context, _ string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConvert(t *testing.T) {
	t.Parallel()

	src := &staticRates{rates: map[string]float64{"usd": 90.5, "eur": 98.789}}
	conv := NewConverter(src, discardLogger())
	ctx := context.Background()

	got, err := conv.Convert(ctx, "usd", 100)
	if err != nil || got != 9050 {
		t.Fatalf("Convert(usd, 100) = %v, %v; want 9050", got, err)
	}

	got, err = conv.Convert(ctx, "eur", 3)
	if err != nil || got != 296.37 {
		t.Fatalf("Convert(eur, 3) = %v, %v; want 296.37", got, err)
	}

	if _, err := conv.Convert(ctx, "gbp", 1); !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if _, err := conv.Convert(ctx, "xyz", 1); err == nil {
		t.Fatal("expected unsupported currency error")
	}
}

func TestConvertRoundsHalfToEven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rate   float64
		amount float64
		want   float64
	}{
		{name: "exact tie rounds to even", rate: 0.125, amount: 1, want: 0.12},
		{name: "exact tie rounds up to even", rate: 0.375, amount: 1, want: 0.38},
		{name: "stored below tie", rate: 1.005, amount: 1, want: 1.0},
		{name: "stored below tie again", rate: 2.675, amount: 1, want: 2.67},
		{name: "product of whole values", rate: 90.5, amount: 100, want: 9050},
		{name: "negative tie", rate: 0.125, amount: -1, want: -0.12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := NewConverter(&staticRates{rates: map[string]float64{"usd": tt.rate}}, discardLogger())
			got, err := conv.Convert(context.Background(), "usd", tt.amount)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if got != tt.want {
				t.Errorf("Convert(usd, %v) at rate %v = %v, want %v", tt.amount, tt.rate, got, tt.want)
			}
		})
	}
}

func TestConvertOverflow(t *testing.T) {
	t.Parallel()

	conv := NewConverter(&staticRates{rates: map[string]float64{"usd": 90.5}}, discardLogger())
	if _, err := conv.Convert(context.Background(), "usd", math.MaxFloat64); err == nil {
		t.Fatal("expected error for an infinite result")
	}
}

func TestConvertRublesIsIdentity(t *testing.T) {
	t.Parallel()

	src := &staticRates{}
	conv := NewConverter(src, discardLogger())

	for _, amount := range []float64{0, 1, 500, 1234.5678, 1e9} {
		got, err := conv.Convert(context.Background(), RUB, amount)
		if err != nil || got != amount {
			t.Errorf("Convert(rub, %v) = %v, %v", amount, got, err)
		}
	}
	if src.calls.Load() != 0 {
		t.Errorf("rubles must not trigger a lookup, got %d", src.calls.Load())
	}
}

func TestScenarioHundredDollars(t *testing.T) {
	t.Parallel()

	m, err := Classify("100 usd")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	conv := NewConverter(&staticRates{rates: map[string]float64{"usd": 90.5}}, discardLogger())
	converted, err := conv.Convert(context.Background(), m.Code, m.Amount)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := Format(m, converted); got != "100.0 USD = 9050.0 RUB" {
		t.Errorf("reply = %q", got)
	}
}

func TestLookupsTimeout(t *testing.T) {
	t.Parallel()

	lookups := NewLookups(NewConverter(slowRates{}, discardLogger()), 1, 20*time.Millisecond, discardLogger())

	var mu sync.Mutex
	var gotErr error
	start := time.Now()
	lookups.Go(context.Background(), Mention{Code: "usd", Amount: 1}, func(_ context.Context, _ Mention, _ float64, err error) {
		mu.Lock()
		gotErr = err
		mu.Unlock()
	})
	lookups.Wait()

	if !errors.Is(gotErr, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", gotErr)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("lookup did not honour its timeout")
	}
}

func TestLookupsRunConcurrently(t *testing.T) {
	t.Parallel()

	src := &staticRates{rates: map[string]float64{"usd": 2}}
	lookups := NewLookups(NewConverter(src, discardLogger()), 2, time.Second, discardLogger())

	var mu sync.Mutex
	results := map[float64]float64{}
	for _, amount := range []float64{1, 2, 3, 4} {
		lookups.Go(context.Background(), Mention{Code: "usd", Amount: amount}, func(_ context.Context, m Mention, converted float64, err error) {
			if err != nil {
				t.Errorf("lookup failed: %v", err)
				return
			}
			mu.Lock()
			results[m.Amount] = converted
			mu.Unlock()
		})
	}
	lookups.Wait()

	for amount, converted := range results {
		if converted != amount*2 {
			t.Errorf("converted %v to %v", amount, converted)
		}
	}
	if len(results) != 4 {
		t.Errorf("got %d results, want 4", len(results))
	}
}
