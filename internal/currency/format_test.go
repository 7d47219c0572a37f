package currency

import "testing"

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mention   Mention
		converted float64
		want      string
	}{
		{mention: Mention{Code: "usd", Amount: 100}, converted: 9050, want: "100.0 USD = 9050.0 RUB"},
		{mention: Mention{Code: "rub", Amount: 500}, converted: 500, want: "500.0 RUB = 500.0 RUB"},
		{mention: Mention{Code: "eur", Amount: 3}, converted: 296.37, want: "3.0 EUR = 296.37 RUB"},
		{mention: Mention{Code: "idr", Amount: 10000}, converted: 55.1, want: "10000.0 IDR = 55.1 RUB"},
	}
	for _, tt := range tests {
		if got := Format(tt.mention, tt.converted); got != tt.want {
			t.Errorf("Format(%+v, %v) = %q, want %q", tt.mention, tt.converted, got, tt.want)
		}
	}
}
