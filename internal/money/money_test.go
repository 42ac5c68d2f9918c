package money

import (
	"encoding/json"
	"testing"
)

func TestPerThousandExact(t *testing.T) {
	price := FromMicros(3_000) // $0.003 per 1K tokens
	got := PerThousand(1_000, price)
	if got != price {
		t.Fatalf("PerThousand(1000) = %d, want %d", got, price)
	}
	if got := PerThousand(1, price); got != 3_000 {
		t.Fatalf("PerThousand(1) = %d nanodollars, want 3000", got)
	}
	if got := PerThousand(-5, price); got != 0 {
		t.Fatalf("PerThousand(-5) = %d, want 0", got)
	}
}

func TestPerThousandLinear(t *testing.T) {
	price := FromMicros(45_000)
	a := PerThousand(137, price) + PerThousand(911, price)
	b := PerThousand(137+911, price)
	if a != b {
		t.Fatalf("sum of parts = %d, whole = %d", a, b)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		in   Amount
		want string
	}{
		{0, "$0.000000"},
		{Dollar, "$1.000000"},
		{FromMicros(1_500), "$0.001500"},
		{12*Dollar + 34*Cent, "$12.340000"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("Amount(%d).String() = %q, want %q", int64(tt.in), got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("0.0125")
	if err != nil {
		t.Fatal(err)
	}
	if want := 125 * Dollar / 10_000; got != want {
		t.Fatalf("Parse(0.0125) = %d, want %d", got, want)
	}
	if _, err := Parse("twelve"); err == nil {
		t.Fatal("expected error for non-numeric input")
	}
}

func TestJSONAcceptsNumberAndString(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"0.5","b":0.25}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != Dollar/2 || v.B != Dollar/4 {
		t.Fatalf("decoded a=%d b=%d", v.A, v.B)
	}

	out, err := json.Marshal(v.A)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"0.5"` {
		t.Fatalf("Marshal = %s, want \"0.5\"", out)
	}
}
