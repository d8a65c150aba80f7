//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(42)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		if v1, v2 := f1.Int(0, 1000), f2.Int(0, 1000); v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
		if n1, n2 := f1.ProductName(), f2.ProductName(); n1 != n2 {
			t.Errorf("Same seed produced different product names: %q != %q", n1, n2)
		}
	}
}

func TestFakerStrings(t *testing.T) {
	f := NewFakerWithSeed(1)
	for name, fn := range map[string]func() string{
		"Name":        f.Name,
		"ProductName": f.ProductName,
	} {
		if fn() == "" {
			t.Errorf("%s returned empty string", name)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFakerWithSeed(7)
	for i := 0; i < 100; i++ {
		v := f.Int(1, 5)
		if v < 1 || v > 5 {
			t.Fatalf("Int(1, 5) = %d, out of range", v)
		}
	}
}

func TestFakerMoney(t *testing.T) {
	f := NewFakerWithSeed(7)
	for i := 0; i < 100; i++ {
		m := f.Money(5, 250)
		if m.LessThan(mustDecimal(t, "5")) || m.GreaterThan(mustDecimal(t, "250")) {
			t.Fatalf("Money(5, 250) = %s, out of range", m)
		}
		if m.Exponent() < -2 {
			t.Fatalf("Money returned more than two decimals: %s", m)
		}
	}
}

func TestFakerPast(t *testing.T) {
	f := NewFakerWithSeed(7)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	oldest := now.AddDate(0, 0, -179).Add(-24 * time.Hour)
	for i := 0; i < 200; i++ {
		ts := f.Past(now, 179)
		if ts.After(now) {
			t.Fatalf("Past returned a future time: %v", ts)
		}
		if ts.Before(oldest) {
			t.Fatalf("Past returned a time before %v: %v", oldest, ts)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFakerWithSeed(3)
	items := []string{"a", "b", "c"}
	for i := 0; i < 50; i++ {
		got := Choose(f, items)
		if !strings.Contains("abc", got) {
			t.Fatalf("Choose returned %q", got)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFakerWithSeed(3)
	if got := Choose(f, []int{}); got != 0 {
		t.Errorf("Choose on empty slice = %d, want 0", got)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFakerWithSeed(3)
	items := []string{"always", "never"}
	weights := []int{1, 0}
	for i := 0; i < 50; i++ {
		if got := ChooseWeighted(f, items, weights); got != "always" {
			t.Fatalf("ChooseWeighted returned zero-weight item %q", got)
		}
	}
}

func TestChooseWeightedEmpty(t *testing.T) {
	f := NewFakerWithSeed(3)
	if got := ChooseWeighted(f, []string{}, []int{}); got != "" {
		t.Errorf("ChooseWeighted on empty slice = %q", got)
	}
}

func TestSampleDistinct(t *testing.T) {
	tests := []struct {
		name  string
		items int
		n     int
		want  int
	}{
		{"sparse", 100, 5, 5},
		{"dense", 6, 5, 5},
		{"exact", 5, 5, 5},
		{"capped", 3, 5, 3},
		{"zero", 10, 0, 0},
		{"negative", 10, -1, 0},
		{"empty", 0, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFakerWithSeed(11)
			items := make([]int, tt.items)
			for i := range items {
				items[i] = i
			}
			got := SampleDistinct(f, items, tt.n)
			if len(got) != tt.want {
				t.Fatalf("len = %d, want %d", len(got), tt.want)
			}
			seen := map[int]bool{}
			for _, v := range got {
				if seen[v] {
					t.Fatalf("duplicate element %d in %v", v, got)
				}
				seen[v] = true
			}
		})
	}
}

func TestSampleDistinctDeterministic(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	a := SampleDistinct(NewFakerWithSeed(99), items, 3)
	b := SampleDistinct(NewFakerWithSeed(99), items, 3)
	if strings.Join(a, ",") != strings.Join(b, ",") {
		t.Errorf("same seed gave %v and %v", a, b)
	}
}

func TestProgressReporter(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(zerolog.New(&buf), "orders", 25, 10)

	p.Update(5)
	if buf.Len() != 0 {
		t.Errorf("logged before crossing an interval: %s", buf.String())
	}
	p.Update(7)
	if !strings.Contains(buf.String(), `"table":"orders"`) {
		t.Errorf("expected progress line, got %q", buf.String())
	}
	p.Done()
	if !strings.Contains(buf.String(), `"rows":12`) {
		t.Errorf("expected 12 rows in completion line, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Table complete") {
		t.Errorf("expected completion line, got %q", buf.String())
	}
}

func BenchmarkSampleDistinct(b *testing.B) {
	f := NewFakerWithSeed(1)
	items := make([]int, 4000)
	for i := range items {
		items[i] = i
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SampleDistinct(f, items, 5)
	}
}
