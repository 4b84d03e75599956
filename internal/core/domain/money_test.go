package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Total: 1300})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"total":13.00}` {
		t.Fatalf("unexpected encoding %s", b)
	}

	var in struct {
		Price Money `json:"price"`
	}
	for raw, want := range map[string]Money{
		`{"price":6.5}`:    650,
		`{"price":0.1}`:    10,
		`{"price":120}`:    12000,
		`{"price":"2.35"}`: 235,
		`{"price":0.285}`:  29,
		`{"price":1.005}`:  101,
		`{"price":1e3}`:    100000,
	} {
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if in.Price != want {
			t.Fatalf("%s: expected %d, got %d", raw, want, in.Price)
		}
	}

	if err := json.Unmarshal([]byte(`{"price":"abc"}`), &in); err == nil {
		t.Fatalf("expected error for non-numeric price")
	}
	for _, raw := range []string{`{"price":1e17}`, `{"price":-1e17}`, `{"price":92233720368547758.08}`} {
		if err := json.Unmarshal([]byte(raw), &in); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", raw, err)
		}
	}
}

func TestParseMoney(t *testing.T) {
	m, err := ParseMoney("10000000000")
	if err != nil || m != MaxMoney {
		t.Fatalf("expected MaxMoney, got %d (%v)", m, err)
	}
	if _, err := ParseMoney("10000000000.01"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation past MaxMoney, got %v", err)
	}
	if m, _ := ParseMoney("-0.005"); m != -1 {
		t.Fatalf("expected half away from zero, got %d", m)
	}
}

func TestMoney_String(t *testing.T) {
	cases := map[Money]string{
		0:                    "0.00",
		5:                    "0.05",
		1300:                 "13.00",
		-250:                 "-2.50",
		-5:                   "-0.05",
		Money(math.MinInt64): "-92233720368547758.08",
	}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Fatalf("%d: expected %s, got %s", m, want, got)
		}
	}
}
