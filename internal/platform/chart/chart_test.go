package chart

import (
	"strings"
	"testing"
)

func TestMonthlyBar(t *testing.T) {
	var totals [12]int
	totals[0], totals[5] = 4, 17
	out, err := MonthlyBar("Glucose Test Results", 2024, totals)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := string(out)
	for _, want := range []string{"Glucose Test Results", "Jun", "echarts"} {
		if !strings.Contains(html, want) {
			t.Errorf("chart missing %q", want)
		}
	}
}

func TestHistory_Empty(t *testing.T) {
	out, err := History("Glucose", "mg/dL", nil, 70, 140)
	if err != nil || out != "" {
		t.Errorf("expected empty output, got %q %v", out, err)
	}
}

func TestHistory_Points(t *testing.T) {
	out, err := History("Glucose", "mg/dL", []Point{{"01/06", 95}, {"02/06", 152.5}}, 70, 140)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), "152.5") {
		t.Error("expected series values in rendered chart")
	}
}
