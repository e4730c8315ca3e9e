package sources

import (
	"encoding/json"
	"testing"
)

func TestEmployeeBucketBreakpoints(t *testing.T) {
	cases := []struct {
		employees int
		want      string
	}{
		{0, "1-10"},
		{1, "1-10"},
		{10, "1-10"},
		{11, "11-50"},
		{50, "11-50"},
		{51, "51-250"},
		{250, "51-250"},
		{251, "251-1000"},
		{1000, "251-1000"},
		{1001, "1000+"},
		{250000, "1000+"},
	}
	for _, tc := range cases {
		if got := EmployeeBucket(tc.employees); got != tc.want {
			t.Errorf("EmployeeBucket(%d) = %s, want %s", tc.employees, got, tc.want)
		}
	}
}

func TestRevenueBucketBreakpoints(t *testing.T) {
	cases := []struct {
		revenue float64
		want    string
	}{
		{0, "$0-$1M"},
		{1_000_000, "$0-$1M"},
		{1_000_001, "$1M-$10M"},
		{10_000_000, "$1M-$10M"},
		{50_000_000, "$10M-$100M"},
		{100_000_000, "$10M-$100M"},
		{100_000_001, "$100M-$1B"},
		{1_000_000_000, "$100M-$1B"},
		{1_000_000_001, "$1B+"},
	}
	for _, tc := range cases {
		if got := RevenueBucket(tc.revenue); got != tc.want {
			t.Errorf("RevenueBucket(%.0f) = %s, want %s", tc.revenue, got, tc.want)
		}
	}
}

func TestLookupPathNestedArrays(t *testing.T) {
	var record map[string]any
	payload := `{
		"properties": {
			"name": "Acme",
			"categories": [{"value": "Software"}, {"value": "Fintech"}],
			"num_employees": "120",
			"funding": {"rounds": [{"announced_on": "2026-01-15"}]}
		}
	}`
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		t.Fatal(err)
	}

	if got := pathString(record, "properties.name"); got != "Acme" {
		t.Errorf("name = %q", got)
	}
	if got := pathString(record, "properties.categories[0].value"); got != "Software" {
		t.Errorf("categories[0].value = %q", got)
	}
	if got := pathString(record, "properties.categories[1].value"); got != "Fintech" {
		t.Errorf("categories[1].value = %q", got)
	}
	if got := pathInt(record, "properties.num_employees"); got != 120 {
		t.Errorf("num_employees = %d", got)
	}
	if ts := pathTime(record, "properties.funding.rounds[0].announced_on"); ts.IsZero() {
		t.Error("expected parsed announce date")
	}
	if _, ok := lookupPath(record, "properties.categories[5].value"); ok {
		t.Error("out-of-range index should miss")
	}
	if _, ok := lookupPath(record, "properties.missing.deep"); ok {
		t.Error("missing key should miss")
	}
}

func TestPathFloatAcceptsStringsAndNumbers(t *testing.T) {
	var record map[string]any
	if err := json.Unmarshal([]byte(`{"a": 42, "b": "1,500", "c": "", "d": "garbage"}`), &record); err != nil {
		t.Fatal(err)
	}
	if got := pathFloat(record, "a"); got != 42 {
		t.Errorf("a = %v", got)
	}
	if got := pathFloat(record, "b"); got != 1500 {
		t.Errorf("b = %v", got)
	}
	if got := pathFloat(record, "c"); got != 0 {
		t.Errorf("c = %v", got)
	}
	if got := pathFloat(record, "d"); got != 0 {
		t.Errorf("d = %v", got)
	}
}

func TestDedupeKeyFoldsCaseAndSpace(t *testing.T) {
	a := DedupeKey("Acme Corp", "https://acme.io")
	b := DedupeKey("  acme corp ", "HTTPS://ACME.IO")
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
	c := DedupeKey("Acme Corp", "https://other.io")
	if a == c {
		t.Fatal("different websites must not collide")
	}
}
