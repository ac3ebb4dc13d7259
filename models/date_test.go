package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateMarshalJSON(t *testing.T) {
	d := NewDate(time.Date(2024, time.January, 1, 15, 30, 0, 0, time.UTC))

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}

	// Время суток отбрасывается, остается только дата
	expected := `"2024-01-01"`
	if string(data) != expected {
		t.Errorf("marshal returned %s, want %s", data, expected)
	}
}

func TestDateUnmarshalJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2023-12-31"`), &d); err != nil {
		t.Fatal(err)
	}

	if d.Year() != 2023 || d.Month() != time.December || d.Day() != 31 {
		t.Errorf("unmarshal returned %v, want 2023-12-31", d)
	}
}

func TestDateUnmarshalJSONInvalid(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"31.12.2023"`), &d); err == nil {
		t.Error("expected error for date in wrong format")
	}
	if err := json.Unmarshal([]byte(`20231231`), &d); err == nil {
		t.Error("expected error for non-string date")
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if d.Time.Format(DateLayout) != "2024-02-29" {
		t.Errorf("scan returned %v, want 2024-02-29", d)
	}

	if err := d.Scan("2024-03-01"); err != nil {
		t.Fatal(err)
	}
	if d.Time.Format(DateLayout) != "2024-03-01" {
		t.Errorf("scan returned %v, want 2024-03-01", d)
	}

	if err := d.Scan(42); err == nil {
		t.Error("expected error for unsupported source type")
	}
}
