package sensor

import (
	"strings"
	"testing"

	"github.com/aquasense/as7265x-stream/pkg/config"
)

func TestReadingCSV(t *testing.T) {
	r := Reading{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}
	if got := r.CSV(); got != "1.00,2.00,3.00,4.00,5.00,6.00" {
		t.Fatalf("CSV: got %q", got)
	}
	if n := len(strings.Split(r.CSV(), ",")); n != 6 {
		t.Fatalf("field count: got %d, want 6", n)
	}
}

func TestReadingCSVIsDeterministic(t *testing.T) {
	a := Reading{A: 160.5, B: 170.25, C: 155.75, D: 182, E: 190.5, F: 175.25}
	b := a
	if a.CSV() != b.CSV() {
		t.Fatalf("identical readings produced different lines: %q vs %q", a.CSV(), b.CSV())
	}
}

func TestSpectrumAverage(t *testing.T) {
	r := Reading{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}
	if got := r.SpectrumAverage(); got != 3.5 {
		t.Fatalf("SpectrumAverage: got %v, want 3.5", got)
	}
}

func TestFakeDriverRequiresMeasurement(t *testing.T) {
	d, err := NewFakeDriver(config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewFakeDriver: %v", err)
	}
	if err := d.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := d.CalibratedA(); err == nil {
		t.Fatalf("expected error before first measurement")
	}
	if err := d.TakeMeasurements(); err != nil {
		t.Fatalf("TakeMeasurements: %v", err)
	}
	r, err := ReadCalibrated(d)
	if err != nil {
		t.Fatalf("ReadCalibrated: %v", err)
	}
	fd := d.(*FakeDriver)
	if r.Channels() != fd.Values {
		t.Fatalf("channels: got %v, want %v", r.Channels(), fd.Values)
	}
}

func TestFakeDriverFailBegin(t *testing.T) {
	d := &FakeDriver{FailBegin: true}
	if err := d.Begin(); err == nil {
		t.Fatalf("expected Begin failure")
	}
}
