package sensor

import (
	"strconv"
	"strings"
	"time"
)

// Reading holds one measurement cycle: the six calibrated spectral
// channels A-F in wavelength order.
type Reading struct {
	A         float64   `json:"a"`
	B         float64   `json:"b"`
	C         float64   `json:"c"`
	D         float64   `json:"d"`
	E         float64   `json:"e"`
	F         float64   `json:"f"`
	Timestamp time.Time `json:"timestamp"`
}

// Channels returns the six values in fixed A-F order.
func (r Reading) Channels() [6]float64 {
	return [6]float64{r.A, r.B, r.C, r.D, r.E, r.F}
}

// CSV renders the reading as "A,B,C,D,E,F" with two decimal places,
// no terminator. Two decimals matches the downstream host's parser.
func (r Reading) CSV() string {
	ch := r.Channels()
	parts := make([]string, 0, len(ch))
	for _, v := range ch {
		parts = append(parts, strconv.FormatFloat(v, 'f', 2, 64))
	}
	return strings.Join(parts, ",")
}

// SpectrumAverage is the mean of the six channels.
func (r Reading) SpectrumAverage() float64 {
	var sum float64
	for _, v := range r.Channels() {
		sum += v
	}
	return sum / 6.0
}

// Driver is the sensor operation surface the sampler consumes: a
// one-time init, a blocking measurement trigger and one accessor per
// calibrated channel.
type Driver interface {
	Begin() error
	TakeMeasurements() error
	CalibratedA() (float64, error)
	CalibratedB() (float64, error)
	CalibratedC() (float64, error)
	CalibratedD() (float64, error)
	CalibratedE() (float64, error)
	CalibratedF() (float64, error)
	Close() error
}

// ReadCalibrated fetches all six channels in A-F order. The first
// accessor error aborts the read.
func ReadCalibrated(d Driver) (Reading, error) {
	r := Reading{Timestamp: time.Now()}
	accessors := []struct {
		get func() (float64, error)
		dst *float64
	}{
		{d.CalibratedA, &r.A},
		{d.CalibratedB, &r.B},
		{d.CalibratedC, &r.C},
		{d.CalibratedD, &r.D},
		{d.CalibratedE, &r.E},
		{d.CalibratedF, &r.F},
	}
	for _, a := range accessors {
		v, err := a.get()
		if err != nil {
			return r, err
		}
		*a.dst = v
	}
	return r, nil
}
