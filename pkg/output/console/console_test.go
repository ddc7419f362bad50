package console

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/aquasense/as7265x-stream/pkg/sensor"
)

func captureStdout(f func()) string {
	r, w, _ := os.Pipe()
	stdout := os.Stdout
	os.Stdout = w
	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()
	f()
	_ = w.Close()
	os.Stdout = stdout
	return <-outC
}

func TestConsolePublish(t *testing.T) {
	c := NewConsole()
	r := sensor.Reading{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}
	out := captureStdout(func() { _ = c.Publish(r) })
	want := "1.00,2.00,3.00,4.00,5.00,6.00\n"
	if out != want {
		t.Fatalf("console output mismatch:\n got: %q\nwant: %q", out, want)
	}
}

func TestConsolePublishStatus(t *testing.T) {
	c := NewConsole()
	out := captureStdout(func() { _ = c.PublishStatus("AS7265x Initialized") })
	if out != "AS7265x Initialized\n" {
		t.Fatalf("status output: %q", out)
	}
}
