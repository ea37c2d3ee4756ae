package sensor

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/aviary/internal/telemetry"
	"github.com/example/aviary/internal/testutils"
)

// fakeTransport feeds canned bytes to the reader and records writes.
type fakeTransport struct {
	data    *bytes.Buffer
	readErr error
	writes  bytes.Buffer
	closed  bool
}

func newFakeTransport(lines string) *fakeTransport {
	return &fakeTransport{data: bytes.NewBufferString(lines)}
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	// A drained buffer mimics the serial library's zero-byte timeout read.
	if f.data.Len() == 0 {
		return 0, nil
	}
	return f.data.Read(p)
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	return f.writes.Write(p)
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func (f *fakeTransport) SetReadTimeout(time.Duration) error { return nil }

func TestReadSample(t *testing.T) {
	logger := testutils.TestLogger("[test] ", true)
	schema := telemetry.DefaultSchema

	t.Run("Valid Sample", func(t *testing.T) {
		reader := NewReader(newFakeTransport("50;300\r\n"), schema, logger)

		rec := reader.ReadSample()
		if rec == nil {
			t.Fatal("Expected a record, got nil")
		}
		if rec.Values["lights_on_time"] != 50 {
			t.Errorf("Expected lights_on_time=50, got %v", rec.Values["lights_on_time"])
		}
		if rec.Values["lights_off_time"] != 300 {
			t.Errorf("Expected lights_off_time=300, got %v", rec.Values["lights_off_time"])
		}
		if rec.DateTime == "" {
			t.Error("Expected a local timestamp on the record")
		}
		if _, err := time.Parse(telemetry.TimestampLayout, rec.DateTime); err != nil {
			t.Errorf("Timestamp %q does not match the expected layout: %v", rec.DateTime, err)
		}
	})

	t.Run("Non Numeric Field Rejected", func(t *testing.T) {
		reader := NewReader(newFakeTransport("50;abc\r\n"), schema, logger)
		if rec := reader.ReadSample(); rec != nil {
			t.Errorf("Expected nil for unparseable sample, got %v", rec)
		}
	})

	t.Run("Wrong Field Count Rejected", func(t *testing.T) {
		reader := NewReader(newFakeTransport("50;300;14.6\r\n"), schema, logger)
		if rec := reader.ReadSample(); rec != nil {
			t.Errorf("Expected nil for wrong arity sample, got %v", rec)
		}
	})

	t.Run("Read Error Rejected", func(t *testing.T) {
		transport := newFakeTransport("")
		transport.readErr = errors.New("device unplugged")
		reader := NewReader(transport, schema, logger)
		if rec := reader.ReadSample(); rec != nil {
			t.Errorf("Expected nil on read error, got %v", rec)
		}
	})

	t.Run("Timeout Without Newline Rejected", func(t *testing.T) {
		reader := NewReader(newFakeTransport("50;3"), schema, logger)
		if rec := reader.ReadSample(); rec != nil {
			t.Errorf("Expected nil on timeout, got %v", rec)
		}
	})

	t.Run("Framing Survives Chatty Board", func(t *testing.T) {
		// Two lines arrive in one burst; both must come out intact.
		reader := NewReader(newFakeTransport("50;300\r\n60;310\r\n"), schema, logger)

		first := reader.ReadSample()
		second := reader.ReadSample()
		if first == nil || second == nil {
			t.Fatalf("Expected two records, got %v and %v", first, second)
		}
		if first.Values["lights_on_time"] != 50 || second.Values["lights_on_time"] != 60 {
			t.Errorf("Records out of order: %v then %v", first.Values, second.Values)
		}
	})

	t.Run("Rejection Then Recovery", func(t *testing.T) {
		reader := NewReader(newFakeTransport("garbage\r\n50;300\r\n"), schema, logger)
		if rec := reader.ReadSample(); rec != nil {
			t.Errorf("Expected first sample rejected, got %v", rec)
		}
		if rec := reader.ReadSample(); rec == nil {
			t.Error("Expected second sample to parse after a rejection")
		}
	})
}

func TestDiscover(t *testing.T) {
	logger := testutils.TestLogger("[test] ", true)

	restoreOpen, restoreList := openPort, listPorts
	defer func() { openPort, listPorts = restoreOpen, restoreList }()

	t.Run("First Working Candidate Wins", func(t *testing.T) {
		opened := []string{}
		openPort = func(path string, baud int) (Transport, error) {
			opened = append(opened, path)
			if path == "/dev/ttyACM1" {
				return newFakeTransport(""), nil
			}
			return nil, errors.New("no such device")
		}
		listPorts = func() ([]string, error) { return nil, nil }

		_, path, err := Discover(logger, []string{"/dev/ttyACM0", "/dev/ttyACM1", "COM1"}, DefaultBaudRate, DefaultReadTimeout)
		if err != nil {
			t.Fatalf("Expected discovery to succeed, got %v", err)
		}
		if path != "/dev/ttyACM1" {
			t.Errorf("Expected /dev/ttyACM1, got %s", path)
		}
		// COM1 must not have been probed after a success.
		if strings.Join(opened, ",") != "/dev/ttyACM0,/dev/ttyACM1" {
			t.Errorf("Unexpected probe order: %v", opened)
		}
	})

	t.Run("Falls Back To OS Port List", func(t *testing.T) {
		openPort = func(path string, baud int) (Transport, error) {
			if path == "/dev/ttyACM7" {
				return newFakeTransport(""), nil
			}
			return nil, errors.New("no such device")
		}
		listPorts = func() ([]string, error) {
			return []string{"/dev/ttyS0", "/dev/ttyACM7"}, nil
		}

		_, path, err := Discover(logger, []string{"/dev/ttyACM0"}, DefaultBaudRate, DefaultReadTimeout)
		if err != nil {
			t.Fatalf("Expected fallback discovery to succeed, got %v", err)
		}
		if path != "/dev/ttyACM7" {
			t.Errorf("Expected /dev/ttyACM7, got %s", path)
		}
	})

	t.Run("No Device Is An Error", func(t *testing.T) {
		openPort = func(path string, baud int) (Transport, error) {
			return nil, errors.New("no such device")
		}
		listPorts = func() ([]string, error) { return nil, nil }

		if _, _, err := Discover(logger, nil, DefaultBaudRate, DefaultReadTimeout); err == nil {
			t.Error("Expected an error when no port opens")
		}
	})
}
