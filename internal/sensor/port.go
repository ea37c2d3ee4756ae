package sensor

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the sketch flashed on the cage's Arduino board.
const DefaultBaudRate = 9600

// DefaultReadTimeout bounds every single read on the serial line.
const DefaultReadTimeout = time.Second

// DefaultDevicePaths is the ranked candidate list tried during discovery.
// Covers the Raspberry Pi in the cage room, the lab's Mac mini, and Windows
// debugging boxes.
var DefaultDevicePaths = []string{
	"/dev/ttyACM0",
	"/dev/ttyACM1",
	"/dev/cu.usbmodem2401",
	"/dev/cu.usbmodem2301",
	"COM1",
	"COM2",
	"COM3",
	"COM4",
	"COM5",
}

// Transport is the serial connection used to exchange line-oriented text
// with the sensor board. go.bug.st/serial ports satisfy it directly.
type Transport interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// openPort is swapped out in tests.
var openPort = func(path string, baud int) (Transport, error) {
	return serial.Open(path, &serial.Mode{BaudRate: baud})
}

// listPorts is swapped out in tests.
var listPorts = func() ([]string, error) {
	return serial.GetPortsList()
}

// Discover probes each candidate path in order and returns the first one that
// opens, configured with the read timeout. When the explicit list fails it
// falls back to the OS port enumeration, probing anything that looks like a
// USB modem or ACM device. Failure here is fatal to the daemon; there is
// nothing to monitor without the board.
func Discover(logger *log.Logger, paths []string, baud int, readTimeout time.Duration) (Transport, string, error) {
	if len(paths) == 0 {
		paths = DefaultDevicePaths
	}
	for _, path := range paths {
		port, err := openPort(path, baud)
		if err != nil {
			continue
		}
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			continue
		}
		logger.Printf("Successfully opened serial port %s", path)
		return port, path, nil
	}

	// Fall back to asking the OS which ports exist.
	detected, err := listPorts()
	if err == nil {
		for _, path := range detected {
			if !looksLikeSensorPort(path) {
				continue
			}
			port, err := openPort(path, baud)
			if err != nil {
				continue
			}
			if err := port.SetReadTimeout(readTimeout); err != nil {
				port.Close()
				continue
			}
			logger.Printf("Successfully opened detected serial port %s", path)
			return port, path, nil
		}
	}

	return nil, "", fmt.Errorf("no valid serial port could be found, tried %v", paths)
}

func looksLikeSensorPort(path string) bool {
	return strings.Contains(path, "ttyACM") || strings.Contains(path, "usbmodem")
}
