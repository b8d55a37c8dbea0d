package mech

import (
	"bufio"
	"time"

	"github.com/dgryski/go-cobs"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// frameDelimiter terminates every COBS-encoded frame on the wire.
const frameDelimiter = 0x00

// SerialLink carries the same demand contract as Client over a
// COBS-framed serial port, for benches where the mechanisms board hangs
// directly off the rover computer instead of behind the network.
type SerialLink struct {
	port   *serial.Port
	reader *bufio.Reader
	logger golog.Logger
}

// NewSerialLink opens the serial device and wraps it in the demand
// framing.
func NewSerialLink(device string, baud int, logger golog.Logger) (*SerialLink, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Second,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open serial device %q", device)
	}

	logger.Infow("opened mechanisms serial link", "device", device, "baud", baud)
	return &SerialLink{
		port:   port,
		reader: bufio.NewReader(port),
		logger: logger,
	}, nil
}

// SendDemands writes one COBS-framed demand set and reads back the
// verdict frame.
func (l *SerialLink) SendDemands(d Demands) (Response, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", errors.Wrap(err, "cannot serialise demands")
	}

	frame := cobs.Encode(b)
	frame = append(frame, frameDelimiter)
	if _, err := l.port.Write(frame); err != nil {
		return "", errors.Wrap(err, "cannot write demand frame")
	}

	reply, err := l.reader.ReadBytes(frameDelimiter)
	if err != nil {
		return "", errors.Wrap(err, "no response frame from mechanisms board")
	}

	decoded, err := cobs.Decode(reply[:len(reply)-1])
	if err != nil {
		return "", errors.Wrap(err, "cannot decode response frame")
	}

	var resp Response
	if err := json.Unmarshal(decoded, &resp); err != nil {
		return "", errors.Wrap(err, "cannot parse mechanisms response")
	}
	return resp, nil
}

// Close closes the serial port.
func (l *SerialLink) Close() error {
	return l.port.Close()
}
