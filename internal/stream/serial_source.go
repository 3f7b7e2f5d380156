// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package stream

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/mocap_calibration/internal/quat"
)

// SerialSource reads CSV sample lines from a tethered node. Line format
// (15 fields, header lines starting with '#' are skipped):
//
//	t_ms,pw,px,py,pz,cw,cx,cy,cz,gx,gy,gz,ax,ay,az
//
// Orientations are unit quaternions, gyro in rad/s, accel in m/s².
type SerialSource struct {
	port   io.ReadCloser
	reader *bufio.Reader
	epoch  time.Time
}

// NewSerialSource opens the node's serial port and returns a frame source.
func NewSerialSource(portName string, baudRate uint) (*SerialSource, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return &SerialSource{
		port:   port,
		reader: bufio.NewReader(port),
		epoch:  time.Now(),
	}, nil
}

func (s *SerialSource) Next() (Frame, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return Frame{}, fmt.Errorf("serial read: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f, err := ParseFrameCSV(line, s.epoch)
		if err != nil {
			// Partial or garbled line mid-stream; skip and resync.
			continue
		}
		return f, nil
	}
}

func (s *SerialSource) Close() error { return s.port.Close() }

// ParseFrameCSV parses one node CSV sample line. The frame timestamp is
// epoch plus the line's millisecond counter.
func ParseFrameCSV(line string, epoch time.Time) (Frame, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 15 {
		return Frame{}, fmt.Errorf("want 15 fields, got %d", len(parts))
	}
	v := make([]float64, 15)
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Frame{}, fmt.Errorf("field %d: %w", i, err)
		}
		v[i] = x
	}
	return Frame{
		Time:    epoch.Add(time.Duration(v[0]) * time.Millisecond),
		ParentQ: quat.Quat{W: v[1], X: v[2], Y: v[3], Z: v[4]},
		ChildQ:  quat.Quat{W: v[5], X: v[6], Y: v[7], Z: v[8]},
		Gyro:    quat.Vec3{X: v[9], Y: v[10], Z: v[11]},
		Accel:   quat.Vec3{X: v[12], Y: v[13], Z: v[14]},
	}, nil
}
