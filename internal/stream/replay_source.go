// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// replaySource feeds frames from a JSONL capture file, one Frame per line.
type replaySource struct {
	f       *os.File
	scanner *bufio.Scanner
}

// NewReplaySource opens a JSONL frame recording for replay. Next returns
// io.EOF after the last frame.
func NewReplaySource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &replaySource{f: f, scanner: sc}, nil
}

func (r *replaySource) Next() (Frame, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(line, &f); err != nil {
			return Frame{}, fmt.Errorf("replay line: %w", err)
		}
		return f, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Frame{}, err
	}
	r.f.Close()
	return Frame{}, io.EOF
}
