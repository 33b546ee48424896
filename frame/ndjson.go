package frame

import (
	"bufio"
	"fmt"
	"io"
)

// EncodeNDJSON appends a trailing newline to a JSON-RPC frame, the wire
// shape for one line of a newline-delimited JSON stream.
func EncodeNDJSON(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\n' {
		return data
	}
	out := make([]byte, len(data)+1)
	copy(out, data)
	out[len(data)] = '\n'
	return out
}

// NDJSONDecoder splits a byte stream on '\n' boundaries, yielding each
// non-empty line. Lines are not parsed here; callers decide whether a
// line is valid JSON.
type NDJSONDecoder struct {
	reader  *bufio.Reader
	onError func(error)
}

// NewNDJSONDecoder wraps r. onError, if non-nil, is invoked for lines
// exceeding the configured size guard; decoding continues afterward.
func NewNDJSONDecoder(r io.Reader, onError func(error)) *NDJSONDecoder {
	return &NDJSONDecoder{reader: bufio.NewReaderSize(r, 4096), onError: onError}
}

// Next returns the next non-empty line, or io.EOF once the stream ends.
// A trailing newline after the last line does not produce a spurious
// empty read.
func (d *NDJSONDecoder) Next() ([]byte, error) {
	for {
		line, err := d.reader.ReadBytes('\n')
		line = trimNewline(line)
		if len(line) > maxRecordSize {
			d.reportf("ndjson line exceeds %d bytes, dropping", maxRecordSize)
			line = nil
		}
		if len(line) > 0 {
			return line, nil
		}
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("ndjson stream read error: %w", err)
		}
	}
}

func trimNewline(line []byte) []byte {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	n = len(line)
	if n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}

func (d *NDJSONDecoder) reportf(format string, args ...interface{}) {
	if d.onError != nil {
		d.onError(fmt.Errorf(format, args...))
	}
}
