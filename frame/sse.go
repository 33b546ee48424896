package frame

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// EventKind tags a decoded SSE record by its `event:` field.
type EventKind string

const (
	EventMessage  EventKind = "message"
	EventEndpoint EventKind = "endpoint"
	EventPing     EventKind = "ping"
	EventOther    EventKind = "other"
)

// Event is one decoded SSE record: an `event:`/`data:` block, or a
// comment-only heartbeat (Kind == EventPing, Data empty).
type Event struct {
	Kind EventKind
	Name string // raw event name, set even for EventOther
	Data []byte
}

// EncodeMessage produces an `event: message` SSE record carrying a
// JSON-RPC frame.
func EncodeMessage(data []byte) []byte {
	return encodeRecord("message", data)
}

// EncodeEndpoint produces the `event: endpoint` handshake record whose
// data names the relative path clients should POST frames to.
func EncodeEndpoint(path string) []byte {
	return encodeRecord("endpoint", []byte(path))
}

// EncodePing produces a comment-only heartbeat record.
func EncodePing() []byte {
	return []byte(":ping\n\n")
}

func encodeRecord(event string, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("event: ")
	buf.WriteString(event)
	buf.WriteByte('\n')
	for _, line := range bytes.Split(data, []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

// SSEDecoder turns a byte stream into a sequence of Events. It tolerates
// chunk boundaries falling anywhere inside a record: partial records are
// held in an internal carry buffer until a full record is available.
type SSEDecoder struct {
	reader  *bufio.Reader
	onError func(error)
}

// NewSSEDecoder wraps r. onError, if non-nil, is invoked for malformed
// records and oversized records that are skipped; decoding continues
// afterward.
func NewSSEDecoder(r io.Reader, onError func(error)) *SSEDecoder {
	return &SSEDecoder{reader: bufio.NewReaderSize(r, 4096), onError: onError}
}

// Next blocks until a full record is available, the stream ends (io.EOF),
// or a read error occurs. Unrecognized event names are returned as
// EventOther rather than dropped.
func (d *SSEDecoder) Next() (*Event, error) {
	var (
		lines     []string
		sawAny    bool
		skipping  bool
		eventName string
		dataLines []string
		size      int
	)
	for {
		line, err := d.reader.ReadString('\n')
		if skipping && len(line) > 0 {
			skipping = strings.TrimRight(line, "\r\n") != ""
			line = ""
		}
		if len(line) > 0 {
			sawAny = true
			size += len(line)
			if size > maxRecordSize {
				d.reportf("sse record exceeds %d bytes, dropping", maxRecordSize)
				eventName, dataLines, size = "", nil, 0
				skipping = strings.TrimRight(line, "\r\n") != ""
				line = ""
			}
		}
		if len(line) > 0 {
			trimmed := strings.TrimRight(line, "\r\n")
			if trimmed == "" {
				if eventName == "" && len(dataLines) == 0 {
					continue
				}
				return d.finish(eventName, dataLines)
			}
			if strings.HasPrefix(trimmed, ":") {
				if eventName == "" && len(dataLines) == 0 {
					return &Event{Kind: EventPing, Name: "ping"}, nil
				}
				continue
			}
			switch {
			case strings.HasPrefix(trimmed, "event:"):
				eventName = strings.TrimSpace(strings.TrimPrefix(trimmed, "event:"))
			case strings.HasPrefix(trimmed, "data:"):
				dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(trimmed, "data:"), " "))
			}
			lines = append(lines, trimmed)
		}
		if err != nil {
			if err == io.EOF {
				if sawAny && (eventName != "" || len(dataLines) > 0) {
					return d.finish(eventName, dataLines)
				}
				return nil, io.EOF
			}
			return nil, fmt.Errorf("sse stream read error: %w", err)
		}
	}
}

func (d *SSEDecoder) finish(eventName string, dataLines []string) (*Event, error) {
	data := []byte(strings.Join(dataLines, "\n"))
	switch eventName {
	case "message":
		return &Event{Kind: EventMessage, Name: eventName, Data: data}, nil
	case "endpoint":
		return &Event{Kind: EventEndpoint, Name: eventName, Data: data}, nil
	default:
		return &Event{Kind: EventOther, Name: eventName, Data: data}, nil
	}
}

func (d *SSEDecoder) reportf(format string, args ...interface{}) {
	if d.onError != nil {
		d.onError(fmt.Errorf(format, args...))
	}
}
