// Package frame translates between in-memory JSON-RPC envelopes and the
// two wire encodings the proxy speaks on either side: SSE event blocks and
// newline-delimited JSON. Codecs here are stateless; the streaming
// decoders own their own carry buffer.
package frame

import (
	"github.com/goccy/go-json"

	"github.com/viant/mcp-proxy"
)

// Kind classifies a decoded JSON-RPC envelope by shape.
type Kind string

const (
	KindRequest      Kind = "request"
	KindNotification Kind = "notification"
	KindResponse     Kind = "response"
	KindInvalid      Kind = "invalid"
)

// maxRecordSize bounds a single SSE record or NDJSON line. Exceeding it
// aborts the current record and resumes decoding at the next boundary.
const maxRecordSize = 16 * 1024 * 1024

// probe is the minimal shape needed to classify a frame without fully
// unmarshaling it into a typed envelope.
type probe struct {
	Method *string         `json:"method"`
	Id     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// Classify inspects a raw JSON-RPC envelope and reports its shape and,
// where present, the id and method carried by it. Malformed JSON reports
// KindInvalid with a non-nil error.
func Classify(data []byte) (kind Kind, id jsonrpc.RequestId, method string, err error) {
	var p probe
	if err = json.Unmarshal(data, &p); err != nil {
		return KindInvalid, nil, "", err
	}
	hasId := len(p.Id) > 0 && string(p.Id) != "null"
	if hasId {
		if unmarshalErr := json.Unmarshal(p.Id, &id); unmarshalErr != nil {
			return KindInvalid, nil, "", unmarshalErr
		}
	}
	hasMethod := p.Method != nil
	hasResult := len(p.Result) > 0
	hasError := len(p.Error) > 0

	switch {
	case hasMethod && hasId:
		return KindRequest, id, *p.Method, nil
	case hasMethod && !hasId:
		return KindNotification, nil, *p.Method, nil
	case hasId && (hasResult || hasError):
		return KindResponse, id, "", nil
	default:
		return KindInvalid, nil, "", nil
	}
}

// EnsureVersion rewrites data to carry jsonrpc:"2.0" if the field is
// absent or empty. data must already be valid JSON.
func EnsureVersion(data []byte) ([]byte, error) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	if v, ok := generic["jsonrpc"]; ok && string(v) != `""` {
		return data, nil
	}
	generic["jsonrpc"] = json.RawMessage(`"` + jsonrpc.Version + `"`)
	return json.Marshal(generic)
}
