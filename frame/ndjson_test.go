package frame

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_EncodeNDJSON(t *testing.T) {
	testCases := []struct {
		name     string
		input    []byte
		expected []byte
	}{
		{
			name:     "append newline when missing",
			input:    []byte(`{"k":"v"}`),
			expected: []byte("{\"k\":\"v\"}\n"),
		},
		{
			name:     "preserve when newline present",
			input:    []byte("{\"k\":1}\n"),
			expected: []byte("{\"k\":1}\n"),
		},
		{
			name:     "empty payload",
			input:    []byte(``),
			expected: []byte("\n"),
		},
	}

	for _, tc := range testCases {
		actual := EncodeNDJSON(tc.input)
		assert.EqualValues(t, tc.expected, actual, tc.name)
	}
}

func TestNDJSONDecoder_SplitsLines(t *testing.T) {
	r := bytes.NewBufferString("{\"a\":1}\n{\"a\":2}\n")
	dec := NewNDJSONDecoder(r, nil)

	line, err := dec.Next()
	assert.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(line))

	line, err = dec.Next()
	assert.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(line))

	_, err = dec.Next()
	assert.Equal(t, io.EOF, err)
}

func TestNDJSONDecoder_TrailingNewlineNotSpurious(t *testing.T) {
	r := bytes.NewBufferString("{\"a\":1}\n")
	dec := NewNDJSONDecoder(r, nil)

	line, err := dec.Next()
	assert.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(line))

	_, err = dec.Next()
	assert.Equal(t, io.EOF, err)
}

func TestNDJSONDecoder_SkipsOversizedLine(t *testing.T) {
	big := bytes.Repeat([]byte("x"), maxRecordSize+10)
	var buf bytes.Buffer
	buf.Write(big)
	buf.WriteByte('\n')
	buf.WriteString(`{"ok":true}`)
	buf.WriteByte('\n')

	var reported []error
	dec := NewNDJSONDecoder(&buf, func(err error) { reported = append(reported, err) })
	line, err := dec.Next()
	assert.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(line))
	assert.NotEmpty(t, reported)
}
