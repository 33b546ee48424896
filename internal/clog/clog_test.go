package clog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_ErrorfAlwaysEmits(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WithLevel(LevelError))

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("boom %d", 4)

	out := buf.String()
	assert.False(t, strings.Contains(out, "debug 1"))
	assert.False(t, strings.Contains(out, "info 2"))
	assert.False(t, strings.Contains(out, "warn 3"))
	assert.True(t, strings.Contains(out, "ERROR: boom 4"))
}

func TestLogger_LevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WithLevel(LevelDebug))

	l.Debugf("hello")
	assert.True(t, strings.Contains(buf.String(), "DEBUG: hello"))
}
