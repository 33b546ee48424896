package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeWriteCloser struct {
	frames [][]byte
	closed bool
}

func (f *fakeWriteCloser) WriteFrame(data []byte) error {
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeWriteCloser) Close() error {
	f.closed = true
	return nil
}

func TestSession_MarkClosingIsIdempotent(t *testing.T) {
	s := New(NewID(), TransportSSE, TransportStreamable, &fakeWriteCloser{})
	assert.True(t, s.Alive())

	s.MarkClosing()
	assert.False(t, s.Alive())

	select {
	case <-s.Done():
	default:
		t.Fatal("expected Done channel to be closed")
	}

	assert.NotPanics(t, func() { s.MarkClosing() })
}

func TestSession_UpstreamBinding(t *testing.T) {
	s := New(NewID(), TransportSSE, TransportSSE, &fakeWriteCloser{})
	assert.Nil(t, s.Upstream())

	up := &fakeWriteCloser{}
	s.SetUpstream(up)
	assert.Same(t, up, s.Upstream())
}

func TestSession_AwaitResolve(t *testing.T) {
	s := New(NewID(), TransportStreamable, TransportStreamable, &fakeWriteCloser{})
	assert.False(t, s.Resolve(1))

	s.Await(float64(1))
	assert.True(t, s.Resolve(1))
	assert.True(t, s.Resolve(float64(1)))
	assert.False(t, s.Resolve(2))
}

func TestSession_AwaitResolve_StringIds(t *testing.T) {
	s := New(NewID(), TransportStreamable, TransportStreamable, &fakeWriteCloser{})
	s.Await("a")
	assert.True(t, s.Resolve("a"))
	assert.False(t, s.Resolve("b"))
}

func TestTable_InsertLookupDelete(t *testing.T) {
	tbl := NewTable()
	s := New(NewID(), TransportSSE, TransportSSE, &fakeWriteCloser{})

	_, ok := tbl.Lookup(s.Id)
	assert.False(t, ok)

	tbl.Insert(s)
	got, ok := tbl.Lookup(s.Id)
	assert.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, tbl.Len())

	tbl.Delete(s.Id)
	_, ok = tbl.Lookup(s.Id)
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())
}
