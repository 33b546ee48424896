package session

import (
	"github.com/google/uuid"
	"github.com/viant/mcp-proxy/internal/collection"
)

// NewID mints a session id unique for the life of the process. Uniqueness
// is the only requirement; unguessability is not a goal here.
func NewID() string {
	return uuid.New().String()
}

// Table is the process-wide session_id -> Session mapping. Insert and
// Delete are the only mutations; Lookup, Len, and Range only read. The
// underlying container is never handed out so every mutation goes
// through the Table.
type Table struct {
	sessions *collection.SyncMap[string, *Session]
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{sessions: collection.NewSyncMap[string, *Session]()}
}

// Insert adds s under s.Id, overwriting any prior entry with the same id.
func (t *Table) Insert(s *Session) {
	t.sessions.Put(s.Id, s)
}

// Lookup returns the session for id, if present.
func (t *Table) Lookup(id string) (*Session, bool) {
	return t.sessions.Get(id)
}

// Delete removes id from the table. It is a no-op if id is absent.
func (t *Table) Delete(id string) {
	t.sessions.Delete(id)
}

// Len reports the number of live sessions, for the health endpoint.
func (t *Table) Len() int {
	return t.sessions.Len()
}

// Range visits every session until fn returns false.
func (t *Table) Range(fn func(s *Session) bool) {
	t.sessions.Range(func(_ string, s *Session) bool {
		return fn(s)
	})
}
