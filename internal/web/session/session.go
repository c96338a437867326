package session

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage"

	"github.com/flowboard/flowboard/internal/db/models"
	"github.com/flowboard/flowboard/internal/uniuri"
)

// SessionIDLen is the length of a session identifier (~285 bits of entropy).
const SessionIDLen = 48

// Store is the global session store instance.
var Store *session.Store

// Data represents the session data structure. The capability flags and
// group list are resolved once at login and carried for the session
// lifetime.
type Data struct {
	User         models.User
	Superuser    bool
	DataProfiler bool
	Groups       []string
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	return json.Unmarshal(byteData, s)
}

// Delete removes the session data for the given session ID.
func Delete(sessionID string) error {
	return Store.Storage.Delete(sessionID)
}

// Init initializes the session store with the provided storage backend.
func Init(storage storage.Storage) {
	if storage == nil {
		panic("storage is nil")
	}

	Store = session.New(session.Config{
		Storage: storage,
	})
}

// GenerateSessionID generates a new random session ID.
func GenerateSessionID() string {
	return uniuri.NewLen(SessionIDLen)
}
