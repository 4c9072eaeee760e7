package directory

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
)

// ErrDuplicateSession is returned when registering a user that already has a
// live entry; the new login is rejected rather than displacing the old one
var ErrDuplicateSession = errors.New("user already has a live session")

// Entry is the directory record of one online user
type Entry struct {
	UserID       common.UserID
	AccessToken  common.AccessToken
	GameID       common.GameID
	ConnectionID common.ConnectionID
	RegisteredAt time.Time
}

// Directory is the online user directory owned by the central server; it
// maps each authenticated user to the map server currently hosting them
type Directory struct {
	lock    sync.RWMutex
	entries map[common.UserID]*Entry
}

// NewDirectory creates an empty online user directory
func NewDirectory() *Directory {
	return &Directory{
		entries: map[common.UserID]*Entry{},
	}
}

// RegisterSession binds the user to the map server of the connection;
// returns ErrDuplicateSession if the user already has a live entry
func (dir *Directory) RegisterSession(userID common.UserID, accessToken common.AccessToken, gameID common.GameID, connID common.ConnectionID) error {
	dir.lock.Lock()
	defer dir.lock.Unlock()

	if _, ok := dir.entries[userID]; ok {
		return ErrDuplicateSession
	}

	dir.entries[userID] = &Entry{
		UserID:       userID,
		AccessToken:  accessToken,
		GameID:       gameID,
		ConnectionID: connID,
		RegisteredAt: time.Now(),
	}
	return nil
}

// Find returns the directory entry of the user, or false if offline
func (dir *Directory) Find(userID common.UserID) (Entry, bool) {
	dir.lock.RLock()
	defer dir.lock.RUnlock()

	entry, ok := dir.entries[userID]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Authenticate checks the access token of an online user
func (dir *Directory) Authenticate(userID common.UserID, accessToken common.AccessToken) bool {
	dir.lock.RLock()
	defer dir.lock.RUnlock()

	entry, ok := dir.entries[userID]
	return ok && entry.AccessToken == accessToken
}

// Remove removes the directory entry of the user and returns it; removing an
// offline user is not an error, so forced despawns stay idempotent
func (dir *Directory) Remove(userID common.UserID) (Entry, bool) {
	dir.lock.Lock()
	defer dir.lock.Unlock()

	entry, ok := dir.entries[userID]
	if !ok {
		return Entry{}, false
	}
	delete(dir.entries, userID)
	return *entry, true
}

// UnregisterConnection removes any entry bound to the connection of the map
// server; called when a map server reports a client disconnect
func (dir *Directory) UnregisterConnection(gameID common.GameID, connID common.ConnectionID) (Entry, bool) {
	dir.lock.Lock()
	defer dir.lock.Unlock()

	for userID, entry := range dir.entries {
		if entry.GameID == gameID && entry.ConnectionID == connID {
			delete(dir.entries, userID)
			return *entry, true
		}
	}
	return Entry{}, false
}

// UnregisterShard removes all entries hosted on the map server; called when
// a map server disconnects from the central server
func (dir *Directory) UnregisterShard(gameID common.GameID) []Entry {
	dir.lock.Lock()
	defer dir.lock.Unlock()

	var removed []Entry
	for userID, entry := range dir.entries {
		if entry.GameID == gameID {
			removed = append(removed, *entry)
			delete(dir.entries, userID)
		}
	}
	return removed
}

// Len returns the number of online users
func (dir *Directory) Len() int {
	dir.lock.RLock()
	defer dir.lock.RUnlock()
	return len(dir.entries)
}
