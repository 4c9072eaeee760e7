package directory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
)

func TestRegisterAndFind(t *testing.T) {
	dir := NewDirectory()

	err := dir.RegisterSession("user-1", "tok-1", 1, 100)
	assert.Equal(t, nil, err)

	entry, ok := dir.Find("user-1")
	assert.T(t, ok, "user-1 should be online")
	assert.Equal(t, common.GameID(1), entry.GameID)
	assert.Equal(t, common.ConnectionID(100), entry.ConnectionID)

	_, ok = dir.Find("user-2")
	assert.T(t, !ok, "user-2 should be offline")
}

func TestDuplicateSessionRejected(t *testing.T) {
	dir := NewDirectory()

	assert.Equal(t, nil, dir.RegisterSession("user-1", "tok-1", 1, 100))
	err := dir.RegisterSession("user-1", "tok-2", 2, 200)
	assert.Equal(t, ErrDuplicateSession, err)

	// the original entry survives
	entry, ok := dir.Find("user-1")
	assert.T(t, ok, "user-1 should still be online")
	assert.Equal(t, common.GameID(1), entry.GameID)
}

func TestDirectoryUniqueness(t *testing.T) {
	dir := NewDirectory()
	var wg sync.WaitGroup
	successes := make(chan common.GameID, 16)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if dir.RegisterSession("user-1", "tok", common.GameID(i), common.ConnectionID(i)) == nil {
				successes <- common.GameID(i)
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, dir.Len())
}

func TestRemoveIsIdempotent(t *testing.T) {
	dir := NewDirectory()
	assert.Equal(t, nil, dir.RegisterSession("user-42", "tok", 1, 1))

	_, ok := dir.Remove("user-42")
	assert.T(t, ok, "first remove should find the entry")
	_, ok = dir.Remove("user-42")
	assert.T(t, !ok, "second remove should find nothing")

	// offline user can register again
	assert.Equal(t, nil, dir.RegisterSession("user-42", "tok", 2, 2))
}

func TestAuthenticate(t *testing.T) {
	dir := NewDirectory()
	assert.Equal(t, nil, dir.RegisterSession("user-1", "tok-1", 1, 1))

	assert.T(t, dir.Authenticate("user-1", "tok-1"), "matching token should pass")
	assert.T(t, !dir.Authenticate("user-1", "tok-2"), "wrong token should fail")
	assert.T(t, !dir.Authenticate("user-2", "tok-1"), "offline user should fail")
}

func TestUnregisterConnection(t *testing.T) {
	dir := NewDirectory()
	assert.Equal(t, nil, dir.RegisterSession("user-1", "tok", 1, 100))
	assert.Equal(t, nil, dir.RegisterSession("user-2", "tok", 1, 101))

	entry, ok := dir.UnregisterConnection(1, 100)
	assert.T(t, ok, "connection 100 should have an entry")
	assert.Equal(t, common.UserID("user-1"), entry.UserID)

	_, ok = dir.UnregisterConnection(1, 100)
	assert.T(t, !ok, "connection 100 should be gone")
	assert.Equal(t, 1, dir.Len())
}

func TestUnregisterShard(t *testing.T) {
	dir := NewDirectory()
	for i := 0; i < 5; i++ {
		userID := common.UserID(fmt.Sprintf("user-%d", i))
		gameID := common.GameID(1 + i%2)
		assert.Equal(t, nil, dir.RegisterSession(userID, "tok", gameID, common.ConnectionID(i)))
	}

	removed := dir.UnregisterShard(1)
	assert.Equal(t, 3, len(removed))
	assert.Equal(t, 2, dir.Len())

	for _, entry := range removed {
		assert.Equal(t, common.GameID(1), entry.GameID)
	}
}
