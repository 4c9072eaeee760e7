package storage

import (
	"io/ioutil"
	"reflect"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/config"
	"github.com/xnitro1/MMONewTest-sub013/engine/post"
)

func newTestStorage(t *testing.T) *Storage {
	dir, err := ioutil.TempDir("", "recordstorage")
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.StorageConfig{
		Type:      "filesystem",
		Directory: dir,
	}
	return NewStorage(cfg)
}

// waitPosted ticks the post queue until done() turns true
func waitPosted(t *testing.T, done func() bool) {
	deadline := time.Now().Add(time.Second * 5)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatalf("storage operation did not complete in time")
		}
		time.Sleep(time.Millisecond)
		post.Tick()
	}
}

func TestSaveLoadStorageItems(t *testing.T) {
	s := newTestStorage(t)
	defer s.Shutdown()

	id := common.StorageID{Type: common.StorageTypeGuild, OwnerID: "guild-1"}
	items := []common.CharacterItem{
		{ID: "i1", DataID: 42, Level: 2, Amount: 5, Durability: 0.5, Exp: 10,
			LockRemains: 1.5, ExpireTime: 1700000000, RandomSeed: 3, Sockets: []int32{7, 8}},
		{ID: "i2", DataID: 9, Amount: 1},
	}

	saved := false
	s.SaveStorageItems(id, items, func() { saved = true })
	waitPosted(t, func() bool { return saved })

	var loaded []common.CharacterItem
	loadedOK := false
	s.LoadStorageItems(id, func(items []common.CharacterItem, err error) {
		assert.Equal(t, nil, err)
		loaded = items
		loadedOK = true
	})
	waitPosted(t, func() bool { return loadedOK })

	if !reflect.DeepEqual(items, loaded) {
		t.Errorf("items mismatch:\nsaved:  %#v\nloaded: %#v", items, loaded)
	}
}

func TestLoadMissingStorageIsEmpty(t *testing.T) {
	s := newTestStorage(t)
	defer s.Shutdown()

	id := common.StorageID{Type: common.StorageTypePlayer, OwnerID: "nobody"}
	done := false
	s.LoadStorageItems(id, func(items []common.CharacterItem, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, 0, len(items))
		done = true
	})
	waitPosted(t, func() bool { return done })
}

func TestSaveLoadMailbox(t *testing.T) {
	s := newTestStorage(t)
	defer s.Shutdown()

	mails := []common.Mail{
		{ID: "m1", SenderID: "user-2", SenderName: "Bob", ReceiverID: "user-1",
			Title: "hi", Content: "hello there", Gold: 100,
			Items:  []common.CharacterItem{{ID: "i1", DataID: 1, Amount: 2}},
			SentAt: 1700000000},
		{ID: "m2", SenderID: "user-3", ReceiverID: "user-1", Title: "read me",
			IsRead: true, ReadAt: 1700000500, SentAt: 1700000400},
	}

	saved := false
	s.SaveMailbox("user-1", mails, func() { saved = true })
	waitPosted(t, func() bool { return saved })

	var loaded []common.Mail
	done := false
	s.LoadMailbox("user-1", func(mails []common.Mail, err error) {
		assert.Equal(t, nil, err)
		loaded = mails
		done = true
	})
	waitPosted(t, func() bool { return done })

	if !reflect.DeepEqual(mails, loaded) {
		t.Errorf("mailbox mismatch:\nsaved:  %#v\nloaded: %#v", mails, loaded)
	}
}

func TestExistsAndList(t *testing.T) {
	s := newTestStorage(t)
	defer s.Shutdown()

	id := common.StorageID{Type: common.StorageTypeBuilding, OwnerID: "b1"}
	saved := false
	s.SaveStorageItems(id, nil, func() { saved = true })
	waitPosted(t, func() bool { return saved })

	done := false
	s.Exists(KindStorageItems, id.String(), func(exists bool, err error) {
		assert.Equal(t, nil, err)
		assert.T(t, exists, "record should exist")
		done = true
	})
	waitPosted(t, func() bool { return done })

	done = false
	s.List(KindStorageItems, func(keys []string, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, []string{id.String()}, keys)
		done = true
	})
	waitPosted(t, func() bool { return done })
}

func TestGachaRecordRoundTrip(t *testing.T) {
	info := GachaInfo{Cash: 500, GachaIDs: []int32{1, 5, 9}}
	decoded, ok := RecordToGachaInfo(GachaInfoToRecord(info))
	assert.T(t, ok, "record should decode")
	assert.Equal(t, info, decoded)
}

func TestAppearanceRecordRoundTrip(t *testing.T) {
	app := CharacterAppearance{FrameIDs: []int32{2, 4}, IconIDs: []int32{1}}
	decoded, ok := RecordToAppearance(AppearanceToRecord(app))
	assert.T(t, ok, "record should decode")
	assert.Equal(t, app, decoded)
}
