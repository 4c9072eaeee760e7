package reservation

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/petar/GoLLRB/llrb"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
)

const _NUM_SHARDS = 32

// ErrAlreadyReserved is returned when another session holds the reservation
type ErrAlreadyReserved struct {
	Holder string
}

func (err ErrAlreadyReserved) Error() string {
	return fmt.Sprintf("storage already reserved by %s", err.Holder)
}

// ErrNotHolder is returned when the caller does not hold the reservation
type ErrNotHolder struct {
	StorageID common.StorageID
}

func (err ErrNotHolder) Error() string {
	return fmt.Sprintf("not the reservation holder of %s", err.StorageID)
}

// Reservation is a time-bounded exclusive lease on one storage container
type Reservation struct {
	StorageID  common.StorageID
	Holder     string
	AcquiredAt time.Time
	ExpiresAt  time.Time
}

type storeShard struct {
	lock sync.Mutex
	m    map[common.StorageID]*Reservation
}

// expiryItem indexes one (expiresAt, storageID) pair; stale items are
// dropped lazily during the sweep
type expiryItem struct {
	expiresAt time.Time
	storageID common.StorageID
}

func (item expiryItem) Less(other llrb.Item) bool {
	o := other.(expiryItem)
	if !item.expiresAt.Equal(o.expiresAt) {
		return item.expiresAt.Before(o.expiresAt)
	}
	return item.storageID.String() < o.storageID.String()
}

// Store is the reservation ledger of the database service; reservation
// state is sharded by storage key so unrelated storages proceed
// independently without a global lock
type Store struct {
	shards [_NUM_SHARDS]storeShard

	expiryLock sync.Mutex
	expiry     *llrb.LLRB

	holdersLock sync.Mutex
	holders     map[string]common.StorageIDSet
}

// NewStore creates an empty reservation store
func NewStore() *Store {
	store := &Store{
		expiry:  llrb.New(),
		holders: map[string]common.StorageIDSet{},
	}
	for i := range store.shards {
		store.shards[i].m = map[common.StorageID]*Reservation{}
	}
	return store
}

func (store *Store) shardOf(id common.StorageID) *storeShard {
	h := fnv.New32a()
	h.Write([]byte{byte(id.Type)})
	h.Write([]byte(id.OwnerID))
	return &store.shards[h.Sum32()%_NUM_SHARDS]
}

func (store *Store) indexExpiry(id common.StorageID, expiresAt time.Time) {
	store.expiryLock.Lock()
	store.expiry.ReplaceOrInsert(expiryItem{expiresAt, id})
	store.expiryLock.Unlock()
}

func (store *Store) indexHolder(holder string, id common.StorageID) {
	store.holdersLock.Lock()
	set := store.holders[holder]
	if set == nil {
		set = common.StorageIDSet{}
		store.holders[holder] = set
	}
	set.Add(id)
	store.holdersLock.Unlock()
}

func (store *Store) unindexHolder(holder string, id common.StorageID) {
	store.holdersLock.Lock()
	if set := store.holders[holder]; set != nil {
		set.Del(id)
		if len(set) == 0 {
			delete(store.holders, holder)
		}
	}
	store.holdersLock.Unlock()
}

// TryReserve tries to acquire the reservation; exactly one concurrent
// caller succeeds until the reservation is released or expires
func (store *Store) TryReserve(id common.StorageID, holder string, ttl time.Duration) error {
	shard := store.shardOf(id)
	now := time.Now()

	shard.lock.Lock()
	displacedHolder := ""
	if res, ok := shard.m[id]; ok {
		if now.Before(res.ExpiresAt) {
			if res.Holder == holder {
				// the holder re-opening its own storage just renews
				res.ExpiresAt = now.Add(ttl)
				shard.lock.Unlock()
				store.indexExpiry(id, res.ExpiresAt)
				return nil
			}
			currentHolder := res.Holder
			shard.lock.Unlock()
			return ErrAlreadyReserved{Holder: currentHolder}
		}
		// expired entry gets overwritten, drop it from the holder index
		if res.Holder != holder {
			displacedHolder = res.Holder
		}
	}

	res := &Reservation{
		StorageID:  id,
		Holder:     holder,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	shard.m[id] = res
	expiresAt := res.ExpiresAt
	shard.lock.Unlock()

	if displacedHolder != "" {
		store.unindexHolder(displacedHolder, id)
	}
	store.indexExpiry(id, expiresAt)
	store.indexHolder(holder, id)
	return nil
}

// Renew extends the expiry of a held reservation
func (store *Store) Renew(id common.StorageID, holder string, ttl time.Duration) error {
	shard := store.shardOf(id)
	now := time.Now()

	shard.lock.Lock()
	res, ok := shard.m[id]
	if !ok || !now.Before(res.ExpiresAt) || res.Holder != holder {
		shard.lock.Unlock()
		return ErrNotHolder{StorageID: id}
	}
	res.ExpiresAt = now.Add(ttl)
	expiresAt := res.ExpiresAt
	shard.lock.Unlock()

	store.indexExpiry(id, expiresAt)
	return nil
}

// Release clears the reservation if held by the caller; releasing an
// already released reservation is a no-op
func (store *Store) Release(id common.StorageID, holder string) {
	shard := store.shardOf(id)

	shard.lock.Lock()
	res, ok := shard.m[id]
	if !ok || res.Holder != holder {
		shard.lock.Unlock()
		return
	}
	delete(shard.m, id)
	shard.lock.Unlock()

	store.unindexHolder(holder, id)
}

// HolderOf returns the current live holder of the storage, or false
func (store *Store) HolderOf(id common.StorageID) (string, bool) {
	shard := store.shardOf(id)
	now := time.Now()

	shard.lock.Lock()
	defer shard.lock.Unlock()

	res, ok := shard.m[id]
	if !ok || !now.Before(res.ExpiresAt) {
		return "", false
	}
	return res.Holder, true
}

// CommitHolding verifies holdership and runs commit while the reservation
// is still pinned, so a stale holder can never overwrite a newer commit;
// deleteReservation releases the lease after a successful commit
func (store *Store) CommitHolding(id common.StorageID, holder string, deleteReservation bool, commit func() error) error {
	shard := store.shardOf(id)
	now := time.Now()

	shard.lock.Lock()
	res, ok := shard.m[id]
	if !ok || !now.Before(res.ExpiresAt) || res.Holder != holder {
		shard.lock.Unlock()
		return ErrNotHolder{StorageID: id}
	}

	err := commit()
	if err == nil && deleteReservation {
		delete(shard.m, id)
	}
	shard.lock.Unlock()

	if err == nil && deleteReservation {
		store.unindexHolder(holder, id)
	}
	return err
}

// ReleaseHolder releases every reservation held by the session and returns
// the released storage keys; used for the disconnect cleanup contract
func (store *Store) ReleaseHolder(holder string) []common.StorageID {
	store.holdersLock.Lock()
	set := store.holders[holder]
	delete(store.holders, holder)
	store.holdersLock.Unlock()

	if set == nil {
		return nil
	}

	ids := set.ToList()
	for _, id := range ids {
		shard := store.shardOf(id)
		shard.lock.Lock()
		if res, ok := shard.m[id]; ok && res.Holder == holder {
			delete(shard.m, id)
		}
		shard.lock.Unlock()
	}
	return ids
}

// ExpireDue releases every reservation whose expiry has passed and returns
// them; the index is validated against the live table because renewals
// leave stale items behind
func (store *Store) ExpireDue(now time.Time) []Reservation {
	var dueItems []expiryItem

	store.expiryLock.Lock()
	store.expiry.AscendLessThan(expiryItem{expiresAt: now}, func(item llrb.Item) bool {
		dueItems = append(dueItems, item.(expiryItem))
		return true
	})
	for _, item := range dueItems {
		store.expiry.Delete(item)
	}
	store.expiryLock.Unlock()

	var expired []Reservation
	for _, item := range dueItems {
		shard := store.shardOf(item.storageID)
		shard.lock.Lock()
		res, ok := shard.m[item.storageID]
		if ok && !now.Before(res.ExpiresAt) {
			expired = append(expired, *res)
			delete(shard.m, item.storageID)
		} else {
			res = nil // stale index item, reservation renewed or released
		}
		shard.lock.Unlock()

		if res != nil {
			store.unindexHolder(res.Holder, res.StorageID)
		}
	}
	return expired
}

// Len returns the number of live reservations
func (store *Store) Len() int {
	n := 0
	for i := range store.shards {
		shard := &store.shards[i]
		shard.lock.Lock()
		n += len(shard.m)
		shard.lock.Unlock()
	}
	return n
}
