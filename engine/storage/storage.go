package storage

import (
	"time"

	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/config"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/opmon"
	"github.com/xnitro1/MMONewTest-sub013/engine/post"
	recordstoragefilesystem "github.com/xnitro1/MMONewTest-sub013/engine/storage/backend/filesystem"
	recordstoragemongodb "github.com/xnitro1/MMONewTest-sub013/engine/storage/backend/mongodb"
	recordstorageredis "github.com/xnitro1/MMONewTest-sub013/engine/storage/backend/redis"
	recordstoragerediscluster "github.com/xnitro1/MMONewTest-sub013/engine/storage/backend/redis_cluster"
	"github.com/xnitro1/MMONewTest-sub013/engine/storage/storage_common"
)

// Record kinds
const (
	KindStorageItems = "storage_items"
	KindMailbox      = "mailbox"
	KindGacha        = "gacha"
	KindCharacter    = "character"
)

type saveRequest struct {
	Kind     string
	Key      string
	Data     interface{}
	Callback SaveCallbackFunc
}

type loadRequest struct {
	Kind     string
	Key      string
	Callback LoadCallbackFunc
}

type existsRequest struct {
	Kind     string
	Key      string
	Callback ExistsCallbackFunc
}

type listRequest struct {
	Kind     string
	Callback ListCallbackFunc
}

// SaveCallbackFunc is the callback type of record Save
type SaveCallbackFunc func()

// LoadCallbackFunc is the callback type of record Load
type LoadCallbackFunc func(data interface{}, err error)

// ExistsCallbackFunc is the callback type of record Exists
type ExistsCallbackFunc func(exists bool, err error)

// ListCallbackFunc is the callback type of record List
type ListCallbackFunc func([]string, error)

// Storage owns the durable record storage of the database service; all
// operations go through one queue and run in submission order, so a commit
// enqueued while the committer still held its reservation can not be
// overtaken by a later commit
type Storage struct {
	cfg                  *config.StorageConfig
	engine               storagecommon.RecordStorage
	operationQueue       *xnsyncutil.SyncQueue
	routineTerminated    *xnsyncutil.OneTimeCond
	recentWarnedQueueLen int
}

// NewStorage creates a Storage over the configured backend and starts its
// operation routine
func NewStorage(cfg *config.StorageConfig) *Storage {
	s := &Storage{
		cfg:               cfg,
		operationQueue:    xnsyncutil.NewSyncQueue(),
		routineTerminated: xnsyncutil.NewOneTimeCond(),
	}
	if err := s.assureEngineReady(); err != nil {
		mnlog.Fatalf("Record storage is not ready: %s", err)
	}
	go s.operationRoutine()
	return s
}

func (s *Storage) assureEngineReady() (err error) {
	if s.engine != nil {
		return
	}

	cfg := s.cfg
	if cfg.Type == "filesystem" {
		s.engine, err = recordstoragefilesystem.OpenDirectory(cfg.Directory)
	} else if cfg.Type == "mongodb" {
		s.engine, err = recordstoragemongodb.OpenMongoDB(cfg.Url, cfg.DB)
	} else if cfg.Type == "redis" {
		var dbindex int
		if dbindex, err = parseRedisDBIndex(cfg.DB); err == nil {
			s.engine, err = recordstorageredis.OpenRedis(cfg.Url, dbindex)
		}
	} else if cfg.Type == "redis_cluster" {
		s.engine, err = recordstoragerediscluster.OpenRedisCluster(cfg.StartNodes.ToList())
	} else {
		mnlog.Panicf("unknown storage type: %s", cfg.Type)
	}

	return
}

func parseRedisDBIndex(db string) (int, error) {
	dbindex := 0
	for _, c := range db {
		if c < '0' || c > '9' {
			return 0, errInvalidDBIndex(db)
		}
		dbindex = dbindex*10 + int(c-'0')
	}
	return dbindex, nil
}

type errInvalidDBIndex string

func (err errInvalidDBIndex) Error() string {
	return "invalid redis db index: " + string(err)
}

// Save saves record data to storage
func (s *Storage) Save(kind string, key string, data interface{}, callback SaveCallbackFunc) {
	s.operationQueue.Push(saveRequest{
		Kind:     kind,
		Key:      key,
		Data:     data,
		Callback: callback,
	})
	s.checkOperationQueueLen()
}

// Load loads record data from storage
func (s *Storage) Load(kind string, key string, callback LoadCallbackFunc) {
	s.operationQueue.Push(loadRequest{
		Kind:     kind,
		Key:      key,
		Callback: callback,
	})
	s.checkOperationQueueLen()
}

// Exists checks if a record of the specified key exists in storage
func (s *Storage) Exists(kind string, key string, callback ExistsCallbackFunc) {
	s.operationQueue.Push(existsRequest{
		Kind:     kind,
		Key:      key,
		Callback: callback,
	})
	s.checkOperationQueueLen()
}

// List returns all record keys of the kind
//
// Return values can be large for common record kinds
func (s *Storage) List(kind string, callback ListCallbackFunc) {
	s.operationQueue.Push(listRequest{
		Kind:     kind,
		Callback: callback,
	})
	s.checkOperationQueueLen()
}

func (s *Storage) checkOperationQueueLen() {
	qlen := s.operationQueue.Len()
	if qlen > 100 && qlen%100 == 0 && s.recentWarnedQueueLen != qlen {
		mnlog.Warnf("Storage operation queue length = %d", qlen)
		s.recentWarnedQueueLen = qlen
	}
}

// Shutdown stops the operation routine after draining the queue
func (s *Storage) Shutdown() {
	s.operationQueue.Close()
	s.routineTerminated.Wait()
}

func (s *Storage) operationRoutine() {
	defer func() {
		err := recover()
		if err != nil {
			mnlog.TraceError("storage routine paniced: %s, restarting ...", err)
			go s.operationRoutine() // restart the storage routine
		} else {
			// normal quit
			s.engine.Close()
			s.routineTerminated.Signal()
		}
	}()

	for {
		err := s.assureEngineReady()
		if err != nil {
			mnlog.Errorf("Record storage is not ready: %s", err)
			time.Sleep(time.Second)
			continue
		}

		op := s.operationQueue.Pop()
		if op == nil { // storage closed
			break
		}

		if saveReq, ok := op.(saveRequest); ok {
			s.handleSave(saveReq)
		} else if loadReq, ok := op.(loadRequest); ok {
			s.handleLoad(loadReq)
		} else if existsReq, ok := op.(existsRequest); ok {
			s.handleExists(existsReq)
		} else if listReq, ok := op.(listRequest); ok {
			s.handleList(listReq)
		} else {
			mnlog.Panicf("storage: unknown operation: %v", op)
		}
	}
}

func (s *Storage) handleSave(saveReq saveRequest) {
	monop := opmon.StartOperation("storage.save")
	for {
		err := s.assureEngineReady()
		if err != nil {
			mnlog.Errorf("Record storage is not ready: %s", err)
			time.Sleep(time.Second) // wait for 1 second to retry
			continue
		}

		err = s.engine.Write(saveReq.Kind, saveReq.Key, saveReq.Data)
		if err != nil {
			mnlog.Errorf("storage: save %s %s failed: %s", saveReq.Kind, saveReq.Key, err)

			if s.engine.IsEOF(err) {
				s.engine.Close()
				s.engine = nil
			}

			continue // always retry if fail
		}

		monop.Finish(time.Millisecond * 100)
		if saveReq.Callback != nil {
			post.Post(func() {
				saveReq.Callback()
			})
		}
		break
	}
}

func (s *Storage) handleLoad(loadReq loadRequest) {
	monop := opmon.StartOperation("storage.load")
	data, err := s.engine.Read(loadReq.Kind, loadReq.Key)
	if err != nil {
		mnlog.TraceError("storage: load %s %s failed: %s", loadReq.Kind, loadReq.Key, err)
		data = nil
	}

	monop.Finish(time.Millisecond * 100)
	if loadReq.Callback != nil {
		post.Post(func() {
			loadReq.Callback(data, err)
		})
	}

	if err != nil && s.engine.IsEOF(err) {
		s.engine.Close()
		s.engine = nil
	}
}

func (s *Storage) handleExists(existsReq existsRequest) {
	monop := opmon.StartOperation("storage.exists")
	exists, err := s.engine.Exists(existsReq.Kind, existsReq.Key)
	monop.Finish(time.Millisecond * 100)
	if existsReq.Callback != nil {
		post.Post(func() {
			existsReq.Callback(exists, err)
		})
	}
	if err != nil && s.engine.IsEOF(err) {
		s.engine.Close()
		s.engine = nil
	}
}

func (s *Storage) handleList(listReq listRequest) {
	monop := opmon.StartOperation("storage.list")
	keys, err := s.engine.List(listReq.Kind)
	if err != nil {
		mnlog.TraceError("storage: list %s failed: %s", listReq.Kind, err)
	}
	monop.Finish(time.Millisecond * 1000)
	if listReq.Callback != nil {
		post.Post(func() {
			listReq.Callback(keys, err)
		})
	}
	if err != nil && s.engine.IsEOF(err) {
		s.engine.Close()
		s.engine = nil
	}
}

// SaveStorageItems persists the contents of one storage container
func (s *Storage) SaveStorageItems(id common.StorageID, items []common.CharacterItem, callback SaveCallbackFunc) {
	s.Save(KindStorageItems, id.String(), ItemsToRecord(items), callback)
}

// LoadStorageItems loads the contents of one storage container; a missing
// record loads as an empty container
func (s *Storage) LoadStorageItems(id common.StorageID, callback func(items []common.CharacterItem, err error)) {
	s.Load(KindStorageItems, id.String(), func(data interface{}, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(RecordToItems(data), nil)
	})
}

// SaveMailbox persists the mailbox of one user
func (s *Storage) SaveMailbox(userID common.UserID, mails []common.Mail, callback SaveCallbackFunc) {
	s.Save(KindMailbox, string(userID), MailsToRecord(mails), callback)
}

// LoadMailbox loads the mailbox of one user
func (s *Storage) LoadMailbox(userID common.UserID, callback func(mails []common.Mail, err error)) {
	s.Load(KindMailbox, string(userID), func(data interface{}, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(RecordToMails(data), nil)
	})
}
