package recordstoragerediscluster

import (
	"io"
	"time"

	rediscluster "github.com/chasex/redis-go-cluster"
	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
	"github.com/xnitro1/MMONewTest-sub013/engine/storage/storage_common"
)

var (
	dataPacker = netutil.MessagePackMsgPacker{}
)

type redisClusterRecordStorage struct {
	c rediscluster.Cluster
}

// OpenRedisCluster opens a redis cluster as record storage
func OpenRedisCluster(startNodes []string) (storagecommon.RecordStorage, error) {
	c, err := rediscluster.NewCluster(&rediscluster.Options{
		StartNodes:   startNodes,
		ConnTimeout:  10 * time.Second, // Connection timeout
		ReadTimeout:  60 * time.Second, // Read timeout
		WriteTimeout: 60 * time.Second, // Write timeout
		KeepAlive:    1,                // Maximum keep alive connecion in each node
		AliveTime:    10 * time.Minute, // Keep alive timeout
	})

	if err != nil {
		return nil, errors.Wrap(err, "connect redis cluster failed")
	}

	rs := &redisClusterRecordStorage{
		c: c,
	}

	return rs, nil
}

func recordKey(kind string, key string) string {
	return kind + "$" + key
}

func packData(data interface{}) (b []byte, err error) {
	b, err = dataPacker.PackMsg(data, b)
	return
}

func (rs *redisClusterRecordStorage) List(kind string) ([]string, error) {
	keyMatch := kind + "$*"
	r, err := redis.Values(rs.c.Do("SCAN", "0", "MATCH", keyMatch, "COUNT", 10000))
	if err != nil {
		return nil, err
	}
	var res []string
	prefixLen := len(kind) + 1
	for {
		nextCursor := r[0]
		keys, err := redis.Strings(r[1], nil)
		if err != nil {
			return nil, err
		}

		for _, key := range keys {
			res = append(res, key[prefixLen:])
		}

		if isZeroCursor(nextCursor) {
			break
		}
		r, err = redis.Values(rs.c.Do("SCAN", nextCursor, "MATCH", keyMatch, "COUNT", 10000))
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func isZeroCursor(c interface{}) bool {
	return string(c.([]byte)) == "0"
}

func (rs *redisClusterRecordStorage) Write(kind string, key string, data interface{}) error {
	b, err := packData(data)
	if err != nil {
		return err
	}

	_, err = rs.c.Do("SET", recordKey(kind, key), b)
	return err
}

func (rs *redisClusterRecordStorage) Read(kind string, key string) (interface{}, error) {
	b, err := redis.Bytes(rs.c.Do("GET", recordKey(kind, key)))
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err = dataPacker.UnpackMsg(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (rs *redisClusterRecordStorage) Exists(kind string, key string) (bool, error) {
	exists, err := redis.Bool(rs.c.Do("EXISTS", recordKey(kind, key)))
	return exists, err
}

func (rs *redisClusterRecordStorage) Close() {
	// rediscluster.Cluster provides no Close method
}

func (rs *redisClusterRecordStorage) IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
