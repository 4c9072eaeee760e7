package recordstorageredis

import (
	"io"

	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
	. "github.com/xnitro1/MMONewTest-sub013/engine/storage/storage_common"
)

var (
	dataPacker = netutil.MessagePackMsgPacker{}
)

type redisRecordStorage struct {
	c redis.Conn
}

// OpenRedis opens redis as record storage
func OpenRedis(host string, dbindex int) (RecordStorage, error) {
	c, err := redis.Dial("tcp", host)
	if err != nil {
		return nil, errors.Wrap(err, "redis dial failed")
	}

	if _, err := c.Do("SELECT", dbindex); err != nil {
		return nil, errors.Wrap(err, "redis select db failed")
	}

	rs := &redisRecordStorage{
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

func (rs *redisRecordStorage) List(kind string) ([]string, error) {
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

func (rs *redisRecordStorage) Write(kind string, key string, data interface{}) error {
	b, err := packData(data)
	if err != nil {
		return err
	}

	_, err = rs.c.Do("SET", recordKey(kind, key), b)
	return err
}

func (rs *redisRecordStorage) Read(kind string, key string) (interface{}, error) {
	b, err := redis.Bytes(rs.c.Do("GET", recordKey(kind, key)))
	if err != nil {
		if err == redis.ErrNil {
			return nil, nil
		}
		return nil, err
	}
	var data map[string]interface{}
	if err = dataPacker.UnpackMsg(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (rs *redisRecordStorage) Exists(kind string, key string) (bool, error) {
	exists, err := redis.Bool(rs.c.Do("EXISTS", recordKey(kind, key)))
	return exists, err
}

func (rs *redisRecordStorage) Close() {
	rs.c.Close()
}

func (rs *redisRecordStorage) IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
