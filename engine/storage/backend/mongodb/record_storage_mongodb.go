package recordstoragemongodb

import (
	"io"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/storage/storage_common"
)

const (
	_DEFAULT_DB_NAME = "mmonet"
)

type mongoDBRecordStorage struct {
	db *mgo.Database
}

// OpenMongoDB opens mongodb as record storage
func OpenMongoDB(url string, dbname string) (storagecommon.RecordStorage, error) {
	mnlog.Debugf("Connecting MongoDB ...")
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, err
	}

	session.SetMode(mgo.Monotonic, true)
	if dbname == "" {
		// if db is not specified, use default
		dbname = _DEFAULT_DB_NAME
	}
	return &mongoDBRecordStorage{
		db: session.DB(dbname),
	}, nil
}

func (rs *mongoDBRecordStorage) getCollection(kind string) *mgo.Collection {
	return rs.db.C(kind)
}

func (rs *mongoDBRecordStorage) Write(kind string, key string, data interface{}) error {
	col := rs.getCollection(kind)
	_, err := col.UpsertId(key, bson.M{
		"data": data,
	})
	return err
}

func (rs *mongoDBRecordStorage) Read(kind string, key string) (interface{}, error) {
	col := rs.getCollection(kind)
	q := col.FindId(key)
	var doc bson.M
	err := q.One(&doc)
	if err != nil {
		if err == mgo.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return convertM2Any(doc["data"]), nil
}

func convertM2Any(v interface{}) interface{} {
	switch im := v.(type) {
	case bson.M:
		m := map[string]interface{}(im)
		for k, mv := range m {
			m[k] = convertM2Any(mv)
		}
		return m
	case map[string]interface{}:
		for k, mv := range im {
			im[k] = convertM2Any(mv)
		}
		return im
	case []interface{}:
		for i, lv := range im {
			im[i] = convertM2Any(lv)
		}
		return im
	default:
		return v
	}
}

func (rs *mongoDBRecordStorage) List(kind string) ([]string, error) {
	col := rs.getCollection(kind)
	var docs []bson.M
	err := col.Find(nil).Select(bson.M{"_id": 1}).All(&docs)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(docs))
	for i, doc := range docs {
		keys[i] = doc["_id"].(string)
	}
	return keys, nil
}

func (rs *mongoDBRecordStorage) Exists(kind string, key string) (bool, error) {
	col := rs.getCollection(kind)
	query := col.FindId(key)
	var doc bson.M
	err := query.One(&doc)
	if err == nil {
		return true, nil
	} else if err == mgo.ErrNotFound {
		return false, nil
	} else {
		return false, err
	}
}

func (rs *mongoDBRecordStorage) Close() {
	rs.db.Session.Close()
}

func (rs *mongoDBRecordStorage) IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
