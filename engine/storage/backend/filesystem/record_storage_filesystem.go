package recordstoragefilesystem

import (
	"encoding/base64"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	. "github.com/xnitro1/MMONewTest-sub013/engine/storage/storage_common"
)

type fileSystemRecordStorage struct {
	directory string
}

func getFileName(kind string, key string) string {
	return kind + "$" + base64.URLEncoding.EncodeToString([]byte(key))
}

func (rs *fileSystemRecordStorage) getFilePath(kind string, key string) string {
	return filepath.Join(rs.directory, getFileName(kind, key))
}

func (rs *fileSystemRecordStorage) Write(kind string, key string, data interface{}) error {
	saveFile := rs.getFilePath(kind, key)
	dataBytes, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	return ioutil.WriteFile(saveFile, dataBytes, 0644)
}

func (rs *fileSystemRecordStorage) Read(kind string, key string) (interface{}, error) {
	saveFile := rs.getFilePath(kind, key)
	dataBytes, err := ioutil.ReadFile(saveFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var data interface{}
	err = json.Unmarshal(dataBytes, &data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (rs *fileSystemRecordStorage) Exists(kind string, key string) (exists bool, err error) {
	saveFile := rs.getFilePath(kind, key)
	_, err = os.Stat(saveFile)
	exists = err == nil || os.IsExist(err)
	if !exists && os.IsNotExist(err) {
		err = nil
	}
	return
}

func (rs *fileSystemRecordStorage) List(kind string) ([]string, error) {
	prefix := kind + "$"
	pat := filepath.Join(rs.directory, prefix+"*")
	files, err := filepath.Glob(pat)
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(files))
	prefixLen := len(prefix)
	for _, fpath := range files {
		_, fn := filepath.Split(fpath)
		if !strings.HasPrefix(fn, prefix) {
			mnlog.Errorf("invalid file: %s", fpath)
			continue
		}
		keyBytes, err := base64.URLEncoding.DecodeString(fn[prefixLen:])
		if err != nil {
			mnlog.TraceError("fail to parse file %s", fpath)
			continue
		}

		res = append(res, string(keyBytes))
	}
	return res, nil
}

func (rs *fileSystemRecordStorage) Close() {
	// need to do nothing
}

func (rs *fileSystemRecordStorage) IsEOF(err error) bool {
	return false
}

// OpenDirectory opens a directory on the local filesystem as record storage
func OpenDirectory(directory string) (RecordStorage, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, err
	}

	return &fileSystemRecordStorage{
		directory: directory,
	}, nil
}
