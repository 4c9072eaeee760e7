package storagecommon

// RecordStorage defines the interface of durable record storage backends;
// records are grouped by kind (storage_items, character, mail, gacha) and
// addressed by a string key
type RecordStorage interface {
	List(kind string) ([]string, error)
	Write(kind string, key string, data interface{}) error
	Read(kind string, key string) (interface{}, error)
	Exists(kind string, key string) (bool, error)
	Close()
	IsEOF(err error) bool
}
