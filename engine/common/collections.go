package common

// StringSet is a set of strings
type StringSet map[string]struct{}

// Contains checks if StringSet contains the string
func (ss StringSet) Contains(elem string) bool {
	_, ok := ss[elem]
	return ok
}

// Add adds the string to StringSet
func (ss StringSet) Add(elem string) {
	ss[elem] = struct{}{}
}

// Remove removes the string from StringSet
func (ss StringSet) Remove(elem string) {
	delete(ss, elem)
}

// ToList convert StringSet to string slice
func (ss StringSet) ToList() []string {
	keys := make([]string, 0, len(ss))
	for s := range ss {
		keys = append(keys, s)
	}
	return keys
}

// StorageIDSet is a set of storage container keys
type StorageIDSet map[StorageID]struct{}

// Add adds a StorageID to the set
func (ss StorageIDSet) Add(id StorageID) {
	ss[id] = struct{}{}
}

// Del removes a StorageID from the set
func (ss StorageIDSet) Del(id StorageID) {
	delete(ss, id)
}

// Contains checks if the StorageID is in the set
func (ss StorageIDSet) Contains(id StorageID) bool {
	_, ok := ss[id]
	return ok
}

// ToList converts the set to a slice of StorageIDs
func (ss StorageIDSet) ToList() []StorageID {
	list := make([]StorageID, 0, len(ss))
	for id := range ss {
		list = append(list, id)
	}
	return list
}
