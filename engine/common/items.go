package common

// CharacterItem is one item-stack record in a storage container or character
// inventory
type CharacterItem struct {
	ID          string
	DataID      int32
	Level       int32
	Amount      int32
	Durability  float32
	Exp         int32
	LockRemains float32
	ExpireTime  int64
	RandomSeed  int32
	Sockets     []int32
}

// IsEmpty returns if the item slot holds nothing
func (item CharacterItem) IsEmpty() bool {
	return item.DataID == 0 || item.Amount <= 0
}

// Mail is one durable mail record
type Mail struct {
	ID         string
	SenderID   UserID
	SenderName string
	ReceiverID UserID
	Title      string
	Content    string
	Gold       int32
	Items      []CharacterItem
	IsRead     bool
	ReadAt     int64
	SentAt     int64
}
