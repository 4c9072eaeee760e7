package proto

// MsgType is the type of messages exchanged in the coordination layer
type MsgType uint16

// Messages between map servers and the central server
const (
	// MT_INVALID is the invalid message type
	MT_INVALID = MsgType(iota)
	// MT_SET_GAME_ID is a message type for a map server to register itself on the central server
	MT_SET_GAME_ID
	// MT_SET_GAME_ID_ACK is sent back by the central server after MT_SET_GAME_ID
	MT_SET_GAME_ID_ACK
	// MT_REGISTER_SESSION binds an authenticated user to the sending map server
	MT_REGISTER_SESSION
	// MT_REGISTER_SESSION_ACK carries the register result back to the map server
	MT_REGISTER_SESSION_ACK
	// MT_UNREGISTER_SESSION removes a user's directory entry
	MT_UNREGISTER_SESSION
	// MT_REQUEST_FIND_ONLINE_USER asks the central server where a user is online
	MT_REQUEST_FIND_ONLINE_USER
	// MT_RESPONSE_FIND_ONLINE_USER answers MT_REQUEST_FIND_ONLINE_USER
	MT_RESPONSE_FIND_ONLINE_USER
	// MT_REQUEST_FORCE_DESPAWN_CHARACTER asks the central server to despawn a user's character
	MT_REQUEST_FORCE_DESPAWN_CHARACTER
	// MT_RESPONSE_FORCE_DESPAWN_CHARACTER answers MT_REQUEST_FORCE_DESPAWN_CHARACTER
	MT_RESPONSE_FORCE_DESPAWN_CHARACTER
	// MT_NOTIFY_DESPAWN_CHARACTER tells the owning map server to despawn the character
	MT_NOTIFY_DESPAWN_CHARACTER
	// MT_UPDATE_SERVER_INFO publishes channel infos of a map server to the central server
	MT_UPDATE_SERVER_INFO
)

// Messages between clients and map servers
const (
	// MT_CLIENT_MSG_TYPE_START is the first client message type
	MT_CLIENT_MSG_TYPE_START = MsgType(1000) + iota
	// MT_REQUEST_AUTH carries the user id and access token of a connecting client
	MT_REQUEST_AUTH
	// MT_RESPONSE_AUTH answers MT_REQUEST_AUTH
	MT_RESPONSE_AUTH
	// MT_REQUEST_OPEN_STORAGE asks to open a storage container
	MT_REQUEST_OPEN_STORAGE
	// MT_RESPONSE_OPEN_STORAGE answers MT_REQUEST_OPEN_STORAGE
	MT_RESPONSE_OPEN_STORAGE
	// MT_REQUEST_CLOSE_STORAGE releases an opened storage container
	MT_REQUEST_CLOSE_STORAGE
	// MT_UPDATE_STORAGE_ITEMS commits the new contents of an opened storage container
	MT_UPDATE_STORAGE_ITEMS
	// MT_SUBMIT_CHAT_MESSAGE submits one chat message for moderation and broadcast
	MT_SUBMIT_CHAT_MESSAGE
	// MT_NOTIFY_CHAT_MESSAGE broadcasts one chat message to sessions of the shard
	MT_NOTIFY_CHAT_MESSAGE
	// MT_REQUEST_MAIL_NOTIFICATION asks for the count of unread mails
	MT_REQUEST_MAIL_NOTIFICATION
	// MT_RESPONSE_MAIL_NOTIFICATION answers MT_REQUEST_MAIL_NOTIFICATION
	MT_RESPONSE_MAIL_NOTIFICATION
	// MT_REQUEST_READ_MAIL asks for the full record of one mail
	MT_REQUEST_READ_MAIL
	// MT_RESPONSE_READ_MAIL answers MT_REQUEST_READ_MAIL
	MT_RESPONSE_READ_MAIL
	// MT_REQUEST_GACHA_INFO asks for the gacha machines available to the character
	MT_REQUEST_GACHA_INFO
	// MT_RESPONSE_GACHA_INFO answers MT_REQUEST_GACHA_INFO
	MT_RESPONSE_GACHA_INFO
	// MT_REQUEST_OPEN_GACHA opens one gacha machine
	MT_REQUEST_OPEN_GACHA
	// MT_RESPONSE_OPEN_GACHA answers MT_REQUEST_OPEN_GACHA
	MT_RESPONSE_OPEN_GACHA
	// MT_REQUEST_AVAILABLE_FRAMES asks for the character frames owned by the character
	MT_REQUEST_AVAILABLE_FRAMES
	// MT_RESPONSE_AVAILABLE_FRAMES answers MT_REQUEST_AVAILABLE_FRAMES
	MT_RESPONSE_AVAILABLE_FRAMES
	// MT_REQUEST_AVAILABLE_ICONS asks for the character icons owned by the character
	MT_REQUEST_AVAILABLE_ICONS
	// MT_RESPONSE_AVAILABLE_ICONS answers MT_REQUEST_AVAILABLE_ICONS
	MT_RESPONSE_AVAILABLE_ICONS
	// MT_REQUEST_PLAYER_CHARACTER_TRANSFORM asks for another character's transform
	MT_REQUEST_PLAYER_CHARACTER_TRANSFORM
	// MT_RESPONSE_PLAYER_CHARACTER_TRANSFORM answers MT_REQUEST_PLAYER_CHARACTER_TRANSFORM
	MT_RESPONSE_PLAYER_CHARACTER_TRANSFORM
	// MT_UPDATE_MAP_INFO tells the client which map the shard simulates
	MT_UPDATE_MAP_INFO
	// MT_UPDATE_TIME_OF_DAY broadcasts the current in-game time of day
	MT_UPDATE_TIME_OF_DAY
	// MT_UPDATE_CHARACTER_TRANSFORM reports the client's own transform
	MT_UPDATE_CHARACTER_TRANSFORM
	// MT_UPDATE_PLAYER_CHARACTER_TRANSFORM broadcasts one character's transform to the shard
	MT_UPDATE_PLAYER_CHARACTER_TRANSFORM
	// MT_REJECT_CHAT_MESSAGE tells the sender its chat message was not broadcast
	MT_REJECT_CHAT_MESSAGE
)

// Messages between map servers and the database service
const (
	// MT_DB_MSG_TYPE_START is the first database service message type
	MT_DB_MSG_TYPE_START = MsgType(2000) + iota
	// MT_REQUEST_RESERVE_STORAGE tries to acquire the reservation of a storage container
	MT_REQUEST_RESERVE_STORAGE
	// MT_RESPONSE_RESERVE_STORAGE answers MT_REQUEST_RESERVE_STORAGE
	MT_RESPONSE_RESERVE_STORAGE
	// MT_REQUEST_RENEW_STORAGE extends the expiry of a held reservation
	MT_REQUEST_RENEW_STORAGE
	// MT_RESPONSE_RENEW_STORAGE answers MT_REQUEST_RENEW_STORAGE
	MT_RESPONSE_RENEW_STORAGE
	// MT_REQUEST_RELEASE_STORAGE releases a held reservation
	MT_REQUEST_RELEASE_STORAGE
	// MT_REQUEST_COMMIT_STORAGE_ITEMS persists storage items with the release decision
	MT_REQUEST_COMMIT_STORAGE_ITEMS
	// MT_RESPONSE_COMMIT_STORAGE_ITEMS answers MT_REQUEST_COMMIT_STORAGE_ITEMS
	MT_RESPONSE_COMMIT_STORAGE_ITEMS
	// MT_RELEASE_STORAGES_OF_HOLDER releases every reservation held by one session
	MT_RELEASE_STORAGES_OF_HOLDER
)

// Heartbeat messages
const (
	// MT_HEARTBEAT is sent periodically on idle connections
	MT_HEARTBEAT = MsgType(3000) + iota
	// MT_HEARTBEAT_ACK answers MT_HEARTBEAT
	MT_HEARTBEAT_ACK
)

// Status is the result code carried by response messages; any value other
// than STATUS_OK means the trailing response fields were not encoded
type Status uint16

const (
	// STATUS_OK means the request succeeded
	STATUS_OK = Status(iota)
	// STATUS_UNKNOWN_ERROR means the request failed for an unclassified reason
	STATUS_UNKNOWN_ERROR
	// STATUS_AUTH_FAILED means the user id and access token did not match
	STATUS_AUTH_FAILED
	// STATUS_DUPLICATE_SESSION means the user already has a live session elsewhere
	STATUS_DUPLICATE_SESSION
	// STATUS_USER_NOT_FOUND means the user has no directory entry
	STATUS_USER_NOT_FOUND
	// STATUS_ALREADY_RESERVED means another session holds the storage reservation
	STATUS_ALREADY_RESERVED
	// STATUS_NOT_HOLDER means the caller does not hold the storage reservation
	STATUS_NOT_HOLDER
	// STATUS_INVALID_STORAGE_TYPE means the storage type byte is not a known type
	STATUS_INVALID_STORAGE_TYPE
	// STATUS_MUTED means the sender is muted and can not chat
	STATUS_MUTED
	// STATUS_NOT_FOUND means the requested record does not exist
	STATUS_NOT_FOUND
)

// IsOK checks if the status is STATUS_OK
func (s Status) IsOK() bool {
	return s == STATUS_OK
}

func (s Status) String() string {
	switch s {
	case STATUS_OK:
		return "OK"
	case STATUS_UNKNOWN_ERROR:
		return "UnknownError"
	case STATUS_AUTH_FAILED:
		return "AuthFailed"
	case STATUS_DUPLICATE_SESSION:
		return "DuplicateSession"
	case STATUS_USER_NOT_FOUND:
		return "UserNotFound"
	case STATUS_ALREADY_RESERVED:
		return "AlreadyReserved"
	case STATUS_NOT_HOLDER:
		return "NotHolder"
	case STATUS_INVALID_STORAGE_TYPE:
		return "InvalidStorageType"
	case STATUS_MUTED:
		return "Muted"
	case STATUS_NOT_FOUND:
		return "NotFound"
	default:
		return "Status<unknown>"
	}
}
