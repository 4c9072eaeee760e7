package common

import (
	"fmt"

	"github.com/xnitro1/MMONewTest-sub013/engine/uuid"
)

// UserID identifies an authenticated user account
type UserID string

// IsNil returns if UserID is nil
func (id UserID) IsNil() bool {
	return id == ""
}

// GameID is the ID of a map server (world shard) process
type GameID uint16

// ConnectionID is the transport-assigned handle of one client connection on
// a map server; unique per map server process, not globally
type ConnectionID uint32

// AccessToken authenticates a user session against the central directory
type AccessToken string

// GenAccessToken generates a new access token
func GenAccessToken() AccessToken {
	return AccessToken(uuid.GenUUID())
}

// IsNil returns if AccessToken is nil
func (t AccessToken) IsNil() bool {
	return t == ""
}

// StorageType is the kind of a shared storage container
type StorageType byte

const (
	// StorageTypeNone is the invalid zero storage type
	StorageTypeNone StorageType = iota
	// StorageTypePlayer is a player-owned storage container
	StorageTypePlayer
	// StorageTypeGuild is a guild-shared storage container
	StorageTypeGuild
	// StorageTypeBuilding is a storage container owned by a placed building
	StorageTypeBuilding

	storageTypeMax
)

// IsValid returns if the storage type is one of the known container kinds
func (t StorageType) IsValid() bool {
	return t > StorageTypeNone && t < storageTypeMax
}

func (t StorageType) String() string {
	switch t {
	case StorageTypeNone:
		return "none"
	case StorageTypePlayer:
		return "player"
	case StorageTypeGuild:
		return "guild"
	case StorageTypeBuilding:
		return "building"
	default:
		return fmt.Sprintf("storagetype%d", byte(t))
	}
}

// StorageID is the composite key of one shared storage container; it is the
// reservation key and the persistence key
type StorageID struct {
	Type    StorageType
	OwnerID string
}

// IsNil returns if StorageID is the zero key
func (sid StorageID) IsNil() bool {
	return sid.Type == StorageTypeNone && sid.OwnerID == ""
}

func (sid StorageID) String() string {
	return sid.Type.String() + "$" + sid.OwnerID
}

// UserPeerInfo binds a transport-level connection to an authenticated
// identity; its lifetime is the connection lifetime
type UserPeerInfo struct {
	ConnectionID ConnectionID // local only, never marshaled
	UserID       UserID
	AccessToken  AccessToken
}

func (info UserPeerInfo) String() string {
	return fmt.Sprintf("UserPeerInfo<%s@%d>", info.UserID, info.ConnectionID)
}
