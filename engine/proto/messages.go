package proto

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
)

// Msg is one wire message; AppendToPacket and ReadFromPacket must consume
// exactly mirrored byte layouts or the stream desynchronizes
type Msg interface {
	AppendToPacket(p *netutil.Packet)
	ReadFromPacket(p *netutil.Packet)
}

func appendStatus(p *netutil.Packet, status Status) {
	p.AppendPackedUint32(uint32(status))
}

func readStatus(p *netutil.Packet) Status {
	return Status(p.ReadPackedUint32())
}

func appendItem(p *netutil.Packet, item common.CharacterItem) {
	p.AppendVarStr(item.ID)
	p.AppendPackedInt32(item.DataID)
	p.AppendPackedInt32(item.Level)
	p.AppendPackedInt32(item.Amount)
	p.AppendFloat32(item.Durability)
	p.AppendPackedInt32(item.Exp)
	p.AppendFloat32(item.LockRemains)
	p.AppendPackedInt64(item.ExpireTime)
	p.AppendPackedInt32(item.RandomSeed)
	p.AppendInt32List(item.Sockets)
}

func readItem(p *netutil.Packet) (item common.CharacterItem) {
	item.ID = p.ReadVarStr()
	item.DataID = p.ReadPackedInt32()
	item.Level = p.ReadPackedInt32()
	item.Amount = p.ReadPackedInt32()
	item.Durability = p.ReadFloat32()
	item.Exp = p.ReadPackedInt32()
	item.LockRemains = p.ReadFloat32()
	item.ExpireTime = p.ReadPackedInt64()
	item.RandomSeed = p.ReadPackedInt32()
	item.Sockets = p.ReadInt32List()
	return
}

func appendItemList(p *netutil.Packet, items []common.CharacterItem) {
	p.AppendPackedUint32(uint32(len(items)))
	for _, item := range items {
		appendItem(p, item)
	}
}

func readItemList(p *netutil.Packet) []common.CharacterItem {
	n := int(p.ReadPackedUint32())
	if n == 0 {
		return nil
	}
	items := make([]common.CharacterItem, n)
	for i := 0; i < n; i++ {
		items[i] = readItem(p)
	}
	return items
}

func appendMail(p *netutil.Packet, mail common.Mail) {
	p.AppendVarStr(mail.ID)
	p.AppendVarStr(string(mail.SenderID))
	p.AppendVarStr(mail.SenderName)
	p.AppendVarStr(string(mail.ReceiverID))
	p.AppendVarStr(mail.Title)
	p.AppendVarStr(mail.Content)
	p.AppendPackedInt32(mail.Gold)
	appendItemList(p, mail.Items)
	p.AppendBool(mail.IsRead)
	p.AppendPackedInt64(mail.ReadAt)
	p.AppendPackedInt64(mail.SentAt)
}

func readMail(p *netutil.Packet) (mail common.Mail) {
	mail.ID = p.ReadVarStr()
	mail.SenderID = common.UserID(p.ReadVarStr())
	mail.SenderName = p.ReadVarStr()
	mail.ReceiverID = common.UserID(p.ReadVarStr())
	mail.Title = p.ReadVarStr()
	mail.Content = p.ReadVarStr()
	mail.Gold = p.ReadPackedInt32()
	mail.Items = readItemList(p)
	mail.IsRead = p.ReadBool()
	mail.ReadAt = p.ReadPackedInt64()
	mail.SentAt = p.ReadPackedInt64()
	return
}

// SetGameIDMsg registers a map server on the central server
type SetGameIDMsg struct {
	GameID     common.GameID
	ListenAddr string
}

func (m *SetGameIDMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendUint16(uint16(m.GameID))
	p.AppendVarStr(m.ListenAddr)
}

func (m *SetGameIDMsg) ReadFromPacket(p *netutil.Packet) {
	m.GameID = common.GameID(p.ReadUint16())
	m.ListenAddr = p.ReadVarStr()
}

// SetGameIDAckMsg answers SetGameIDMsg
type SetGameIDAckMsg struct {
	GameID common.GameID
}

func (m *SetGameIDAckMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendUint16(uint16(m.GameID))
}

func (m *SetGameIDAckMsg) ReadFromPacket(p *netutil.Packet) {
	m.GameID = common.GameID(p.ReadUint16())
}

// RegisterSessionMsg binds an authenticated user to the sending map server
type RegisterSessionMsg struct {
	ConnectionID common.ConnectionID
	UserID       common.UserID
	AccessToken  common.AccessToken
}

func (m *RegisterSessionMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendVarStr(string(m.UserID))
	p.AppendVarStr(string(m.AccessToken))
}

func (m *RegisterSessionMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.UserID = common.UserID(p.ReadVarStr())
	m.AccessToken = common.AccessToken(p.ReadVarStr())
}

// RegisterSessionAckMsg carries the register result back to the map server;
// ConnectionID correlates the ack with the pending session
type RegisterSessionAckMsg struct {
	ConnectionID common.ConnectionID
	UserID       common.UserID
	Status       Status
}

func (m *RegisterSessionAckMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendVarStr(string(m.UserID))
	appendStatus(p, m.Status)
}

func (m *RegisterSessionAckMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.UserID = common.UserID(p.ReadVarStr())
	m.Status = readStatus(p)
}

// UnregisterSessionMsg removes the directory entry bound to the connection
type UnregisterSessionMsg struct {
	ConnectionID common.ConnectionID
}

func (m *UnregisterSessionMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
}

func (m *UnregisterSessionMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
}

// RequestFindOnlineUserMsg asks where a user is online; ConnectionID routes
// the response back to the requesting session
type RequestFindOnlineUserMsg struct {
	ConnectionID common.ConnectionID
	UserID       common.UserID
}

func (m *RequestFindOnlineUserMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendVarStr(string(m.UserID))
}

func (m *RequestFindOnlineUserMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.UserID = common.UserID(p.ReadVarStr())
}

// FindOnlineUserOK is the success payload of ResponseFindOnlineUserMsg
type FindOnlineUserOK struct {
	GameID common.GameID
}

// ResponseFindOnlineUserMsg answers RequestFindOnlineUserMsg; OK is non-nil
// exactly when Status is STATUS_OK
type ResponseFindOnlineUserMsg struct {
	ConnectionID common.ConnectionID
	UserID       common.UserID
	Status       Status
	OK           *FindOnlineUserOK
}

func (m *ResponseFindOnlineUserMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendVarStr(string(m.UserID))
	appendStatus(p, m.Status)
	if m.Status.IsOK() {
		p.AppendUint16(uint16(m.OK.GameID))
	}
}

func (m *ResponseFindOnlineUserMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.UserID = common.UserID(p.ReadVarStr())
	m.Status = readStatus(p)
	if m.Status.IsOK() {
		m.OK = &FindOnlineUserOK{GameID: common.GameID(p.ReadUint16())}
	} else {
		m.OK = nil
	}
}

// RequestForceDespawnCharacterMsg asks the central server to despawn a
// user's character wherever it is online
type RequestForceDespawnCharacterMsg struct {
	ConnectionID common.ConnectionID
	UserID       common.UserID
}

func (m *RequestForceDespawnCharacterMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendVarStr(string(m.UserID))
}

func (m *RequestForceDespawnCharacterMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.UserID = common.UserID(p.ReadVarStr())
}

// ResponseForceDespawnCharacterMsg answers RequestForceDespawnCharacterMsg;
// despawning an offline user still succeeds
type ResponseForceDespawnCharacterMsg struct {
	ConnectionID common.ConnectionID
	UserID       common.UserID
	Status       Status
}

func (m *ResponseForceDespawnCharacterMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendVarStr(string(m.UserID))
	appendStatus(p, m.Status)
}

func (m *ResponseForceDespawnCharacterMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.UserID = common.UserID(p.ReadVarStr())
	m.Status = readStatus(p)
}

// NotifyDespawnCharacterMsg tells the owning map server to disconnect and
// despawn the user's character
type NotifyDespawnCharacterMsg struct {
	UserID common.UserID
}

func (m *NotifyDespawnCharacterMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendVarStr(string(m.UserID))
}

func (m *NotifyDespawnCharacterMsg) ReadFromPacket(p *netutil.Packet) {
	m.UserID = common.UserID(p.ReadVarStr())
}

// UpdateServerInfoMsg publishes channel infos of a map server; CPUPercent
// carries the shard load for the channel list
type UpdateServerInfoMsg struct {
	ChannelID          string
	ChannelTitle       string
	ChannelDescription string
	CPUPercent         float64
}

func (m *UpdateServerInfoMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendVarStr(m.ChannelID)
	p.AppendVarStr(m.ChannelTitle)
	p.AppendVarStr(m.ChannelDescription)
	p.AppendFloat64(m.CPUPercent)
}

func (m *UpdateServerInfoMsg) ReadFromPacket(p *netutil.Packet) {
	m.ChannelID = p.ReadVarStr()
	m.ChannelTitle = p.ReadVarStr()
	m.ChannelDescription = p.ReadVarStr()
	m.CPUPercent = p.ReadFloat64()
}

// RequestAuthMsg carries the user id and access token of a connecting client
type RequestAuthMsg struct {
	UserID      common.UserID
	AccessToken common.AccessToken
}

func (m *RequestAuthMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendVarStr(string(m.UserID))
	p.AppendVarStr(string(m.AccessToken))
}

func (m *RequestAuthMsg) ReadFromPacket(p *netutil.Packet) {
	m.UserID = common.UserID(p.ReadVarStr())
	m.AccessToken = common.AccessToken(p.ReadVarStr())
}

// ResponseAuthMsg answers RequestAuthMsg
type ResponseAuthMsg struct {
	Status Status
}

func (m *ResponseAuthMsg) AppendToPacket(p *netutil.Packet) {
	appendStatus(p, m.Status)
}

func (m *ResponseAuthMsg) ReadFromPacket(p *netutil.Packet) {
	m.Status = readStatus(p)
}

// RequestOpenStorageMsg asks to open a storage container; OwnerID is empty
// for the requester's own player storage
type RequestOpenStorageMsg struct {
	StorageType common.StorageType
	OwnerID     string
}

func (m *RequestOpenStorageMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendByte(byte(m.StorageType))
	p.AppendVarStr(m.OwnerID)
}

func (m *RequestOpenStorageMsg) ReadFromPacket(p *netutil.Packet) {
	m.StorageType = common.StorageType(p.ReadOneByte())
	m.OwnerID = p.ReadVarStr()
}

// OpenStorageOK is the success payload of ResponseOpenStorageMsg
type OpenStorageOK struct {
	StorageID common.StorageID
	Items     []common.CharacterItem
}

// ResponseOpenStorageMsg answers RequestOpenStorageMsg; OK is non-nil
// exactly when Status is STATUS_OK
type ResponseOpenStorageMsg struct {
	Status Status
	OK     *OpenStorageOK
}

func (m *ResponseOpenStorageMsg) AppendToPacket(p *netutil.Packet) {
	appendStatus(p, m.Status)
	if m.Status.IsOK() {
		p.AppendByte(byte(m.OK.StorageID.Type))
		p.AppendVarStr(m.OK.StorageID.OwnerID)
		appendItemList(p, m.OK.Items)
	}
}

func (m *ResponseOpenStorageMsg) ReadFromPacket(p *netutil.Packet) {
	m.Status = readStatus(p)
	if m.Status.IsOK() {
		ok := &OpenStorageOK{}
		ok.StorageID.Type = common.StorageType(p.ReadOneByte())
		ok.StorageID.OwnerID = p.ReadVarStr()
		ok.Items = readItemList(p)
		m.OK = ok
	} else {
		m.OK = nil
	}
}

// RequestCloseStorageMsg releases an opened storage container
type RequestCloseStorageMsg struct {
	StorageID common.StorageID
}

func (m *RequestCloseStorageMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendByte(byte(m.StorageID.Type))
	p.AppendVarStr(m.StorageID.OwnerID)
}

func (m *RequestCloseStorageMsg) ReadFromPacket(p *netutil.Packet) {
	m.StorageID.Type = common.StorageType(p.ReadOneByte())
	m.StorageID.OwnerID = p.ReadVarStr()
}

// UpdateStorageItemsMsg commits the new contents of an opened storage
// container; DeleteReservation releases the reservation with the commit
type UpdateStorageItemsMsg struct {
	StorageType       common.StorageType
	StorageOwnerID    string
	Items             []common.CharacterItem
	DeleteReservation bool
}

func (m *UpdateStorageItemsMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendByte(byte(m.StorageType))
	p.AppendVarStr(m.StorageOwnerID)
	appendItemList(p, m.Items)
	p.AppendBool(m.DeleteReservation)
}

func (m *UpdateStorageItemsMsg) ReadFromPacket(p *netutil.Packet) {
	m.StorageType = common.StorageType(p.ReadOneByte())
	m.StorageOwnerID = p.ReadVarStr()
	m.Items = readItemList(p)
	m.DeleteReservation = p.ReadBool()
}

// SubmitChatMessageMsg submits one chat message
type SubmitChatMessageMsg struct {
	Text string
}

func (m *SubmitChatMessageMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendVarStr(m.Text)
}

func (m *SubmitChatMessageMsg) ReadFromPacket(p *netutil.Packet) {
	m.Text = p.ReadVarStr()
}

// NotifyChatMessageMsg broadcasts one chat message to the shard
type NotifyChatMessageMsg struct {
	SenderID   common.UserID
	SenderName string
	Text       string
}

func (m *NotifyChatMessageMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendVarStr(string(m.SenderID))
	p.AppendVarStr(m.SenderName)
	p.AppendVarStr(m.Text)
}

func (m *NotifyChatMessageMsg) ReadFromPacket(p *netutil.Packet) {
	m.SenderID = common.UserID(p.ReadVarStr())
	m.SenderName = p.ReadVarStr()
	m.Text = p.ReadVarStr()
}

// RejectChatMessageMsg tells the sender why its chat message was not
// broadcast, such as STATUS_MUTED
type RejectChatMessageMsg struct {
	Status Status
}

func (m *RejectChatMessageMsg) AppendToPacket(p *netutil.Packet) {
	appendStatus(p, m.Status)
}

func (m *RejectChatMessageMsg) ReadFromPacket(p *netutil.Packet) {
	m.Status = readStatus(p)
}

// MailNotificationOK is the success payload of ResponseMailNotificationMsg
type MailNotificationOK struct {
	NotificationCount int32
}

// ResponseMailNotificationMsg answers MT_REQUEST_MAIL_NOTIFICATION; OK is
// non-nil exactly when Status is STATUS_OK
type ResponseMailNotificationMsg struct {
	Status Status
	OK     *MailNotificationOK
}

func (m *ResponseMailNotificationMsg) AppendToPacket(p *netutil.Packet) {
	appendStatus(p, m.Status)
	if m.Status.IsOK() {
		p.AppendPackedInt32(m.OK.NotificationCount)
	}
}

func (m *ResponseMailNotificationMsg) ReadFromPacket(p *netutil.Packet) {
	m.Status = readStatus(p)
	if m.Status.IsOK() {
		m.OK = &MailNotificationOK{NotificationCount: p.ReadPackedInt32()}
	} else {
		m.OK = nil
	}
}

// RequestReadMailMsg asks for the full record of one mail
type RequestReadMailMsg struct {
	MailID string
}

func (m *RequestReadMailMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendVarStr(m.MailID)
}

func (m *RequestReadMailMsg) ReadFromPacket(p *netutil.Packet) {
	m.MailID = p.ReadVarStr()
}

// ReadMailOK is the success payload of ResponseReadMailMsg
type ReadMailOK struct {
	Mail common.Mail
}

// ResponseReadMailMsg answers RequestReadMailMsg; OK is non-nil exactly
// when Status is STATUS_OK
type ResponseReadMailMsg struct {
	Status Status
	OK     *ReadMailOK
}

func (m *ResponseReadMailMsg) AppendToPacket(p *netutil.Packet) {
	appendStatus(p, m.Status)
	if m.Status.IsOK() {
		appendMail(p, m.OK.Mail)
	}
}

func (m *ResponseReadMailMsg) ReadFromPacket(p *netutil.Packet) {
	m.Status = readStatus(p)
	if m.Status.IsOK() {
		m.OK = &ReadMailOK{Mail: readMail(p)}
	} else {
		m.OK = nil
	}
}

// GachaInfoOK is the success payload of ResponseGachaInfoMsg
type GachaInfoOK struct {
	Cash     int32
	GachaIDs []int32
}

// ResponseGachaInfoMsg answers MT_REQUEST_GACHA_INFO; OK is non-nil exactly
// when Status is STATUS_OK
type ResponseGachaInfoMsg struct {
	Status Status
	OK     *GachaInfoOK
}

func (m *ResponseGachaInfoMsg) AppendToPacket(p *netutil.Packet) {
	appendStatus(p, m.Status)
	if m.Status.IsOK() {
		p.AppendPackedInt32(m.OK.Cash)
		p.AppendInt32List(m.OK.GachaIDs)
	}
}

func (m *ResponseGachaInfoMsg) ReadFromPacket(p *netutil.Packet) {
	m.Status = readStatus(p)
	if m.Status.IsOK() {
		ok := &GachaInfoOK{}
		ok.Cash = p.ReadPackedInt32()
		ok.GachaIDs = p.ReadInt32List()
		m.OK = ok
	} else {
		m.OK = nil
	}
}

// RequestOpenGachaMsg opens one gacha machine
type RequestOpenGachaMsg struct {
	DataID int32
}

func (m *RequestOpenGachaMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedInt32(m.DataID)
}

func (m *RequestOpenGachaMsg) ReadFromPacket(p *netutil.Packet) {
	m.DataID = p.ReadPackedInt32()
}

// OpenGachaOK is the success payload of ResponseOpenGachaMsg
type OpenGachaOK struct {
	DataID      int32
	RewardItems []common.CharacterItem
}

// ResponseOpenGachaMsg answers RequestOpenGachaMsg; OK is non-nil exactly
// when Status is STATUS_OK
type ResponseOpenGachaMsg struct {
	Status Status
	OK     *OpenGachaOK
}

func (m *ResponseOpenGachaMsg) AppendToPacket(p *netutil.Packet) {
	appendStatus(p, m.Status)
	if m.Status.IsOK() {
		p.AppendPackedInt32(m.OK.DataID)
		appendItemList(p, m.OK.RewardItems)
	}
}

func (m *ResponseOpenGachaMsg) ReadFromPacket(p *netutil.Packet) {
	m.Status = readStatus(p)
	if m.Status.IsOK() {
		ok := &OpenGachaOK{}
		ok.DataID = p.ReadPackedInt32()
		ok.RewardItems = readItemList(p)
		m.OK = ok
	} else {
		m.OK = nil
	}
}

// ResponseAvailableFramesMsg answers MT_REQUEST_AVAILABLE_FRAMES; FrameIDs
// is always encoded, empty on failure
type ResponseAvailableFramesMsg struct {
	Status   Status
	FrameIDs []int32
}

func (m *ResponseAvailableFramesMsg) AppendToPacket(p *netutil.Packet) {
	appendStatus(p, m.Status)
	p.AppendInt32List(m.FrameIDs)
}

func (m *ResponseAvailableFramesMsg) ReadFromPacket(p *netutil.Packet) {
	m.Status = readStatus(p)
	m.FrameIDs = p.ReadInt32List()
}

// ResponseAvailableIconsMsg answers MT_REQUEST_AVAILABLE_ICONS; IconIDs is
// always encoded, empty on failure
type ResponseAvailableIconsMsg struct {
	Status  Status
	IconIDs []int32
}

func (m *ResponseAvailableIconsMsg) AppendToPacket(p *netutil.Packet) {
	appendStatus(p, m.Status)
	p.AppendInt32List(m.IconIDs)
}

func (m *ResponseAvailableIconsMsg) ReadFromPacket(p *netutil.Packet) {
	m.Status = readStatus(p)
	m.IconIDs = p.ReadInt32List()
}

// RequestPlayerCharacterTransformMsg asks for another character's transform
type RequestPlayerCharacterTransformMsg struct {
	UserID common.UserID
}

func (m *RequestPlayerCharacterTransformMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendVarStr(string(m.UserID))
}

func (m *RequestPlayerCharacterTransformMsg) ReadFromPacket(p *netutil.Packet) {
	m.UserID = common.UserID(p.ReadVarStr())
}

// ResponsePlayerCharacterTransformMsg answers the transform request;
// Position and Rotation are always encoded, zero vectors on failure
type ResponsePlayerCharacterTransformMsg struct {
	Status   Status
	Position mgl32.Vec3
	Rotation mgl32.Vec3
}

func (m *ResponsePlayerCharacterTransformMsg) AppendToPacket(p *netutil.Packet) {
	appendStatus(p, m.Status)
	p.AppendVector3(m.Position)
	p.AppendVector3(m.Rotation)
}

func (m *ResponsePlayerCharacterTransformMsg) ReadFromPacket(p *netutil.Packet) {
	m.Status = readStatus(p)
	m.Position = p.ReadVector3()
	m.Rotation = p.ReadVector3()
}

// UpdateMapInfoMsg tells the client which map the shard simulates
type UpdateMapInfoMsg struct {
	MapName   string
	ClassName string
}

func (m *UpdateMapInfoMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendVarStr(m.MapName)
	p.AppendVarStr(m.ClassName)
}

func (m *UpdateMapInfoMsg) ReadFromPacket(p *netutil.Packet) {
	m.MapName = p.ReadVarStr()
	m.ClassName = p.ReadVarStr()
}

// UpdateTimeOfDayMsg broadcasts the current in-game time of day
type UpdateTimeOfDayMsg struct {
	TimeOfDay float32
}

func (m *UpdateTimeOfDayMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendFloat32(m.TimeOfDay)
}

func (m *UpdateTimeOfDayMsg) ReadFromPacket(p *netutil.Packet) {
	m.TimeOfDay = p.ReadFloat32()
}

// UpdateCharacterTransformMsg reports the client's own transform; movement
// itself is simulated client side, the shard only relays
type UpdateCharacterTransformMsg struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
}

func (m *UpdateCharacterTransformMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendVector3(m.Position)
	p.AppendVector3(m.Rotation)
}

func (m *UpdateCharacterTransformMsg) ReadFromPacket(p *netutil.Packet) {
	m.Position = p.ReadVector3()
	m.Rotation = p.ReadVector3()
}

// UpdatePlayerCharacterTransformMsg broadcasts one character's transform to
// the sessions of the shard
type UpdatePlayerCharacterTransformMsg struct {
	UserID   common.UserID
	Position mgl32.Vec3
	Rotation mgl32.Vec3
}

func (m *UpdatePlayerCharacterTransformMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendVarStr(string(m.UserID))
	p.AppendVector3(m.Position)
	p.AppendVector3(m.Rotation)
}

func (m *UpdatePlayerCharacterTransformMsg) ReadFromPacket(p *netutil.Packet) {
	m.UserID = common.UserID(p.ReadVarStr())
	m.Position = p.ReadVector3()
	m.Rotation = p.ReadVector3()
}

// EmptyMsg is the body of messages that carry no fields, such as the mail
// notification and gacha info requests
type EmptyMsg struct{}

func (m *EmptyMsg) AppendToPacket(p *netutil.Packet) {}

func (m *EmptyMsg) ReadFromPacket(p *netutil.Packet) {}

// HeartbeatMsg is the empty body of MT_HEARTBEAT and MT_HEARTBEAT_ACK
type HeartbeatMsg = EmptyMsg

// RequestReserveStorageMsg tries to acquire a storage reservation; Holder
// identifies the requesting session globally, ConnectionID correlates the
// response on the requesting map server
type RequestReserveStorageMsg struct {
	ConnectionID common.ConnectionID
	StorageID    common.StorageID
	Holder       string
	TTLSeconds   uint32
}

func (m *RequestReserveStorageMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendByte(byte(m.StorageID.Type))
	p.AppendVarStr(m.StorageID.OwnerID)
	p.AppendVarStr(m.Holder)
	p.AppendPackedUint32(m.TTLSeconds)
}

func (m *RequestReserveStorageMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.StorageID.Type = common.StorageType(p.ReadOneByte())
	m.StorageID.OwnerID = p.ReadVarStr()
	m.Holder = p.ReadVarStr()
	m.TTLSeconds = p.ReadPackedUint32()
}

// ReserveStorageOK is the success payload of ResponseReserveStorageMsg
type ReserveStorageOK struct {
	Items []common.CharacterItem
}

// ResponseReserveStorageMsg answers RequestReserveStorageMsg; OK carries
// the current container contents and is non-nil exactly when Status is
// STATUS_OK; on STATUS_ALREADY_RESERVED CurrentHolder names the holder
type ResponseReserveStorageMsg struct {
	ConnectionID  common.ConnectionID
	StorageID     common.StorageID
	Status        Status
	CurrentHolder string
	OK            *ReserveStorageOK
}

func (m *ResponseReserveStorageMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendByte(byte(m.StorageID.Type))
	p.AppendVarStr(m.StorageID.OwnerID)
	appendStatus(p, m.Status)
	p.AppendVarStr(m.CurrentHolder)
	if m.Status.IsOK() {
		appendItemList(p, m.OK.Items)
	}
}

func (m *ResponseReserveStorageMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.StorageID.Type = common.StorageType(p.ReadOneByte())
	m.StorageID.OwnerID = p.ReadVarStr()
	m.Status = readStatus(p)
	m.CurrentHolder = p.ReadVarStr()
	if m.Status.IsOK() {
		m.OK = &ReserveStorageOK{Items: readItemList(p)}
	} else {
		m.OK = nil
	}
}

// RequestRenewStorageMsg extends the expiry of a held reservation
type RequestRenewStorageMsg struct {
	ConnectionID common.ConnectionID
	StorageID    common.StorageID
	Holder       string
	TTLSeconds   uint32
}

func (m *RequestRenewStorageMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendByte(byte(m.StorageID.Type))
	p.AppendVarStr(m.StorageID.OwnerID)
	p.AppendVarStr(m.Holder)
	p.AppendPackedUint32(m.TTLSeconds)
}

func (m *RequestRenewStorageMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.StorageID.Type = common.StorageType(p.ReadOneByte())
	m.StorageID.OwnerID = p.ReadVarStr()
	m.Holder = p.ReadVarStr()
	m.TTLSeconds = p.ReadPackedUint32()
}

// ResponseRenewStorageMsg answers RequestRenewStorageMsg
type ResponseRenewStorageMsg struct {
	ConnectionID common.ConnectionID
	StorageID    common.StorageID
	Status       Status
}

func (m *ResponseRenewStorageMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendByte(byte(m.StorageID.Type))
	p.AppendVarStr(m.StorageID.OwnerID)
	appendStatus(p, m.Status)
}

func (m *ResponseRenewStorageMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.StorageID.Type = common.StorageType(p.ReadOneByte())
	m.StorageID.OwnerID = p.ReadVarStr()
	m.Status = readStatus(p)
}

// RequestReleaseStorageMsg releases a held reservation; releasing an
// already released reservation is not an error
type RequestReleaseStorageMsg struct {
	StorageID common.StorageID
	Holder    string
}

func (m *RequestReleaseStorageMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendByte(byte(m.StorageID.Type))
	p.AppendVarStr(m.StorageID.OwnerID)
	p.AppendVarStr(m.Holder)
}

func (m *RequestReleaseStorageMsg) ReadFromPacket(p *netutil.Packet) {
	m.StorageID.Type = common.StorageType(p.ReadOneByte())
	m.StorageID.OwnerID = p.ReadVarStr()
	m.Holder = p.ReadVarStr()
}

// RequestCommitStorageItemsMsg persists the item list atomically with the
// release decision
type RequestCommitStorageItemsMsg struct {
	ConnectionID      common.ConnectionID
	StorageID         common.StorageID
	Holder            string
	Items             []common.CharacterItem
	DeleteReservation bool
}

func (m *RequestCommitStorageItemsMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendByte(byte(m.StorageID.Type))
	p.AppendVarStr(m.StorageID.OwnerID)
	p.AppendVarStr(m.Holder)
	appendItemList(p, m.Items)
	p.AppendBool(m.DeleteReservation)
}

func (m *RequestCommitStorageItemsMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.StorageID.Type = common.StorageType(p.ReadOneByte())
	m.StorageID.OwnerID = p.ReadVarStr()
	m.Holder = p.ReadVarStr()
	m.Items = readItemList(p)
	m.DeleteReservation = p.ReadBool()
}

// ResponseCommitStorageItemsMsg answers RequestCommitStorageItemsMsg
type ResponseCommitStorageItemsMsg struct {
	ConnectionID common.ConnectionID
	StorageID    common.StorageID
	Status       Status
}

func (m *ResponseCommitStorageItemsMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendPackedUint32(uint32(m.ConnectionID))
	p.AppendByte(byte(m.StorageID.Type))
	p.AppendVarStr(m.StorageID.OwnerID)
	appendStatus(p, m.Status)
}

func (m *ResponseCommitStorageItemsMsg) ReadFromPacket(p *netutil.Packet) {
	m.ConnectionID = common.ConnectionID(p.ReadPackedUint32())
	m.StorageID.Type = common.StorageType(p.ReadOneByte())
	m.StorageID.OwnerID = p.ReadVarStr()
	m.Status = readStatus(p)
}

// ReleaseStoragesOfHolderMsg releases every reservation held by the session
type ReleaseStoragesOfHolderMsg struct {
	Holder string
}

func (m *ReleaseStoragesOfHolderMsg) AppendToPacket(p *netutil.Packet) {
	p.AppendVarStr(m.Holder)
}

func (m *ReleaseStoragesOfHolderMsg) ReadFromPacket(p *netutil.Packet) {
	m.Holder = p.ReadVarStr()
}
