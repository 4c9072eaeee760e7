package proto

import (
	"reflect"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
	"github.com/xnitro1/MMONewTest-sub013/engine/netutil"
)

func roundTrip(t *testing.T, in Msg, out Msg) {
	p := netutil.NewPacket()
	defer p.Release()

	in.AppendToPacket(p)
	out.ReadFromPacket(p)

	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %#v\nout: %#v", in, out)
	}
	if p.HasUnreadPayload() {
		t.Errorf("%T: decoder left %d unread bytes", in, len(p.UnreadPayload()))
	}
}

func testItems() []common.CharacterItem {
	return []common.CharacterItem{
		{ID: "item-1", DataID: 42, Level: 3, Amount: 10, Durability: 0.75,
			Exp: 120, LockRemains: 5.5, ExpireTime: 1700000000, RandomSeed: -7,
			Sockets: []int32{1, 0, 9}},
		{ID: "item-2", DataID: 1, Amount: 1},
	}
}

func TestRoundTripDirectoryMessages(t *testing.T) {
	roundTrip(t, &SetGameIDMsg{GameID: 3, ListenAddr: "10.0.0.5:16001"}, &SetGameIDMsg{})
	roundTrip(t, &RegisterSessionMsg{ConnectionID: 17, UserID: "user-42", AccessToken: "tok"}, &RegisterSessionMsg{})
	roundTrip(t, &RegisterSessionAckMsg{ConnectionID: 17, UserID: "user-42", Status: STATUS_DUPLICATE_SESSION}, &RegisterSessionAckMsg{})
	roundTrip(t, &UnregisterSessionMsg{ConnectionID: 17}, &UnregisterSessionMsg{})
	roundTrip(t, &RequestFindOnlineUserMsg{ConnectionID: 1, UserID: "user-42"}, &RequestFindOnlineUserMsg{})
	roundTrip(t, &ResponseFindOnlineUserMsg{ConnectionID: 1, UserID: "user-42", Status: STATUS_OK,
		OK: &FindOnlineUserOK{GameID: 2}}, &ResponseFindOnlineUserMsg{})
	roundTrip(t, &RequestForceDespawnCharacterMsg{ConnectionID: 9, UserID: "user-9"}, &RequestForceDespawnCharacterMsg{})
	roundTrip(t, &ResponseForceDespawnCharacterMsg{ConnectionID: 9, UserID: "user-9", Status: STATUS_OK}, &ResponseForceDespawnCharacterMsg{})
	roundTrip(t, &NotifyDespawnCharacterMsg{UserID: "user-9"}, &NotifyDespawnCharacterMsg{})
	roundTrip(t, &UpdateServerInfoMsg{ChannelID: "ch1", ChannelTitle: "Channel 1", ChannelDescription: "first", CPUPercent: 12.5}, &UpdateServerInfoMsg{})
	roundTrip(t, &SetGameIDAckMsg{GameID: 3}, &SetGameIDAckMsg{})
	roundTrip(t, &HeartbeatMsg{}, &HeartbeatMsg{})
}

func TestRoundTripClientMessages(t *testing.T) {
	roundTrip(t, &RequestAuthMsg{UserID: "user-1", AccessToken: "tok-1"}, &RequestAuthMsg{})
	roundTrip(t, &ResponseAuthMsg{Status: STATUS_AUTH_FAILED}, &ResponseAuthMsg{})
	roundTrip(t, &RequestOpenStorageMsg{StorageType: common.StorageTypeGuild, OwnerID: "guild-1"}, &RequestOpenStorageMsg{})
	roundTrip(t, &ResponseOpenStorageMsg{Status: STATUS_OK, OK: &OpenStorageOK{
		StorageID: common.StorageID{Type: common.StorageTypeGuild, OwnerID: "guild-1"},
		Items:     testItems()}}, &ResponseOpenStorageMsg{})
	roundTrip(t, &RequestCloseStorageMsg{StorageID: common.StorageID{Type: common.StorageTypePlayer, OwnerID: "p1"}}, &RequestCloseStorageMsg{})
	roundTrip(t, &UpdateStorageItemsMsg{StorageType: common.StorageTypeGuild, StorageOwnerID: "guild-1",
		Items: testItems(), DeleteReservation: true}, &UpdateStorageItemsMsg{})
	roundTrip(t, &SubmitChatMessageMsg{Text: "hello"}, &SubmitChatMessageMsg{})
	roundTrip(t, &NotifyChatMessageMsg{SenderID: "user-1", SenderName: "Alice", Text: "hello"}, &NotifyChatMessageMsg{})
	roundTrip(t, &RejectChatMessageMsg{Status: STATUS_MUTED}, &RejectChatMessageMsg{})
	roundTrip(t, &ResponseMailNotificationMsg{Status: STATUS_OK, OK: &MailNotificationOK{NotificationCount: 3}}, &ResponseMailNotificationMsg{})
	roundTrip(t, &RequestReadMailMsg{MailID: "mail-1"}, &RequestReadMailMsg{})
	roundTrip(t, &ResponseReadMailMsg{Status: STATUS_OK, OK: &ReadMailOK{Mail: common.Mail{
		ID: "mail-1", SenderID: "user-2", SenderName: "Bob", ReceiverID: "user-1",
		Title: "hi", Content: "content", Gold: 50, Items: testItems(),
		IsRead: true, ReadAt: 1700000100, SentAt: 1700000000}}}, &ResponseReadMailMsg{})
	roundTrip(t, &ResponseGachaInfoMsg{Status: STATUS_OK, OK: &GachaInfoOK{Cash: 999, GachaIDs: []int32{1, 2, 3}}}, &ResponseGachaInfoMsg{})
	roundTrip(t, &RequestOpenGachaMsg{DataID: 7}, &RequestOpenGachaMsg{})
	roundTrip(t, &ResponseOpenGachaMsg{Status: STATUS_OK, OK: &OpenGachaOK{DataID: 7, RewardItems: testItems()}}, &ResponseOpenGachaMsg{})
	roundTrip(t, &ResponseAvailableFramesMsg{Status: STATUS_OK, FrameIDs: []int32{10, 20}}, &ResponseAvailableFramesMsg{})
	roundTrip(t, &ResponseAvailableIconsMsg{Status: STATUS_NOT_FOUND}, &ResponseAvailableIconsMsg{})
	roundTrip(t, &RequestPlayerCharacterTransformMsg{UserID: "user-5"}, &RequestPlayerCharacterTransformMsg{})
	roundTrip(t, &ResponsePlayerCharacterTransformMsg{Status: STATUS_OK,
		Position: mgl32.Vec3{1, 2, 3}, Rotation: mgl32.Vec3{0, 90, 0}}, &ResponsePlayerCharacterTransformMsg{})
	roundTrip(t, &UpdateMapInfoMsg{MapName: "forest-1", ClassName: "ForestShard"}, &UpdateMapInfoMsg{})
	roundTrip(t, &UpdateTimeOfDayMsg{TimeOfDay: 13.5}, &UpdateTimeOfDayMsg{})
	roundTrip(t, &UpdateCharacterTransformMsg{Position: mgl32.Vec3{-1.5, 0, 8},
		Rotation: mgl32.Vec3{0, 180, 0}}, &UpdateCharacterTransformMsg{})
	roundTrip(t, &UpdatePlayerCharacterTransformMsg{UserID: "user-5",
		Position: mgl32.Vec3{4, 5, 6}, Rotation: mgl32.Vec3{0, 45, 0}}, &UpdatePlayerCharacterTransformMsg{})
}

func TestRoundTripDatabaseMessages(t *testing.T) {
	sid := common.StorageID{Type: common.StorageTypeGuild, OwnerID: "guild-1"}
	roundTrip(t, &RequestReserveStorageMsg{ConnectionID: 4, StorageID: sid, Holder: "shard1/4", TTLSeconds: 30}, &RequestReserveStorageMsg{})
	roundTrip(t, &ResponseReserveStorageMsg{ConnectionID: 4, StorageID: sid, Status: STATUS_OK,
		OK: &ReserveStorageOK{Items: testItems()}}, &ResponseReserveStorageMsg{})
	roundTrip(t, &ResponseReserveStorageMsg{ConnectionID: 4, StorageID: sid,
		Status: STATUS_ALREADY_RESERVED, CurrentHolder: "shard2/9"}, &ResponseReserveStorageMsg{})
	roundTrip(t, &RequestRenewStorageMsg{ConnectionID: 4, StorageID: sid, Holder: "shard1/4", TTLSeconds: 30}, &RequestRenewStorageMsg{})
	roundTrip(t, &ResponseRenewStorageMsg{ConnectionID: 4, StorageID: sid, Status: STATUS_NOT_HOLDER}, &ResponseRenewStorageMsg{})
	roundTrip(t, &RequestReleaseStorageMsg{StorageID: sid, Holder: "shard1/4"}, &RequestReleaseStorageMsg{})
	roundTrip(t, &RequestCommitStorageItemsMsg{ConnectionID: 4, StorageID: sid, Holder: "shard1/4",
		Items: testItems(), DeleteReservation: true}, &RequestCommitStorageItemsMsg{})
	roundTrip(t, &ResponseCommitStorageItemsMsg{ConnectionID: 4, StorageID: sid, Status: STATUS_OK}, &ResponseCommitStorageItemsMsg{})
	roundTrip(t, &ReleaseStoragesOfHolderMsg{Holder: "shard1/4"}, &ReleaseStoragesOfHolderMsg{})
}

func TestRoundTripEmptyValues(t *testing.T) {
	roundTrip(t, &SubmitChatMessageMsg{}, &SubmitChatMessageMsg{})
	roundTrip(t, &UpdateStorageItemsMsg{StorageType: common.StorageTypePlayer}, &UpdateStorageItemsMsg{})
	roundTrip(t, &ResponseOpenStorageMsg{Status: STATUS_OK, OK: &OpenStorageOK{
		StorageID: common.StorageID{Type: common.StorageTypePlayer, OwnerID: "p1"}}}, &ResponseOpenStorageMsg{})
	roundTrip(t, &ResponseGachaInfoMsg{Status: STATUS_OK, OK: &GachaInfoOK{}}, &ResponseGachaInfoMsg{})
}

// Non-OK responses must omit their conditional fields entirely, and the
// decoder must consume exactly what was written so the next message on the
// same stream is still readable.
func TestConditionalFieldLaw(t *testing.T) {
	p := netutil.NewPacket()
	defer p.Release()

	failed := &ResponseOpenStorageMsg{Status: STATUS_ALREADY_RESERVED}
	failed.AppendToPacket(p)
	next := &UpdateTimeOfDayMsg{TimeOfDay: 6.25}
	next.AppendToPacket(p)

	var decoded ResponseOpenStorageMsg
	decoded.ReadFromPacket(p)
	assert.Equal(t, STATUS_ALREADY_RESERVED, decoded.Status)
	if decoded.OK != nil {
		t.Errorf("non-OK response must decode a nil OK payload")
	}

	var nextDecoded UpdateTimeOfDayMsg
	nextDecoded.ReadFromPacket(p)
	assert.Equal(t, float32(6.25), nextDecoded.TimeOfDay)
	assert.T(t, !p.HasUnreadPayload(), "stream desynchronized")
}

func TestConditionalFieldLawAllGatedResponses(t *testing.T) {
	gated := []Msg{
		&ResponseFindOnlineUserMsg{UserID: "u", Status: STATUS_USER_NOT_FOUND},
		&ResponseOpenStorageMsg{Status: STATUS_INVALID_STORAGE_TYPE},
		&ResponseMailNotificationMsg{Status: STATUS_UNKNOWN_ERROR},
		&ResponseReadMailMsg{Status: STATUS_NOT_FOUND},
		&ResponseGachaInfoMsg{Status: STATUS_UNKNOWN_ERROR},
		&ResponseOpenGachaMsg{Status: STATUS_NOT_FOUND},
		&ResponseReserveStorageMsg{StorageID: common.StorageID{Type: common.StorageTypeGuild, OwnerID: "g"},
			Status: STATUS_ALREADY_RESERVED, CurrentHolder: "other"},
	}

	for _, msg := range gated {
		out := reflect.New(reflect.TypeOf(msg).Elem()).Interface().(Msg)
		roundTrip(t, msg, out)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OK", STATUS_OK.String())
	assert.Equal(t, "AlreadyReserved", STATUS_ALREADY_RESERVED.String())
	assert.T(t, STATUS_OK.IsOK(), "OK should be OK")
	assert.T(t, !STATUS_NOT_HOLDER.IsOK(), "NotHolder should not be OK")
}
