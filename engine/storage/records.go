package storage

import (
	"github.com/xiaonanln/typeconv"
	"github.com/xnitro1/MMONewTest-sub013/engine/common"
)

// Record codecs between typed game structures and the generic maps stored
// by the backends. Backends return numbers in whatever width their codec
// produces (float64 from JSON, int64 from msgpack), so decoding goes
// through typeconv and a float normalizer.

func toFloat64(v interface{}) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case float32:
		return float64(f)
	case nil:
		return 0
	default:
		return float64(typeconv.Int(v))
	}
}

func toInt(v interface{}) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64: // JSON numbers
		return int64(n)
	default:
		return typeconv.Int(v)
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return ""
}

func toRecordMap(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		return m
	case map[interface{}]interface{}:
		return typeconv.MapStringAnything(m)
	default:
		return nil
	}
}

func toBool(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

func toInt32List(v interface{}) []int32 {
	list, ok := v.([]interface{})
	if !ok || len(list) == 0 {
		return nil
	}
	res := make([]int32, len(list))
	for i, lv := range list {
		res[i] = int32(toInt(lv))
	}
	return res
}

func int32ListToRecord(list []int32) []interface{} {
	res := make([]interface{}, len(list))
	for i, v := range list {
		res[i] = int64(v)
	}
	return res
}

// ItemToRecord converts one item to its stored map form
func ItemToRecord(item common.CharacterItem) map[string]interface{} {
	return map[string]interface{}{
		"id":           item.ID,
		"data_id":      int64(item.DataID),
		"level":        int64(item.Level),
		"amount":       int64(item.Amount),
		"durability":   float64(item.Durability),
		"exp":          int64(item.Exp),
		"lock_remains": float64(item.LockRemains),
		"expire_time":  item.ExpireTime,
		"random_seed":  int64(item.RandomSeed),
		"sockets":      int32ListToRecord(item.Sockets),
	}
}

// RecordToItem converts a stored map back to an item
func RecordToItem(v interface{}) (item common.CharacterItem) {
	m := toRecordMap(v)
	if m == nil {
		return
	}
	item.ID = toString(m["id"])
	item.DataID = int32(toInt(m["data_id"]))
	item.Level = int32(toInt(m["level"]))
	item.Amount = int32(toInt(m["amount"]))
	item.Durability = float32(toFloat64(m["durability"]))
	item.Exp = int32(toInt(m["exp"]))
	item.LockRemains = float32(toFloat64(m["lock_remains"]))
	item.ExpireTime = toInt(m["expire_time"])
	item.RandomSeed = int32(toInt(m["random_seed"]))
	item.Sockets = toInt32List(m["sockets"])
	return
}

// ItemsToRecord converts an item list to its stored form
func ItemsToRecord(items []common.CharacterItem) []interface{} {
	res := make([]interface{}, len(items))
	for i, item := range items {
		res[i] = ItemToRecord(item)
	}
	return res
}

// RecordToItems converts a stored item list back; nil data decodes as an
// empty container
func RecordToItems(data interface{}) []common.CharacterItem {
	list, ok := data.([]interface{})
	if !ok || len(list) == 0 {
		return nil
	}
	items := make([]common.CharacterItem, len(list))
	for i, lv := range list {
		items[i] = RecordToItem(lv)
	}
	return items
}

// MailToRecord converts one mail to its stored map form
func MailToRecord(mail common.Mail) map[string]interface{} {
	return map[string]interface{}{
		"id":          mail.ID,
		"sender_id":   string(mail.SenderID),
		"sender_name": mail.SenderName,
		"receiver_id": string(mail.ReceiverID),
		"title":       mail.Title,
		"content":     mail.Content,
		"gold":        int64(mail.Gold),
		"items":       ItemsToRecord(mail.Items),
		"is_read":     mail.IsRead,
		"read_at":     mail.ReadAt,
		"sent_at":     mail.SentAt,
	}
}

// RecordToMail converts a stored map back to a mail
func RecordToMail(v interface{}) (mail common.Mail) {
	m := toRecordMap(v)
	if m == nil {
		return
	}
	mail.ID = toString(m["id"])
	mail.SenderID = common.UserID(toString(m["sender_id"]))
	mail.SenderName = toString(m["sender_name"])
	mail.ReceiverID = common.UserID(toString(m["receiver_id"]))
	mail.Title = toString(m["title"])
	mail.Content = toString(m["content"])
	mail.Gold = int32(toInt(m["gold"]))
	mail.Items = RecordToItems(m["items"])
	mail.IsRead = toBool(m["is_read"])
	mail.ReadAt = toInt(m["read_at"])
	mail.SentAt = toInt(m["sent_at"])
	return
}

// MailsToRecord converts a mailbox to its stored form
func MailsToRecord(mails []common.Mail) []interface{} {
	res := make([]interface{}, len(mails))
	for i, mail := range mails {
		res[i] = MailToRecord(mail)
	}
	return res
}

// RecordToMails converts a stored mailbox back
func RecordToMails(data interface{}) []common.Mail {
	list, ok := data.([]interface{})
	if !ok || len(list) == 0 {
		return nil
	}
	mails := make([]common.Mail, len(list))
	for i, lv := range list {
		mails[i] = RecordToMail(lv)
	}
	return mails
}

// GachaInfo is the stored gacha record of one user
type GachaInfo struct {
	Cash     int32
	GachaIDs []int32
}

// GachaInfoToRecord converts a gacha record to its stored form
func GachaInfoToRecord(info GachaInfo) map[string]interface{} {
	return map[string]interface{}{
		"cash":      int64(info.Cash),
		"gacha_ids": int32ListToRecord(info.GachaIDs),
	}
}

// RecordToGachaInfo converts a stored gacha record back
func RecordToGachaInfo(data interface{}) (info GachaInfo, ok bool) {
	m := toRecordMap(data)
	if m == nil {
		return
	}
	info.Cash = int32(toInt(m["cash"]))
	info.GachaIDs = toInt32List(m["gacha_ids"])
	return info, true
}

// CharacterAppearance is the stored frame/icon record of one user
type CharacterAppearance struct {
	FrameIDs []int32
	IconIDs  []int32
}

// AppearanceToRecord converts an appearance record to its stored form
func AppearanceToRecord(app CharacterAppearance) map[string]interface{} {
	return map[string]interface{}{
		"frame_ids": int32ListToRecord(app.FrameIDs),
		"icon_ids":  int32ListToRecord(app.IconIDs),
	}
}

// RecordToAppearance converts a stored appearance record back
func RecordToAppearance(data interface{}) (app CharacterAppearance, ok bool) {
	m := toRecordMap(data)
	if m == nil {
		return
	}
	app.FrameIDs = toInt32List(m["frame_ids"])
	app.IconIDs = toInt32List(m["icon_ids"])
	return app, true
}
