package netutil

import (
	"bytes"

	"github.com/vmihailenco/msgpack"
)

// MessagePackMsgPacker packs and unpacks msgpack format
type MessagePackMsgPacker struct{}

// PackMsg packs msg in msgpack format, appending to buf
func (mp MessagePackMsgPacker) PackMsg(msg interface{}, buf []byte) ([]byte, error) {
	buffer := bytes.NewBuffer(buf)
	if err := msgpack.NewEncoder(buffer).Encode(msg); err != nil {
		return buf, err
	}
	return buffer.Bytes(), nil
}

// UnpackMsg unpacks bytes of msgpack format into msg
func (mp MessagePackMsgPacker) UnpackMsg(data []byte, msg interface{}) error {
	return msgpack.Unmarshal(data, msg)
}
