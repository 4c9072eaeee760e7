package netutil

import "encoding/json"

// JSONMsgPacker packs and unpacks JSON format
type JSONMsgPacker struct{}

// PackMsg packs msg to bytes of JSON format
func (jp JSONMsgPacker) PackMsg(msg interface{}, buf []byte) ([]byte, error) {
	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		return buf, err
	}

	buf = append(buf, jsonBytes...)
	return buf, nil
}

// UnpackMsg unpacks bytes of JSON format to msg
func (jp JSONMsgPacker) UnpackMsg(data []byte, msg interface{}) error {
	err := json.Unmarshal(data, msg)
	return err
}
