package netutil

// MsgPacker defines the interface for msg packer
type MsgPacker interface {
	PackMsg(msg interface{}, buf []byte) ([]byte, error)
	UnpackMsg(data []byte, msg interface{}) error
}

// MSG_PACKER is the msg packer for data exchanged in the coordination layer
var MSG_PACKER MsgPacker = MessagePackMsgPacker{}
