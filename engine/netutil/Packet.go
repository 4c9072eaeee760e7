package netutil

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
)

const (
	_MIN_PAYLOAD_CAP = 128
	_CAP_GROW_SHIFT  = uint(2)
)

var (
	packetEndian               = binary.LittleEndian
	predefinePayloadCapacities []uint32

	packetBufferPools = map[uint32]*sync.Pool{}
	packetPool        = sync.Pool{
		New: func() interface{} {
			p := &Packet{}
			p.bytes = p.initialBytes[:]
			return p
		},
	}
)

func init() {
	payloadCap := uint32(_MIN_PAYLOAD_CAP) << _CAP_GROW_SHIFT
	for payloadCap < _MAX_PAYLOAD_LENGTH {
		predefinePayloadCapacities = append(predefinePayloadCapacities, payloadCap)
		payloadCap <<= _CAP_GROW_SHIFT
	}
	predefinePayloadCapacities = append(predefinePayloadCapacities, _MAX_PAYLOAD_LENGTH)

	for _, payloadCap := range predefinePayloadCapacities {
		payloadCap := payloadCap
		packetBufferPools[payloadCap] = &sync.Pool{
			New: func() interface{} {
				return make([]byte, _PREPAYLOAD_SIZE+payloadCap)
			},
		}
	}
}

func getPayloadCapOfPayloadLen(payloadLen uint32) uint32 {
	for _, payloadCap := range predefinePayloadCapacities {
		if payloadCap >= payloadLen {
			return payloadCap
		}
	}
	return _MAX_PAYLOAD_LENGTH
}

// Packet is a packet for sending data
type Packet struct {
	readCursor uint32

	refcount     int64
	bytes        []byte
	initialBytes [_PREPAYLOAD_SIZE + _MIN_PAYLOAD_CAP]byte
}

func allocPacket() *Packet {
	pkt := packetPool.Get().(*Packet)
	pkt.refcount = 1

	if pkt.GetPayloadLen() != 0 {
		mnlog.Panicf("allocPacket: payload should be 0, but is %d", pkt.GetPayloadLen())
	}

	return pkt
}

// NewPacket allocates a new packet
func NewPacket() *Packet {
	return allocPacket()
}

// AssureCapacity makes sure the packet can hold need more payload bytes
func (p *Packet) AssureCapacity(need uint32) {
	requireCap := p.GetPayloadLen() + need
	oldCap := p.PayloadCap()

	if requireCap <= oldCap { // most case
		return
	}

	resizeToCap := getPayloadCapOfPayloadLen(requireCap)

	buffer := packetBufferPools[resizeToCap].Get().([]byte)
	if len(buffer) != int(resizeToCap+_SIZE_FIELD_SIZE) {
		mnlog.Panicf("buffer size should be %d, but is %d", resizeToCap, len(buffer))
	}
	copy(buffer, p.data())
	oldBytes := p.bytes
	p.bytes = buffer

	if oldCap > _MIN_PAYLOAD_CAP {
		// release old bytes
		packetBufferPools[oldCap].Put(oldBytes)
	}
}

// AddRefCount adds reference count of packet
func (p *Packet) AddRefCount(add int64) {
	atomic.AddInt64(&p.refcount, add)
}

// Payload returns the total payload of packet
func (p *Packet) Payload() []byte {
	return p.bytes[_PREPAYLOAD_SIZE : _PREPAYLOAD_SIZE+p.GetPayloadLen()]
}

// UnwrittenPayload returns the unwritten payload, which is the left payload capacity
func (p *Packet) UnwrittenPayload() []byte {
	payloadLen := p.GetPayloadLen()
	return p.bytes[_PREPAYLOAD_SIZE+payloadLen:]
}

// UnreadPayload returns the unread payload
func (p *Packet) UnreadPayload() []byte {
	pos := p.readCursor + _PREPAYLOAD_SIZE
	payloadEnd := _PREPAYLOAD_SIZE + p.GetPayloadLen()
	return p.bytes[pos:payloadEnd]
}

// HasUnreadPayload returns if all payload is read
func (p *Packet) HasUnreadPayload() bool {
	return p.readCursor < p.GetPayloadLen()
}

func (p *Packet) data() []byte {
	return p.bytes[0 : _PREPAYLOAD_SIZE+p.GetPayloadLen()]
}

// PayloadCap returns the current payload capacity
func (p *Packet) PayloadCap() uint32 {
	return uint32(len(p.bytes) - _PREPAYLOAD_SIZE)
}

// Release releases the packet to packet pool
func (p *Packet) Release() {
	refcount := atomic.AddInt64(&p.refcount, -1)

	if refcount == 0 {
		payloadCap := p.PayloadCap()
		if payloadCap > _MIN_PAYLOAD_CAP {
			buffer := p.bytes
			p.bytes = p.initialBytes[:]
			packetBufferPools[payloadCap].Put(buffer) // reclaim the buffer
		}

		p.readCursor = 0
		p.SetPayloadLen(0)
		packetPool.Put(p)
	} else if refcount < 0 {
		mnlog.Panicf("releasing packet with refcount=%d", p.refcount)
	}
}

// ClearPayload clears packet payload
func (p *Packet) ClearPayload() {
	p.readCursor = 0
	p.SetPayloadLen(0)
}

// GetPayloadLen returns the payload length
func (p *Packet) GetPayloadLen() uint32 {
	return packetEndian.Uint32(p.bytes[0:_SIZE_FIELD_SIZE])
}

// SetPayloadLen sets the payload length
func (p *Packet) SetPayloadLen(plen uint32) {
	packetEndian.PutUint32(p.bytes[0:_SIZE_FIELD_SIZE], plen)
}

func (p *Packet) addPayloadLen(add uint32) {
	p.SetPayloadLen(p.GetPayloadLen() + add)
}

// assureUnread panics if the unread payload is shorter than size; reading
// beyond what the encoder wrote desynchronizes the stream and must kill the
// connection
func (p *Packet) assureUnread(size uint32) {
	if p.readCursor+size > p.GetPayloadLen() {
		mnlog.Panicf("packet %p: reading %d bytes at %d, but payload is %d", p, size, p.readCursor, p.GetPayloadLen())
	}
}

// grow extends the payload by n bytes and returns the slice to write them to
func (p *Packet) grow(n uint32) []byte {
	p.AssureCapacity(n)
	end := _PREPAYLOAD_SIZE + p.GetPayloadLen()
	p.addPayloadLen(n)
	return p.bytes[end : end+n]
}

// next consumes n unread bytes and returns them without copying
func (p *Packet) next(n uint32) []byte {
	p.assureUnread(n)
	pos := p.readCursor + _PREPAYLOAD_SIZE
	p.readCursor += n
	return p.bytes[pos : pos+n]
}

// AppendByte appends one byte to the end of payload
func (p *Packet) AppendByte(b byte) {
	p.grow(1)[0] = b
}

// ReadOneByte reads one byte from the beginning of unread payload
func (p *Packet) ReadOneByte() byte {
	return p.next(1)[0]
}

// AppendBool appends one byte 1/0 to the end of payload
func (p *Packet) AppendBool(b bool) {
	if b {
		p.AppendByte(1)
	} else {
		p.AppendByte(0)
	}
}

// ReadBool reads one byte 1/0 from the beginning of unread payload
func (p *Packet) ReadBool() (v bool) {
	return p.ReadOneByte() != 0
}

// AppendUint16 appends one uint16 to the end of payload
func (p *Packet) AppendUint16(v uint16) {
	packetEndian.PutUint16(p.grow(2), v)
}

// ReadUint16 reads one uint16 from the beginning of unread payload
func (p *Packet) ReadUint16() uint16 {
	return packetEndian.Uint16(p.next(2))
}

// AppendUint32 appends one uint32 to the end of payload
func (p *Packet) AppendUint32(v uint32) {
	packetEndian.PutUint32(p.grow(4), v)
}

// ReadUint32 reads one uint32 from the beginning of unread payload
func (p *Packet) ReadUint32() uint32 {
	return packetEndian.Uint32(p.next(4))
}

// AppendUint64 appends one uint64 to the end of payload
func (p *Packet) AppendUint64(v uint64) {
	packetEndian.PutUint64(p.grow(8), v)
}

// ReadUint64 reads one uint64 from the beginning of unread payload
func (p *Packet) ReadUint64() uint64 {
	return packetEndian.Uint64(p.next(8))
}

// AppendFloat32 appends one float32 to the end of payload
func (p *Packet) AppendFloat32(f float32) {
	p.AppendUint32(math.Float32bits(f))
}

// ReadFloat32 reads one float32 from the beginning of unread payload
func (p *Packet) ReadFloat32() float32 {
	return math.Float32frombits(p.ReadUint32())
}

// AppendFloat64 appends one float64 to the end of payload
func (p *Packet) AppendFloat64(f float64) {
	p.AppendUint64(math.Float64bits(f))
}

// ReadFloat64 reads one float64 from the beginning of unread payload
func (p *Packet) ReadFloat64() float64 {
	return math.Float64frombits(p.ReadUint64())
}

// AppendVector3 appends one 3-component vector to the end of payload
func (p *Packet) AppendVector3(v mgl32.Vec3) {
	p.AppendFloat32(v.X())
	p.AppendFloat32(v.Y())
	p.AppendFloat32(v.Z())
}

// ReadVector3 reads one 3-component vector from the beginning of unread payload
func (p *Packet) ReadVector3() mgl32.Vec3 {
	x := p.ReadFloat32()
	y := p.ReadFloat32()
	z := p.ReadFloat32()
	return mgl32.Vec3{x, y, z}
}

// AppendBytes appends slice of bytes to the end of payload
func (p *Packet) AppendBytes(v []byte) {
	copy(p.grow(uint32(len(v))), v)
}

// ReadBytes reads bytes from the beginning of unread payload; the returned
// slice aliases the packet buffer and is only valid until Release
func (p *Packet) ReadBytes(size uint32) []byte {
	return p.next(size)
}

// AppendPackedUint64 appends one uint64 in compact varint form to the end of
// payload; small values cost fewer bytes on the wire
func (p *Packet) AppendPackedUint64(v uint64) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], v)
	p.AppendBytes(b[:n])
}

// ReadPackedUint64 reads one compact varint uint64 from the beginning of
// unread payload
func (p *Packet) ReadPackedUint64() uint64 {
	v, n := binary.Uvarint(p.UnreadPayload())
	if n <= 0 {
		mnlog.Panicf("packet %p: malformed packed uint", p)
	}
	p.readCursor += uint32(n)
	return v
}

// AppendPackedUint32 appends one uint32 in compact varint form
func (p *Packet) AppendPackedUint32(v uint32) {
	p.AppendPackedUint64(uint64(v))
}

// ReadPackedUint32 reads one compact varint uint32
func (p *Packet) ReadPackedUint32() uint32 {
	v := p.ReadPackedUint64()
	if v > math.MaxUint32 {
		mnlog.Panicf("packet %p: packed uint32 overflow: %d", p, v)
	}
	return uint32(v)
}

// AppendPackedInt64 appends one int64 in compact zigzag varint form
func (p *Packet) AppendPackedInt64(v int64) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutVarint(b[:], v)
	p.AppendBytes(b[:n])
}

// ReadPackedInt64 reads one compact zigzag varint int64
func (p *Packet) ReadPackedInt64() int64 {
	v, n := binary.Varint(p.UnreadPayload())
	if n <= 0 {
		mnlog.Panicf("packet %p: malformed packed int", p)
	}
	p.readCursor += uint32(n)
	return v
}

// AppendPackedInt32 appends one int32 in compact zigzag varint form
func (p *Packet) AppendPackedInt32(v int32) {
	p.AppendPackedInt64(int64(v))
}

// ReadPackedInt32 reads one compact zigzag varint int32
func (p *Packet) ReadPackedInt32() int32 {
	v := p.ReadPackedInt64()
	if v > math.MaxInt32 || v < math.MinInt32 {
		mnlog.Panicf("packet %p: packed int32 overflow: %d", p, v)
	}
	return int32(v)
}

// AppendVarStr appends a packed-length string to the end of payload
func (p *Packet) AppendVarStr(s string) {
	p.AppendVarBytes([]byte(s))
}

// ReadVarStr reads a packed-length string from the beginning of unread payload
func (p *Packet) ReadVarStr() string {
	b := p.ReadVarBytes()
	return string(b)
}

// AppendVarBytes appends packed-length bytes to the end of payload
func (p *Packet) AppendVarBytes(v []byte) {
	p.AppendPackedUint32(uint32(len(v)))
	p.AppendBytes(v)
}

// ReadVarBytes reads packed-length bytes from the beginning of unread payload
func (p *Packet) ReadVarBytes() []byte {
	blen := p.ReadPackedUint32()
	return p.ReadBytes(blen)
}

// AppendStringList appends a packed-count list of strings to the end of payload
func (p *Packet) AppendStringList(list []string) {
	p.AppendPackedUint32(uint32(len(list)))
	for _, s := range list {
		p.AppendVarStr(s)
	}
}

// ReadStringList reads a packed-count list of strings from the beginning of
// unread payload
func (p *Packet) ReadStringList() []string {
	listlen := int(p.ReadPackedUint32())
	if listlen == 0 {
		return nil
	}
	list := make([]string, listlen)
	for i := 0; i < listlen; i++ {
		list[i] = p.ReadVarStr()
	}
	return list
}

// AppendInt32List appends a packed-count list of packed int32 to the end of payload
func (p *Packet) AppendInt32List(list []int32) {
	p.AppendPackedUint32(uint32(len(list)))
	for _, v := range list {
		p.AppendPackedInt32(v)
	}
}

// ReadInt32List reads a packed-count list of packed int32
func (p *Packet) ReadInt32List() []int32 {
	listlen := int(p.ReadPackedUint32())
	if listlen == 0 {
		return nil
	}
	list := make([]int32, listlen)
	for i := 0; i < listlen; i++ {
		list[i] = p.ReadPackedInt32()
	}
	return list
}

// AppendData appends one data of any type to the end of payload
func (p *Packet) AppendData(msg interface{}) {
	dataBytes, err := MSG_PACKER.PackMsg(msg, nil)
	if err != nil {
		mnlog.Panic(err)
	}

	p.AppendVarBytes(dataBytes)
}

// ReadData reads one data of any type from the beginning of unread payload
func (p *Packet) ReadData(msg interface{}) {
	b := p.ReadVarBytes()
	err := MSG_PACKER.UnpackMsg(b, msg)
	if err != nil {
		mnlog.Panic(err)
	}
}
