package uuid

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"sync/atomic"
	"time"
)

// ids are 12 bytes before encoding: 4 bytes of unix time, 5 random bytes
// fixed per process, 3 bytes of counter
var (
	encoding   = base64.RawURLEncoding
	procPrefix = newProcPrefix()
	counter    uint32
)

func newProcPrefix() [5]byte {
	var p [5]byte
	if _, err := rand.Read(p[:]); err != nil {
		panic(err)
	}
	return p
}

// GenUUID generates a new unique ID, usable as session access tokens and
// record keys.
func GenUUID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(time.Now().Unix()))
	copy(b[4:9], procPrefix[:])
	n := atomic.AddUint32(&counter, 1)
	b[9] = byte(n >> 16)
	b[10] = byte(n >> 8)
	b[11] = byte(n)
	return encoding.EncodeToString(b[:])
}
