package post

import (
	"sync"

	"github.com/xnitro1/MMONewTest-sub013/engine/mnutils"
)

// PostCallback is the type of functions to be posted
type PostCallback func()

var (
	lock    sync.Mutex
	pending []PostCallback
)

// Post queues a callback to run in the service main routine. Safe to call
// from any goroutine.
func Post(f PostCallback) {
	lock.Lock()
	pending = append(pending, f)
	lock.Unlock()
}

// Tick runs all posted callbacks, including ones posted while ticking.
// Called by the service main routine only.
func Tick() {
	for {
		lock.Lock()
		if len(pending) == 0 {
			lock.Unlock()
			return
		}
		batch := pending
		pending = make([]PostCallback, 0, len(batch))
		lock.Unlock()

		for _, f := range batch {
			mnutils.RunPanicless(f)
		}
	}
}
