package mnutils

import "github.com/xnitro1/MMONewTest-sub013/engine/mnlog"

// RunPanicless calls f, recovering and logging any panic. Returns whether
// f panicked.
func RunPanicless(f func()) (paniced bool) {
	defer func() {
		if err := recover(); err != nil {
			paniced = true
			mnlog.TraceError("%v panic: %s", f, err)
		}
	}()

	f()
	return
}

// RepeatUntilPanicless reruns f until it completes without panicking
func RepeatUntilPanicless(f func()) {
	for RunPanicless(f) {
	}
}
