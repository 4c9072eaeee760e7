package opmon

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
)

var (
	monitor = newMonitor()
)

type _OpInfo struct {
	count         uint64
	totalDuration time.Duration
	maxDuration   time.Duration
}

// Monitor accumulates operation durations by name
type Monitor struct {
	sync.Mutex
	opInfos map[string]*_OpInfo
}

func newMonitor() *Monitor {
	return &Monitor{
		opInfos: map[string]*_OpInfo{},
	}
}

func (monitor *Monitor) record(opname string, duration time.Duration) {
	monitor.Lock()
	info := monitor.opInfos[opname]
	if info == nil {
		info = &_OpInfo{}
		monitor.opInfos[opname] = info
	}
	info.count += 1
	info.totalDuration += duration
	if duration > info.maxDuration {
		info.maxDuration = duration
	}
	monitor.Unlock()
}

// Dump prints the accumulated operation stats to the log
func Dump() {
	monitor.Lock()
	opInfos := monitor.opInfos
	monitor.opInfos = map[string]*_OpInfo{} // clear the ops
	monitor.Unlock()

	opnames := make([]string, 0, len(opInfos))
	for opname := range opInfos {
		opnames = append(opnames, opname)
	}
	sort.Strings(opnames)

	for _, opname := range opnames {
		info := opInfos[opname]
		mnlog.Infof("%-30sx%-10d AVG %-10s MAX %-10s", opname, info.count,
			info.totalDuration/time.Duration(info.count), info.maxDuration)
	}
}

// StartDump starts dumping opmon stats with the interval
func StartDump(interval time.Duration) {
	go func() {
		for {
			time.Sleep(interval)
			Dump()
		}
	}()
}

// Operation is the operation to be monitored
type Operation struct {
	name      string
	startTime time.Time
}

// StartOperation creates a new operation and starts counting time
func StartOperation(operationName string) *Operation {
	return &Operation{
		name:      operationName,
		startTime: time.Now(),
	}
}

// Finish finishes the operation and records the duration; taking longer than
// warnThreshold logs a warning
func (op *Operation) Finish(warnThreshold time.Duration) {
	takeTime := time.Now().Sub(op.startTime)
	monitor.record(op.name, takeTime)
	if warnThreshold > 0 && takeTime >= warnThreshold {
		mnlog.Warnf("opmon: operation %s takes too long: %s", op.name, takeTime)
	}
}

func (op *Operation) String() string {
	return fmt.Sprintf("op<%s>", op.name)
}
