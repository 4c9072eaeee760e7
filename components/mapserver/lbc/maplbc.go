package maplbc

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnlog"
	"github.com/xnitro1/MMONewTest-sub013/engine/mnutils"
)

// Initialize starts collecting the CPU usage of the map server process;
// report is called with each sample and must be goroutine-safe
func Initialize(ctx context.Context, collectInterval time.Duration, report func(cpuPercent float64)) {
	pid := os.Getpid()
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		mnlog.Fatalf("maplbc: can not find map server process: pid = %v", pid)
	}
	mnlog.Infof("maplbc: found map server process: %v", p)

	go mnutils.RepeatUntilPanicless(func() {
		for {
			time.Sleep(collectInterval)
			pcnt, err := p.CPUPercentWithContext(ctx)
			if err != nil {
				mnlog.Panicf("maplbc: get process cpu percent failed: %s", err)
			}

			mnlog.Debugf("maplbc: cpu percent is %.3f%%", pcnt)
			report(pcnt)
		}
	})
}
