package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Runtime profiles by host size.
const (
	SmallServerGOGC     = 200
	SmallServerMemLimit = 1.5 * 1024 * 1024 * 1024

	MediumServerGOGC     = 400
	MediumServerMemLimit = 4 * 1024 * 1024 * 1024

	LargeServerGOGC     = 800
	LargeServerMemLimit = 8 * 1024 * 1024 * 1024
)

func detectServerProfile() (gogc int, memLimit int64) {
	switch cpus := runtime.NumCPU(); {
	case cpus <= 2:
		return SmallServerGOGC, int64(SmallServerMemLimit)
	case cpus <= 8:
		return MediumServerGOGC, int64(MediumServerMemLimit)
	default:
		return LargeServerGOGC, int64(LargeServerMemLimit)
	}
}

// InitRuntime raises GOGC so the uint256 scratch pools survive between
// requests, with GOMEMLIMIT as the ceiling. Explicit GOGC or GOMEMLIMIT
// environment variables win.
func InitRuntime() {
	gogc, memLimit := detectServerProfile()

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(gogc)
		log.Info().Int("GOGC", gogc).Msg("[runtime] set GOGC")
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(memLimit)
		log.Info().
			Float64("GOMEMLIMIT_GB", float64(memLimit)/1024/1024/1024).
			Msg("[runtime] set memory limit")
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_alloc_mb", ms.HeapAlloc/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] current settings")
}
