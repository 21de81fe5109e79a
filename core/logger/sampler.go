package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratio packs keep/window into one word so Set and Allow never need a lock.
type ratioSampler struct {
	ratio atomic.Uint64
	seen  atomic.Uint64
}

func newRatioSampler(keep, window int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(keep, window)
	return s
}

// Set keeps `keep` events out of every `window`. Non-positive values disable sampling.
func (s *ratioSampler) Set(keep, window int) {
	if keep <= 0 || window <= 0 {
		s.ratio.Store(0)
	} else {
		keep = min(keep, window)
		s.ratio.Store(uint64(uint32(keep))<<32 | uint64(uint32(window)))
	}
	s.seen.Store(0)
}

func (s *ratioSampler) Allow() bool {
	r := s.ratio.Load()
	if r == 0 {
		return true
	}
	keep, window := r>>32, r&0xffffffff
	n := s.seen.Add(1) - 1
	return n%window < keep
}

// parseRatioSpec accepts "k/n" or a bare "n" meaning 1/n. Anything else disables sampling.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	numStr, denStr, hasSlash := strings.Cut(spec, "/")
	if !hasSlash {
		numStr, denStr = "1", spec
	}
	num, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		return 0, 0
	}
	den, err := strconv.Atoi(strings.TrimSpace(denStr))
	if err != nil || den <= 0 {
		return 0, 0
	}
	return num, den
}
