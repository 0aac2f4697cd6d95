package playback

import "time"

// Config tunes position persistence and resume behavior.
type Config struct {
	SaveInterval    time.Duration // periodic save while playing
	MinSaveTime     float64       // seconds; earlier positions are not worth resuming
	ExpireDays      int           // records older than this are purged
	ResumeThreshold float64       // seconds; saved time must exceed this to auto-resume
	NearEndSkip     float64       // within this many seconds of the end, saves are ignored
	NearEndClear    float64       // within this many seconds of the end, the record is cleared
	SeekDebounce    time.Duration // window for coalescing user seeks
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		SaveInterval:    10 * time.Second,
		MinSaveTime:     30,
		ExpireDays:      30,
		ResumeThreshold: 60,
		NearEndSkip:     30,
		NearEndClear:    60,
		SeekDebounce:    500 * time.Millisecond,
	}
}

func (c Config) expireAfter() time.Duration {
	return time.Duration(c.ExpireDays) * 24 * time.Hour
}
