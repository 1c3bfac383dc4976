package store

import "time"

// SessionRecord is one completed (or aborted) playback session, persisted
// for later inspection via Store.Recent.
type SessionRecord struct {
	ID               uint      `gorm:"primaryKey"`
	StartedAt        time.Time `gorm:"index"`
	FinishedAt       time.Time
	ManifestURL      string
	Strategy         string
	SegmentsPlayed   int
	BytesDownloaded  int64
	ShiftUps         int
	ShiftDowns       int
	MinBitrate       int64
	MaxBitrate       int64
	FinalBitrate     int64
	PEPEnabled       bool
	ConcurrentFetch  bool
	Aborted          bool
	AbortReason      string
}
