// Package media manages scratch storage for downloaded voice audio.
// store.go implements Store: one isolated directory per pipeline run plus a
// cron-driven sweep that removes anything older than the TTL.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
	"github.com/roelfdiedericks/notionvox/internal/paths"
)

const (
	// DefaultTTL is how long a retained scratch directory survives.
	DefaultTTL = time.Hour

	// DefaultSweepSchedule runs the sweep every ten minutes.
	DefaultSweepSchedule = "@every 10m"

	// MaxAudioBytes is Telegram's bot download limit (20MB).
	MaxAudioBytes = 20 * 1024 * 1024

	voiceSubdir = "voice"
)

// Config configures the scratch store.
type Config struct {
	Dir           string `json:"dir"`           // default: ~/.notionvox/media (or $TMPDIR/notionvox/media)
	TTLSeconds    int    `json:"ttlSeconds"`    // default: 3600
	MaxSize       int64  `json:"maxSize"`       // default: 20MB
	SweepSchedule string `json:"sweepSchedule"` // cron spec, default "@every 10m"
}

// Store hands out per-run scratch directories.
type Store struct {
	baseDir  string
	ttl      time.Duration
	maxSize  int64
	schedule string

	mu   sync.Mutex
	cron *cron.Cron
}

// NewStore resolves the base directory and creates it.
func NewStore(cfg Config) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = paths.DefaultMediaDir()
	}
	dir, err := paths.ExpandTilde(dir)
	if err != nil {
		return nil, err
	}
	dir = filepath.Clean(dir)

	if err := os.MkdirAll(filepath.Join(dir, voiceSubdir), 0700); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	s := &Store{
		baseDir:  dir,
		ttl:      DefaultTTL,
		maxSize:  MaxAudioBytes,
		schedule: DefaultSweepSchedule,
	}
	if cfg.TTLSeconds > 0 {
		s.ttl = time.Duration(cfg.TTLSeconds) * time.Second
	}
	if cfg.MaxSize > 0 {
		s.maxSize = cfg.MaxSize
	}
	if cfg.SweepSchedule != "" {
		s.schedule = cfg.SweepSchedule
	}

	L_info("media: store initialized", "dir", dir, "ttl", s.ttl.String(), "maxSize", s.maxSize)
	return s, nil
}

// BaseDir returns the resolved base directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// MaxSize is the largest download accepted into a scratch file.
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// Start schedules the TTL sweep for long-running modes. Lambda has no
// background time between invocations and calls Sweep before each one instead.
func (s *Store) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(time.Now()); err != nil {
			L_warn("media: sweep error", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c

	L_debug("media: sweep scheduled", "schedule", s.schedule)
	return nil
}

// Close stops the sweep and waits for a running sweep to finish.
func (s *Store) Close() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	L_debug("media: store closed")
}

// Scratch is the local copy of one voice payload, owned by a single run.
type Scratch struct {
	Dir  string // <base>/voice/<uuid>
	Name string // voice_<uid>_<YYYYmmdd_HHMMSS>.oga
	Path string // Dir/Name
}

// ScratchName is the file name used for a voice payload from userID received at t.
func ScratchName(userID int64, t time.Time) string {
	return fmt.Sprintf("voice_%d_%s.oga", userID, t.Format("20060102_150405"))
}

// NewScratch creates an isolated directory for one run.
func (s *Store) NewScratch(userID int64, receivedAt time.Time) (*Scratch, error) {
	dir := filepath.Join(s.baseDir, voiceSubdir, uuid.New().String())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	name := ScratchName(userID, receivedAt)
	return &Scratch{Dir: dir, Name: name, Path: filepath.Join(dir, name)}, nil
}

// Remove deletes the scratch directory and everything in it.
func (sc *Scratch) Remove() {
	if sc == nil {
		return
	}
	if err := os.RemoveAll(sc.Dir); err != nil {
		L_warn("media: failed to remove scratch", "dir", sc.Dir, "error", err)
		return
	}
	L_trace("media: removed scratch", "dir", sc.Dir)
}

// Sweep removes scratch directories last modified before now minus the TTL.
func (s *Store) Sweep(now time.Time) (int, error) {
	cutoff := now.Add(-s.ttl)
	root := filepath.Join(s.baseDir, voiceSubdir)

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			L_trace("media: failed to remove expired scratch", "path", path, "error", err)
			continue
		}
		removed++
		L_trace("media: removed expired scratch", "path", path, "age", now.Sub(info.ModTime()).String())
	}

	if removed > 0 {
		L_debug("media: sweep completed", "removed", removed)
		MetricAdd("media", "swept", int64(removed))
	}
	return removed, nil
}
