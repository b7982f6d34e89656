// Package storage persists all user data in a single JSON document on
// disk. Every mutation rewrites the whole file; a process-wide mutex
// serializes access so concurrent handlers cannot lose updates.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/m3rciful/skybot/core/logger"
)

// UserRecord is one known user.
type UserRecord struct {
	Username     string    `json:"username"`
	FirstSeen    time.Time `json:"first_seen"`
	LastActivity time.Time `json:"last_activity"`
	RequestCount int       `json:"request_count"`
}

// BanRecord captures an active ban.
type BanRecord struct {
	Reason   string    `json:"reason"`
	BannedAt time.Time `json:"banned_at"`
	BannedBy int64     `json:"banned_by"`
}

// Statistics holds process-independent counters.
type Statistics struct {
	TotalUsers    int       `json:"total_users"`
	TotalRequests int       `json:"total_requests"`
	StartedAt     time.Time `json:"bot_started"`
}

// Document is the full on-disk schema. User ids are stringified in the
// JSON keys.
type Document struct {
	Users     map[string]*UserRecord `json:"users"`
	Favorites map[string][]string    `json:"favorites"`
	Banned    map[string]*BanRecord  `json:"banned_users"`
	Stats     Statistics             `json:"statistics"`
}

// Store owns the document and its file.
type Store struct {
	path  string
	clock clockwork.Clock

	mu  sync.Mutex
	doc Document
}

// Open loads the document at path, creating a fresh one when the file is
// missing or unreadable. A corrupt file is never fatal: the store logs
// and starts over.
func Open(path string) (*Store, error) {
	return OpenWithClock(path, clockwork.NewRealClock())
}

// OpenWithClock is Open with an injectable clock for tests.
func OpenWithClock(path string, clock clockwork.Clock) (*Store, error) {
	if path == "" {
		return nil, errors.New("storage: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	s := &Store{path: path, clock: clock}
	s.doc = s.load()
	return s, nil
}

func (s *Store) load() Document {
	doc := Document{
		Users:     make(map[string]*UserRecord),
		Favorites: make(map[string][]string),
		Banned:    make(map[string]*BanRecord),
		Stats:     Statistics{StartedAt: s.clock.Now().UTC()},
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc
	}
	if err != nil {
		logger.LogEvent(logger.Background(), logger.Store, slog.LevelWarn, "store_load_failed",
			slog.String("path", s.path),
			slog.String("err", err.Error()))
		return doc
	}

	var loaded Document
	if err := json.Unmarshal(data, &loaded); err != nil {
		logger.LogEvent(logger.Background(), logger.Store, slog.LevelWarn, "store_corrupt_reinit",
			slog.String("path", s.path),
			slog.String("err", err.Error()))
		return doc
	}

	// Older files may omit sections; missing maps mean empty, not error.
	if loaded.Users == nil {
		loaded.Users = make(map[string]*UserRecord)
	}
	if loaded.Favorites == nil {
		loaded.Favorites = make(map[string][]string)
	}
	if loaded.Banned == nil {
		loaded.Banned = make(map[string]*BanRecord)
	}
	if loaded.Stats.StartedAt.IsZero() {
		loaded.Stats.StartedAt = s.clock.Now().UTC()
	}
	return loaded
}

// save rewrites the whole document. Errors are logged and swallowed: a
// failed write must not break the user-facing flow, the next successful
// mutation rewrites everything anyway.
func (s *Store) save() {
	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		logger.LogEvent(logger.Background(), logger.Store, slog.LevelError, "store_marshal_failed",
			slog.String("err", err.Error()))
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err == nil {
		err = os.Rename(tmp, s.path)
	}
	if err != nil {
		logger.LogEvent(logger.Background(), logger.Store, slog.LevelError, "store_write_failed",
			slog.String("path", s.path),
			slog.String("err", err.Error()))
	}
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Register records a user on first contact. It returns true when the user
// was not known before; repeat calls change nothing.
func (s *Store) Register(userID int64, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID)
	now := s.clock.Now().UTC()
	if _, ok := s.doc.Users[k]; ok {
		return false
	}
	s.doc.Users[k] = &UserRecord{
		Username:     username,
		FirstSeen:    now,
		LastActivity: now,
	}
	s.doc.Stats.TotalUsers = len(s.doc.Users)
	s.save()
	return true
}

// Touch bumps activity and request counters. Unknown users are a silent
// no-op: only /start creates a record.
func (s *Store) Touch(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.doc.Users[key(userID)]
	if !ok {
		return
	}
	rec.LastActivity = s.clock.Now().UTC()
	rec.RequestCount++
	s.doc.Stats.TotalRequests++
	s.save()
}

// NormalizeCity canonicalizes a city name for storage and lookup.
func NormalizeCity(city string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(city))
}

// AddFavorite stores a city for the user. It reports false when the city
// was already present.
func (s *Store) AddFavorite(userID int64, city string) bool {
	city = NormalizeCity(city)
	if city == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID)
	for _, existing := range s.doc.Favorites[k] {
		if existing == city {
			return false
		}
	}
	s.doc.Favorites[k] = append(s.doc.Favorites[k], city)
	s.save()
	return true
}

// RemoveFavorite drops a city from the user's list, reporting whether it
// was present.
func (s *Store) RemoveFavorite(userID int64, city string) bool {
	city = NormalizeCity(city)
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID)
	list := s.doc.Favorites[k]
	for i, existing := range list {
		if existing == city {
			s.doc.Favorites[k] = append(list[:i], list[i+1:]...)
			if len(s.doc.Favorites[k]) == 0 {
				delete(s.doc.Favorites, k)
			}
			s.save()
			return true
		}
	}
	return false
}

// Favorites returns a copy of the user's saved cities in insertion order.
func (s *Store) Favorites(userID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.doc.Favorites[key(userID)]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Ban records an active ban. It reports false when the user is already
// banned; the original record keeps its reason and timestamp.
func (s *Store) Ban(userID int64, reason string, bannedBy int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(userID)
	if _, ok := s.doc.Banned[k]; ok {
		return false
	}
	s.doc.Banned[k] = &BanRecord{
		Reason:   reason,
		BannedAt: s.clock.Now().UTC(),
		BannedBy: bannedBy,
	}
	s.save()
	return true
}

// Unban lifts a ban, reporting whether one existed.
func (s *Store) Unban(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(userID)
	if _, ok := s.doc.Banned[k]; !ok {
		return false
	}
	delete(s.doc.Banned, k)
	s.save()
	return true
}

// IsBanned reports whether the user has an active ban.
func (s *Store) IsBanned(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.doc.Banned[key(userID)]
	return ok
}

// BanInfo returns the active ban record, if any.
func (s *Store) BanInfo(userID int64) (BanRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.doc.Banned[key(userID)]
	if !ok {
		return BanRecord{}, false
	}
	return *rec, true
}

// UserInfo returns the user's record, if known.
func (s *Store) UserInfo(userID int64) (UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.doc.Users[key(userID)]
	if !ok {
		return UserRecord{}, false
	}
	return *rec, true
}

// AllUserIDs returns every known user id in ascending order.
func (s *Store) AllUserIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.doc.Users))
	for k := range s.doc.Users {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BannedUsers returns a copy of all active bans keyed by user id.
func (s *Store) BannedUsers() map[int64]BanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]BanRecord, len(s.doc.Banned))
	for k, rec := range s.doc.Banned {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		out[id] = *rec
	}
	return out
}

// Statistics returns the aggregate counters.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Stats
}

// TopCities aggregates favorites across all users, most saved first, up
// to limit entries.
func (s *Store) TopCities(limit int) []CityCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, list := range s.doc.Favorites {
		for _, city := range list {
			counts[city]++
		}
	}
	out := make([]CityCount, 0, len(counts))
	for city, n := range counts {
		out = append(out, CityCount{City: city, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].City < out[j].City
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CityCount pairs a city with how many users saved it.
type CityCount struct {
	City  string
	Count int
}

// ActiveSince counts users whose last activity is at or after cutoff.
func (s *Store) ActiveSince(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rec := range s.doc.Users {
		if !rec.LastActivity.Before(cutoff) {
			n++
		}
	}
	return n
}

// RecentUsers returns up to limit users ordered by most recent activity.
func (s *Store) RecentUsers(limit int) []UserSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UserSummary, 0, len(s.doc.Users))
	for k, rec := range s.doc.Users {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, UserSummary{ID: id, Record: *rec})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Record.LastActivity.After(out[j].Record.LastActivity)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// UserSummary pairs a user id with its record.
type UserSummary struct {
	ID     int64
	Record UserRecord
}
