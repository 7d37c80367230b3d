package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linktrail/linktrail/internal/app/model"
)

// memoryStore is the in-memory Store variant used when Postgres is
// unreachable at startup. Fiber serves requests concurrently, so access
// is guarded by a single RWMutex.
type memoryStore struct {
	mu          sync.RWMutex
	links       map[int64]*model.Link
	clicks      map[int64]*model.Click
	nextLinkID  int64
	nextClickID int64
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		links:       make(map[int64]*model.Link),
		clicks:      make(map[int64]*model.Click),
		nextLinkID:  1,
		nextClickID: 1,
	}
}

func (s *memoryStore) CreateLink(_ context.Context, link *model.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link.ID = s.nextLinkID
	s.nextLinkID++
	link.CreatedAt = time.Now()
	link.IsActive = true

	stored := *link
	s.links[link.ID] = &stored
	return nil
}

func (s *memoryStore) LinkByID(_ context.Context, id int64) (*model.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[id]
	if !ok {
		return nil, ErrLinkNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *memoryStore) LinkByCode(_ context.Context, code string) (*model.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, link := range s.links {
		if link.ShortCode == code || (link.CustomAlias != "" && link.CustomAlias == code) {
			cp := *link
			return &cp, nil
		}
	}
	return nil, ErrLinkNotFound
}

func (s *memoryStore) LinksByUser(_ context.Context, userID string) ([]model.LinkWithStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().Add(-recentWindow)
	result := make([]model.LinkWithStats, 0)
	for _, link := range s.links {
		if link.UserID != userID {
			continue
		}
		entry := model.LinkWithStats{Link: *link}
		for _, click := range s.clicks {
			if click.LinkID != link.ID {
				continue
			}
			entry.ClickCount++
			if click.ClickedAt.After(cutoff) {
				entry.RecentClicks++
			}
		}
		result = append(result, entry)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *memoryStore) DeleteLink(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[id]; !ok {
		return ErrLinkNotFound
	}
	delete(s.links, id)
	for clickID, click := range s.clicks {
		if click.LinkID == id {
			delete(s.clicks, clickID)
		}
	}
	return nil
}

func (s *memoryStore) ShortCodes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]string, 0, len(s.links))
	for _, link := range s.links {
		codes = append(codes, link.ShortCode)
		if link.CustomAlias != "" {
			codes = append(codes, link.CustomAlias)
		}
	}
	return codes, nil
}

func (s *memoryStore) RecordClick(_ context.Context, click *model.Click) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	click.ID = s.nextClickID
	s.nextClickID++
	if click.ClickedAt.IsZero() {
		click.ClickedAt = time.Now()
	}

	stored := *click
	s.clicks[click.ID] = &stored
	return nil
}

func (s *memoryStore) ClicksForLink(_ context.Context, linkID int64, limit int) ([]model.Click, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Click, 0)
	for _, click := range s.clicks {
		if click.LinkID == linkID {
			result = append(result, *click)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ClickedAt.After(result[j].ClickedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *memoryStore) ClickCount(_ context.Context, linkID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countClicks(func(c *model.Click) bool { return c.LinkID == linkID }), nil
}

func (s *memoryStore) RecentClickCount(_ context.Context, linkID int64, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countClicks(func(c *model.Click) bool {
		return c.LinkID == linkID && c.ClickedAt.After(since)
	}), nil
}

func (s *memoryStore) LinkCountByUser(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, link := range s.links {
		if link.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) ClickStats(_ context.Context) (model.ClickStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsFor(func(*model.Click) bool { return true }), nil
}

func (s *memoryStore) ClickStatsByUser(_ context.Context, userID string) (model.ClickStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := make(map[int64]bool)
	for _, link := range s.links {
		if link.UserID == userID {
			owned[link.ID] = true
		}
	}
	return s.statsFor(func(c *model.Click) bool { return owned[c.LinkID] }), nil
}

func (s *memoryStore) statsFor(match func(*model.Click) bool) model.ClickStats {
	now := time.Now()
	today := startOfToday(now)
	weekAgo := now.AddDate(0, 0, -7)

	var stats model.ClickStats
	for _, click := range s.clicks {
		if !match(click) {
			continue
		}
		stats.Total++
		if !click.ClickedAt.Before(today) {
			stats.Today++
		}
		if !click.ClickedAt.Before(weekAgo) {
			stats.ThisWeek++
		}
	}
	return stats
}

func (s *memoryStore) countClicks(match func(*model.Click) bool) int64 {
	var n int64
	for _, click := range s.clicks {
		if match(click) {
			n++
		}
	}
	return n
}
