package repository

import (
	"context"
	"errors"
	"time"

	"github.com/linktrail/linktrail/internal/app/model"
)

var (
	// ErrLinkNotFound signals that the requested link does not exist.
	ErrLinkNotFound = errors.New("link not found")
)

// Store is the persistence contract for links, clicks, and aggregate
// counters. Two implementations exist: a Postgres-backed one and an
// in-memory one; the variant is selected once at process startup.
type Store interface {
	// CreateLink persists a new link, assigning its identity and creation
	// timestamp and marking it active.
	CreateLink(ctx context.Context, link *model.Link) error
	LinkByID(ctx context.Context, id int64) (*model.Link, error)
	// LinkByCode resolves a short code or custom alias; the two occupy one
	// uniqueness namespace, so a single lookup serves both.
	LinkByCode(ctx context.Context, code string) (*model.Link, error)
	// LinksByUser returns the owner's links newest-first, each with derived
	// click aggregates.
	LinksByUser(ctx context.Context, userID string) ([]model.LinkWithStats, error)
	// DeleteLink removes a link and cascades to all of its clicks.
	DeleteLink(ctx context.Context, id int64) error
	// ShortCodes lists every stored short code and custom alias.
	ShortCodes(ctx context.Context) ([]string, error)

	// RecordClick persists one click, assigning identity and timestamp.
	RecordClick(ctx context.Context, click *model.Click) error
	// ClicksForLink returns up to limit clicks for a link, newest first.
	ClicksForLink(ctx context.Context, linkID int64, limit int) ([]model.Click, error)
	ClickCount(ctx context.Context, linkID int64) (int64, error)
	RecentClickCount(ctx context.Context, linkID int64, since time.Time) (int64, error)

	LinkCountByUser(ctx context.Context, userID string) (int64, error)
	// ClickStats aggregates clicks across every link; ClickStatsByUser scopes
	// the same counters to one owner's links.
	ClickStats(ctx context.Context) (model.ClickStats, error)
	ClickStatsByUser(ctx context.Context, userID string) (model.ClickStats, error)
}

// recentWindow is the trailing window used for the RecentClicks aggregate.
const recentWindow = 24 * time.Hour

func startOfToday(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
