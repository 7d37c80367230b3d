package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linktrail/linktrail/internal/app/model"
	"gorm.io/gorm"
)

// postgresStore is the durable Store variant. GORM handles row-level CRUD
// and schema migration; the pgx pool serves the aggregate counter queries.
type postgresStore struct {
	db   *gorm.DB
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by the given GORM handle and pgx pool.
func NewPostgresStore(db *gorm.DB, pool *pgxpool.Pool) Store {
	return &postgresStore{db: db, pool: pool}
}

func (s *postgresStore) CreateLink(ctx context.Context, link *model.Link) error {
	link.IsActive = true
	return s.db.WithContext(ctx).Create(link).Error
}

func (s *postgresStore) LinkByID(ctx context.Context, id int64) (*model.Link, error) {
	var link model.Link
	if err := s.db.WithContext(ctx).First(&link, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (s *postgresStore) LinkByCode(ctx context.Context, code string) (*model.Link, error) {
	var link model.Link
	err := s.db.WithContext(ctx).
		Where("short_code = ? OR (custom_alias <> '' AND custom_alias = ?)", code, code).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (s *postgresStore) LinksByUser(ctx context.Context, userID string) ([]model.LinkWithStats, error) {
	var links []model.Link
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-recentWindow)
	result := make([]model.LinkWithStats, 0, len(links))
	for _, link := range links {
		entry := model.LinkWithStats{Link: link}
		if entry.ClickCount, err = s.ClickCount(ctx, link.ID); err != nil {
			return nil, err
		}
		if entry.RecentClicks, err = s.RecentClickCount(ctx, link.ID, cutoff); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *postgresStore) DeleteLink(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", id).Delete(&model.Click{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Link{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLinkNotFound
		}
		return nil
	})
}

func (s *postgresStore) ShortCodes(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT short_code, custom_alias FROM links`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code, alias string
		if err := rows.Scan(&code, &alias); err != nil {
			return nil, err
		}
		codes = append(codes, code)
		if alias != "" {
			codes = append(codes, alias)
		}
	}
	return codes, rows.Err()
}

func (s *postgresStore) RecordClick(ctx context.Context, click *model.Click) error {
	if click.ClickedAt.IsZero() {
		click.ClickedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(click).Error
}

func (s *postgresStore) ClicksForLink(ctx context.Context, linkID int64, limit int) ([]model.Click, error) {
	q := s.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("clicked_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var clicks []model.Click
	if err := q.Find(&clicks).Error; err != nil {
		return nil, err
	}
	return clicks, nil
}

func (s *postgresStore) ClickCount(ctx context.Context, linkID int64) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM clicks WHERE link_id = $1`, linkID).Scan(&n)
	return n, err
}

func (s *postgresStore) RecentClickCount(ctx context.Context, linkID int64, since time.Time) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM clicks WHERE link_id = $1 AND clicked_at >= $2`,
		linkID, since).Scan(&n)
	return n, err
}

func (s *postgresStore) LinkCountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM links WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func (s *postgresStore) ClickStats(ctx context.Context) (model.ClickStats, error) {
	now := time.Now()
	var stats model.ClickStats
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE clicked_at >= $1),
		       count(*) FILTER (WHERE clicked_at >= $2)
		FROM clicks`,
		startOfToday(now), now.AddDate(0, 0, -7),
	).Scan(&stats.Total, &stats.Today, &stats.ThisWeek)
	return stats, err
}

func (s *postgresStore) ClickStatsByUser(ctx context.Context, userID string) (model.ClickStats, error) {
	now := time.Now()
	var stats model.ClickStats
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE c.clicked_at >= $2),
		       count(*) FILTER (WHERE c.clicked_at >= $3)
		FROM clicks c
		JOIN links l ON l.id = c.link_id
		WHERE l.user_id = $1`,
		userID, startOfToday(now), now.AddDate(0, 0, -7),
	).Scan(&stats.Total, &stats.Today, &stats.ThisWeek)
	return stats, err
}
