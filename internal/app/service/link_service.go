package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/linktrail/linktrail/internal/app/codefilter"
	"github.com/linktrail/linktrail/internal/app/model"
	"github.com/linktrail/linktrail/internal/app/repository"
)

var (
	// ErrInvalidURL signals a missing or malformed destination URL.
	ErrInvalidURL = errors.New("please enter a valid URL")
	// ErrAliasTaken signals that the requested custom alias collides with an
	// existing short code or alias.
	ErrAliasTaken = errors.New("custom alias already exists")
	// ErrInvalidExpiration signals an unrecognized expiration choice.
	ErrInvalidExpiration = errors.New("expiration must be one of: never, 1h, 1d, 1w, 1m, 1y")
)

const shortCodeLength = 6

// CodeGenerator produces random short codes of fixed length.
type CodeGenerator func() string

// LinkService defines behaviour-level operations on links.
type LinkService interface {
	CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error)
	ListLinks(ctx context.Context, userID string) ([]model.LinkWithStats, error)
	Analytics(ctx context.Context, id int64) (*LinkAnalytics, error)
	DeleteLink(ctx context.Context, id int64) error
	Stats(ctx context.Context, userID string) (*DashboardStats, error)
}

// CreateLinkInput captures data required to create a link.
type CreateLinkInput struct {
	OriginalURL string
	CustomAlias string
	Expiration  string
	UserID      string
}

// LinkAnalytics bundles a link with its click history for the analytics view.
type LinkAnalytics struct {
	Link         *model.Link
	TotalClicks  int64
	RecentClicks int64
	Clicks       []model.Click
}

// DashboardStats holds the aggregate counters shown on the dashboard.
type DashboardStats struct {
	TotalLinks  int64
	TotalClicks int64
	TodayClicks int64
	CTR         string
}

// analyticsClickLimit bounds the click history returned per link.
const analyticsClickLimit = 100

type linkService struct {
	store        repository.Store
	generateCode CodeGenerator
	filter       *codefilter.Filter
}

// NewLinkService returns a service backed by the given store. The code
// filter is optional; when set, created codes and aliases are added to it.
func NewLinkService(store repository.Store, generateCode CodeGenerator, filter *codefilter.Filter) LinkService {
	return &linkService{
		store:        store,
		generateCode: generateCode,
		filter:       filter,
	}
}

func (s *linkService) CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error) {
	if !isValidURL(input.OriginalURL) {
		return nil, ErrInvalidURL
	}

	expiresAt, err := parseExpiration(input.Expiration)
	if err != nil {
		return nil, err
	}

	if input.CustomAlias != "" {
		if _, err := s.store.LinkByCode(ctx, input.CustomAlias); err == nil {
			return nil, ErrAliasTaken
		} else if !errors.Is(err, repository.ErrLinkNotFound) {
			return nil, fmt.Errorf("check alias: %w", err)
		}
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	link := &model.Link{
		OriginalURL: input.OriginalURL,
		ShortCode:   code,
		CustomAlias: input.CustomAlias,
		ExpiresAt:   expiresAt,
		UserID:      input.UserID,
	}
	if err := s.store.CreateLink(ctx, link); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	if s.filter != nil {
		s.filter.Add(link.ShortCode)
		if link.CustomAlias != "" {
			s.filter.Add(link.CustomAlias)
		}
	}
	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context, userID string) ([]model.LinkWithStats, error) {
	links, err := s.store.LinksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *linkService) Analytics(ctx context.Context, id int64) (*LinkAnalytics, error) {
	link, err := s.store.LinkByID(ctx, id)
	if err != nil {
		return nil, err
	}

	total, err := s.store.ClickCount(ctx, link.ID)
	if err != nil {
		return nil, fmt.Errorf("count clicks: %w", err)
	}
	recent, err := s.store.RecentClickCount(ctx, link.ID, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("count recent clicks: %w", err)
	}
	clicks, err := s.store.ClicksForLink(ctx, link.ID, analyticsClickLimit)
	if err != nil {
		return nil, fmt.Errorf("list clicks: %w", err)
	}

	return &LinkAnalytics{
		Link:         link,
		TotalClicks:  total,
		RecentClicks: recent,
		Clicks:       clicks,
	}, nil
}

func (s *linkService) DeleteLink(ctx context.Context, id int64) error {
	return s.store.DeleteLink(ctx, id)
}

func (s *linkService) Stats(ctx context.Context, userID string) (*DashboardStats, error) {
	totalLinks, err := s.store.LinkCountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count links: %w", err)
	}
	clickStats, err := s.store.ClickStatsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("click stats: %w", err)
	}

	ctr := "0.0"
	if totalLinks > 0 {
		ctr = fmt.Sprintf("%.1f", float64(clickStats.Total)/float64(totalLinks)*100)
	}

	return &DashboardStats{
		TotalLinks:  totalLinks,
		TotalClicks: clickStats.Total,
		TodayClicks: clickStats.Today,
		CTR:         ctr,
	}, nil
}

// uniqueCode generates codes until one misses the shared code/alias namespace.
func (s *linkService) uniqueCode(ctx context.Context) (string, error) {
	for {
		code := s.generateCode()
		_, err := s.store.LinkByCode(ctx, code)
		if errors.Is(err, repository.ErrLinkNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
	}
}

func isValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func parseExpiration(expiration string) (*time.Time, error) {
	if expiration == "" || expiration == "never" {
		return nil, nil
	}

	var d time.Duration
	switch expiration {
	case "1h":
		d = time.Hour
	case "1d":
		d = 24 * time.Hour
	case "1w":
		d = 7 * 24 * time.Hour
	case "1m":
		d = 30 * 24 * time.Hour
	case "1y":
		d = 365 * 24 * time.Hour
	default:
		return nil, ErrInvalidExpiration
	}

	at := time.Now().Add(d)
	return &at, nil
}
