package core

import (
	"context"
	"time"

	"festivalcore/internal/safeupdate"
	"festivalcore/pkg/domain"
)

// NewsSchema describes how news articles take part in safe updates.
var NewsSchema = mustSchema(&safeupdate.Schema[News]{
	Kind: EntityNews,
	ID:   func(n News) string { return n.ID },
	Fields: []safeupdate.Field[News]{
		safeupdate.Value("title", func(n News) string { return n.Title }, func(n *News, v string) { n.Title = v }),
		safeupdate.Value("content", func(n News) string { return n.Content }, func(n *News, v string) { n.Content = v }),
		safeupdate.Value("status", func(n News) domain.NewsStatus { return n.Status }, func(n *News, v domain.NewsStatus) { n.Status = v }),
		safeupdate.Time("published_at", func(n News) time.Time { return n.PublishedAt }, func(n *News, v time.Time) { n.PublishedAt = v }),
	},
	Validate: News.Validate,
})

var newsBinding = binding[News]{
	schema: NewsSchema,
	table: func(tx domain.Transaction) safeupdate.Table[News] {
		return safeupdate.TableFuncs[News]{FindFn: tx.FindNews, CountFn: tx.CountNews, UpdateFn: tx.UpdateNews}
	},
	editors: []Permission{domain.PermissionNews},
	create:  domain.Transaction.CreateNews,
	remove:  domain.Transaction.DeleteNews,
	find:    domain.TransactionView.FindNews,
	list:    domain.TransactionView.ListNews,
}

// CreateNews persists a new article.
func (s *Service) CreateNews(ctx context.Context, caller Caller, news News) (News, Result, error) {
	return createEntity(ctx, s, newsBinding, caller, news)
}

// GetNews returns one article.
func (s *Service) GetNews(ctx context.Context, id string) (News, error) {
	return getEntity(ctx, s, newsBinding, id)
}

// ListNews returns all articles in creation order.
func (s *Service) ListNews(ctx context.Context) ([]News, error) {
	return listEntities(ctx, s, newsBinding)
}

// DeleteNews removes an article.
func (s *Service) DeleteNews(ctx context.Context, caller Caller, id string) (Result, error) {
	return deleteEntity(ctx, s, newsBinding, caller, id)
}

// UpdateNewsSafe applies the caller's edits made against prior.
func (s *Service) UpdateNewsSafe(ctx context.Context, caller Caller, prior, proposed News) (safeupdate.Report, error) {
	return safeUpdate(ctx, s, newsBinding, caller, prior, proposed)
}

// UpdateNewsUnsafe overwrites the article with proposed.
func (s *Service) UpdateNewsUnsafe(ctx context.Context, proposed News) bool {
	return unsafeUpdate(ctx, s, newsBinding, proposed)
}
