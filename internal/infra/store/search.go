package store

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// RecordSearch appends the query string to the search history.
func (s *Store) RecordSearch(ctx context.Context, q string) error {
	if q == "" {
		return nil
	}
	entry := SearchQuery{Query: q}
	return errors.Wrap(s.db.WithContext(ctx).Create(&entry).Error, "record search")
}

// RecentSearches returns distinct query strings, newest first.
func (s *Store) RecentSearches(ctx context.Context, limit int) []string {
	q := s.db.WithContext(ctx).
		Model(&SearchQuery{}).
		Select("query, MAX(created_at) AS latest").
		Group("query").
		Order("latest DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []struct {
		Query  string
		Latest string
	}
	if err := q.Scan(&rows).Error; err != nil {
		zlog.Error().Err(err).Msg("store: recent searches query failed")
		return nil
	}

	queries := make([]string, 0, len(rows))
	for _, r := range rows {
		queries = append(queries, r.Query)
	}
	return queries
}
