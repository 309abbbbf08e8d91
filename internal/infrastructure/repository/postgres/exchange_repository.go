package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

const topTopicsLimit = 5

type ExchangeRepository struct {
	db *sql.DB
}

func NewExchangeRepository(db *sql.DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

func (r *ExchangeRepository) SaveExchange(ctx context.Context, exchange domain.Exchange) error {
	if exchange.CreatedAt.IsZero() {
		exchange.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO exchanges (id, session_id, teacher_id, query, answer, topic, sentiment, language, source_type, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		exchange.ID, exchange.SessionID, nullableString(exchange.TeacherID), exchange.Query, exchange.Answer,
		exchange.Topic, exchange.Sentiment, exchange.Language, exchange.SourceType, exchange.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

func (r *ExchangeRepository) AnalyticsForCRP(ctx context.Context, crpID string) (*domain.CRPAnalytics, error) {
	analytics := &domain.CRPAnalytics{CRPID: crpID}

	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teachers WHERE crp_id = $1`, crpID)
	if err := row.Scan(&analytics.TotalTeachers); err != nil {
		return nil, fmt.Errorf("count teachers: %w", err)
	}

	row = r.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM exchanges e
JOIN teachers t ON t.id = e.teacher_id
WHERE t.crp_id = $1 AND e.created_at >= date_trunc('day', now())
`, crpID)
	if err := row.Scan(&analytics.TotalQueriesToday); err != nil {
		return nil, fmt.Errorf("count queries today: %w", err)
	}

	topics, err := r.topTopics(ctx, crpID)
	if err != nil {
		return nil, err
	}
	analytics.TopTopics = topics

	analytics.SentimentDistribution, err = r.distribution(ctx, crpID, "sentiment")
	if err != nil {
		return nil, err
	}
	analytics.LanguageDistribution, err = r.distribution(ctx, crpID, "language")
	if err != nil {
		return nil, err
	}
	return analytics, nil
}

func (r *ExchangeRepository) topTopics(ctx context.Context, crpID string) ([]domain.TopicCount, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT e.topic, COUNT(*) AS cnt
FROM exchanges e
JOIN teachers t ON t.id = e.teacher_id
WHERE t.crp_id = $1 AND e.topic <> ''
GROUP BY e.topic
ORDER BY cnt DESC, e.topic ASC
LIMIT $2
`, crpID, topTopicsLimit)
	if err != nil {
		return nil, fmt.Errorf("query top topics: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TopicCount, 0, topTopicsLimit)
	for rows.Next() {
		var tc domain.TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan topic count: %w", err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top topics: %w", err)
	}
	return out, nil
}

// column is always a compile-time constant, never caller input.
func (r *ExchangeRepository) distribution(ctx context.Context, crpID, column string) (map[string]int, error) {
	query := fmt.Sprintf(`
SELECT e.%s, COUNT(*)
FROM exchanges e
JOIN teachers t ON t.id = e.teacher_id
WHERE t.crp_id = $1 AND e.%s <> ''
GROUP BY e.%s
`, column, column, column)

	rows, err := r.db.QueryContext(ctx, query, crpID)
	if err != nil {
		return nil, fmt.Errorf("query %s distribution: %w", column, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan %s distribution: %w", column, err)
		}
		out[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s distribution: %w", column, err)
	}
	return out, nil
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
