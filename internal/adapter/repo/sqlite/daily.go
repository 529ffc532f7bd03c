package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

// DailyRepository implements domain.DailyRepository against Pools.
type DailyRepository struct {
	pools *Pools
}

// NewDailyRepository constructs a DailyRepository.
func NewDailyRepository(pools *Pools) *DailyRepository {
	return &DailyRepository{pools: pools}
}

// GetDaily fetches the daily challenge entry keyed by (domain, date). The
// stored id column is INTEGER but DailyChallenge.ID is a string, so numeric
// and textual representations are both accepted.
func (r *DailyRepository) GetDaily(ctx context.Context, domainArg, date string) (*domain.DailyChallenge, error) {
	row := r.pools.RO.QueryRowContext(ctx,
		`SELECT date, domain, id, slug, title, title_cn, difficulty, ac_rate, rating,
		        contest, problem_index, tags, link, category, paid_only, content,
		        content_cn, similar_questions
		 FROM daily_challenge WHERE domain = ? AND date = ?`, domainArg, date)

	var d domain.DailyChallenge
	var idRaw sql.NullInt64
	var tags, similar sql.NullString
	err := row.Scan(&d.Date, &d.Domain, &idRaw, &d.Slug, &d.Title, &d.TitleCN, &d.Difficulty,
		&d.ACRate, &d.Rating, &d.Contest, &d.ProblemIndex, &tags, &d.Link, &d.Category,
		&d.PaidOnly, &d.Content, &d.ContentCN, &similar)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: daily challenge %s/%s", domain.ErrNotFound, domainArg, date)
	}
	if err != nil {
		return nil, err
	}

	if idRaw.Valid {
		d.ID = strconv.FormatInt(idRaw.Int64, 10)
	}
	d.Tags = parseJSONArray(tags)
	d.SimilarQuestions = parseJSONArray(similar)
	return &d, nil
}
