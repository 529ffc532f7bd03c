package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

// CatalogRepository implements domain.CatalogRepository against Pools.
type CatalogRepository struct {
	pools *Pools
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(pools *Pools) *CatalogRepository {
	return &CatalogRepository{pools: pools}
}

func parseJSONArray(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return []string{}
	}
	return out
}

func scanProblem(row *sql.Row) (*domain.Problem, error) {
	var p domain.Problem
	var tags, similar sql.NullString
	if err := row.Scan(
		&p.ID, &p.Source, &p.Slug, &p.Title, &p.TitleCN, &p.Difficulty, &p.ACRate, &p.Rating,
		&p.Contest, &p.ProblemIndex, &tags, &p.Link, &p.Category, &p.PaidOnly,
		&p.Content, &p.ContentCN, &similar,
	); err != nil {
		return nil, err
	}
	p.Tags = parseJSONArray(tags)
	p.SimilarQuestions = parseJSONArray(similar)
	return &p, nil
}

// GetProblemIDBySlug resolves a problem's canonical id from its slug.
func (r *CatalogRepository) GetProblemIDBySlug(ctx context.Context, source, slug string) (string, bool, error) {
	var id string
	err := r.pools.RO.QueryRowContext(ctx,
		`SELECT id FROM problems WHERE source = ? AND slug = ? LIMIT 1`, source, slug,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// GetProblem fetches a single problem by (source, id).
func (r *CatalogRepository) GetProblem(ctx context.Context, source, id string) (*domain.Problem, error) {
	row := r.pools.RO.QueryRowContext(ctx,
		`SELECT id, source, slug, title, title_cn, difficulty, ac_rate, rating,
		        contest, problem_index, tags, link, category, paid_only,
		        content, content_cn, similar_questions
		 FROM problems WHERE source = ? AND id = ?`, source, id)
	p, err := scanProblem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: problem %s/%s", domain.ErrNotFound, source, id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProblems runs the filtered, paginated, natural-sort-aware listing
// query. Every dynamic clause is parameterized; only column/direction
// tokens chosen from a fixed allow-list are interpolated into the SQL text.
func (r *CatalogRepository) ListProblems(ctx context.Context, params domain.ListParams) (*domain.ListResult, error) {
	perPage := clampInt(params.PerPage, 1, 100)
	page := params.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	where := []string{"source = ?"}
	args := []any{params.Source}

	if params.Difficulty != "" {
		where = append(where, "LOWER(difficulty) = LOWER(?)")
		args = append(args, params.Difficulty)
	}

	if trimmed := strings.TrimSpace(params.Search); trimmed != "" {
		escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(trimmed)
		like := "%" + escaped + "%"
		where = append(where, `(id LIKE ? ESCAPE '\' OR COALESCE(title,'') LIKE ? ESCAPE '\' OR COALESCE(title_cn,'') LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}

	if len(params.Tags) > 0 {
		joiner := " OR "
		if params.TagMode == "all" {
			joiner = " AND "
		}
		conds := make([]string, 0, len(params.Tags))
		for _, tag := range params.Tags {
			conds = append(conds, `EXISTS (SELECT 1 FROM json_each(CASE WHEN tags IS NOT NULL AND tags != '' THEN tags ELSE '[]' END) WHERE LOWER(value) = LOWER(?))`)
			args = append(args, tag)
		}
		where = append(where, "("+strings.Join(conds, joiner)+")")
	}

	if params.RatingMin != nil {
		where = append(where, "rating >= ?")
		args = append(args, *params.RatingMin)
	}
	if params.RatingMax != nil {
		where = append(where, "rating <= ?")
		args = append(args, *params.RatingMax)
	}

	whereSQL := strings.Join(where, " AND ")

	var total int
	countSQL := "SELECT COUNT(*) FROM problems WHERE " + whereSQL
	if err := r.pools.RO.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}

	orderCol := "natural_sort_key(id)"
	switch params.SortBy {
	case "difficulty":
		orderCol = "CASE WHEN LOWER(difficulty)='easy' THEN 1 WHEN LOWER(difficulty)='medium' THEN 2 WHEN LOWER(difficulty)='hard' THEN 3 ELSE 4 END"
	case "rating":
		orderCol = "rating"
	case "ac_rate":
		orderCol = "ac_rate"
	case "id", "":
		orderCol = "natural_sort_key(id)"
	}
	orderDir := "ASC"
	if params.SortBy != "" && params.SortOrder == "desc" {
		orderDir = "DESC"
	}

	selectSQL := fmt.Sprintf(
		`SELECT id, source, slug, title, title_cn, difficulty, ac_rate, rating,
		        contest, problem_index, tags, link
		 FROM problems WHERE %s
		 ORDER BY %s %s, natural_sort_key(id) ASC, id ASC
		 LIMIT ? OFFSET ?`,
		whereSQL, orderCol, orderDir,
	)
	selectArgs := append(append([]any{}, args...), perPage, offset)

	rows, err := r.pools.RO.QueryContext(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data := make([]domain.ProblemSummary, 0, perPage)
	for rows.Next() {
		var s domain.ProblemSummary
		var tags sql.NullString
		if err := rows.Scan(&s.ID, &s.Source, &s.Slug, &s.Title, &s.TitleCN, &s.Difficulty,
			&s.ACRate, &s.Rating, &s.Contest, &s.ProblemIndex, &tags, &s.Link); err != nil {
			return nil, err
		}
		s.Tags = parseJSONArray(tags)
		data = append(data, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.ListResult{
		Data:       data,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// InsertProblem adds a new catalog row.
func (r *CatalogRepository) InsertProblem(ctx context.Context, p domain.Problem) error {
	tagsJSON, _ := json.Marshal(p.Tags)
	similarJSON, _ := json.Marshal(p.SimilarQuestions)
	_, err := r.pools.RW.ExecContext(ctx,
		`INSERT INTO problems (id, source, slug, title, title_cn, difficulty, ac_rate, rating,
		        contest, problem_index, tags, link, category, paid_only, content, content_cn, similar_questions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Source, p.Slug, p.Title, p.TitleCN, p.Difficulty, p.ACRate, p.Rating,
		p.Contest, p.ProblemIndex, string(tagsJSON), p.Link, p.Category, p.PaidOnly,
		p.Content, p.ContentCN, string(similarJSON),
	)
	return err
}

// UpdateProblem overwrites an existing catalog row, reporting whether
// (source, id) existed.
func (r *CatalogRepository) UpdateProblem(ctx context.Context, source, id string, p domain.Problem) (bool, error) {
	tagsJSON, _ := json.Marshal(p.Tags)
	similarJSON, _ := json.Marshal(p.SimilarQuestions)
	res, err := r.pools.RW.ExecContext(ctx,
		`UPDATE problems SET slug=?, title=?, title_cn=?, difficulty=?, ac_rate=?,
		        rating=?, contest=?, problem_index=?, tags=?, link=?, category=?,
		        paid_only=?, content=?, content_cn=?, similar_questions=?
		 WHERE source=? AND id=?`,
		p.Slug, p.Title, p.TitleCN, p.Difficulty, p.ACRate, p.Rating, p.Contest,
		p.ProblemIndex, string(tagsJSON), p.Link, p.Category, p.PaidOnly,
		p.Content, p.ContentCN, string(similarJSON), source, id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteProblem removes a problem and its embeddings in one transaction,
// reporting whether (source, id) existed.
func (r *CatalogRepository) DeleteProblem(ctx context.Context, source, id string) (bool, error) {
	tx, err := r.pools.RW.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_embeddings WHERE source = ? AND problem_id = ?`, source, id); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM problem_embeddings WHERE source = ? AND problem_id = ?`, source, id); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM problems WHERE source = ? AND id = ?`, source, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListTags returns the distinct, lowercased, sorted tag set for a source.
func (r *CatalogRepository) ListTags(ctx context.Context, source string) ([]string, error) {
	rows, err := r.pools.RO.QueryContext(ctx,
		`SELECT DISTINCT LOWER(TRIM(je.value)) AS tag
		 FROM problems p, json_each(
		     CASE WHEN p.tags IS NOT NULL AND p.tags != '' AND json_valid(p.tags)
		          THEN p.tags ELSE '[]' END
		 ) je
		 WHERE p.source = ? AND TRIM(je.value) != ''
		 ORDER BY tag ASC`, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// PlatformStats aggregates per-source counts, including content/embedding
// coverage, for the admin dashboard.
func (r *CatalogRepository) PlatformStats(ctx context.Context) ([]domain.PlatformStats, error) {
	rows, err := r.pools.RO.QueryContext(ctx,
		`SELECT p.source, COUNT(*) AS total,
		        SUM(CASE WHEN p.content IS NULL OR p.content = '' THEN 1 ELSE 0 END) AS missing_content,
		        SUM(CASE WHEN pe.problem_id IS NULL THEN 1 ELSE 0 END) AS not_embedded
		 FROM problems p
		 LEFT JOIN problem_embeddings pe ON pe.source = p.source AND pe.problem_id = p.id
		 GROUP BY p.source ORDER BY p.source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PlatformStats
	for rows.Next() {
		var s domain.PlatformStats
		if err := rows.Scan(&s.Source, &s.Total, &s.MissingContent, &s.NotEmbedded); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
