package sqlite

// embeddingDim must match the dimension the embedder CLI produces; the
// /healthz vector check (internal/app/readiness.go) reports 503 if a stored
// problem_embeddings row disagrees with it.
const embeddingDim = 768

const ddlDataTables = `
CREATE TABLE IF NOT EXISTS problems (
	id TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT 'leetcode',
	slug TEXT NOT NULL,
	title TEXT,
	title_cn TEXT,
	difficulty TEXT,
	ac_rate REAL,
	rating REAL,
	contest TEXT,
	problem_index TEXT,
	tags TEXT,
	link TEXT,
	category TEXT,
	paid_only INTEGER,
	content TEXT,
	content_cn TEXT,
	similar_questions TEXT,
	PRIMARY KEY (source, id)
);
CREATE TABLE IF NOT EXISTS daily_challenge (
	date TEXT NOT NULL,
	domain TEXT NOT NULL,
	id INTEGER,
	slug TEXT NOT NULL,
	title TEXT,
	title_cn TEXT,
	difficulty TEXT,
	ac_rate REAL,
	rating REAL,
	contest TEXT,
	problem_index TEXT,
	tags TEXT,
	link TEXT,
	category TEXT,
	paid_only INTEGER,
	content TEXT,
	content_cn TEXT,
	similar_questions TEXT,
	PRIMARY KEY (date, domain)
);
CREATE TABLE IF NOT EXISTS problem_embeddings (
	source TEXT NOT NULL,
	problem_id TEXT NOT NULL,
	rewritten_content TEXT,
	model TEXT NOT NULL,
	dim INTEGER NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (source, problem_id)
);
CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(
	source TEXT,
	problem_id TEXT,
	embedding float[768]
);
CREATE INDEX IF NOT EXISTS idx_problems_source_slug ON problems(source, slug);
`

const ddlAppSettingsTable = `
CREATE TABLE IF NOT EXISTS app_settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const ddlAPITokensTable = `
CREATE TABLE IF NOT EXISTS api_tokens (
	token TEXT PRIMARY KEY,
	label TEXT,
	created_at INTEGER NOT NULL,
	last_used_at INTEGER,
	is_active INTEGER NOT NULL DEFAULT 1
);
`

// EnsureSchema creates every table (and the vec0 virtual table) the catalog
// needs, idempotently. Run once at startup against the RW pool.
func EnsureSchema(p *Pools) error {
	for _, stmt := range []string{ddlDataTables, ddlAppSettingsTable, ddlAPITokensTable} {
		if _, err := p.RW.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
