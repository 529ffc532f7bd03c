package domain

import "time"

// JobKind names a supervised job slot. Crawler and Embedding each get their
// own singleton slot; DailyFallback jobs are keyed separately per (domain, date).
type JobKind string

const (
	JobKindCrawler   JobKind = "crawler"
	JobKindEmbedding JobKind = "embedding"
)

// JobStatus is the lifecycle state of a supervised job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobTimedOut  JobStatus = "timed_out"
	JobCancelled JobStatus = "cancelled"
)

// JobTrigger records who started a job.
type JobTrigger string

const (
	TriggerAdmin         JobTrigger = "admin"
	TriggerDailyFallback JobTrigger = "daily_fallback"
)

// MaxOutputBytes bounds how much of a subprocess's stdout/stderr is retained
// in memory; output beyond this is truncated to the trailing window.
const MaxOutputBytes = 64 * 1024

// Job is a single supervised subprocess invocation (crawler or embedding run).
type Job struct {
	JobID      string
	Source     string
	Args       []string
	Trigger    JobTrigger
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     JobStatus
	Stdout     *string
	Stderr     *string
}

// SetOutput truncates stdout/stderr to the trailing MaxOutputBytes and stores
// them on the job, matching the crawler script's log truncation contract.
func (j *Job) SetOutput(stdout, stderr []byte) {
	j.Stdout = truncatedOrNil(stdout)
	j.Stderr = truncatedOrNil(stderr)
}

func truncatedOrNil(b []byte) *string {
	if len(b) == 0 {
		return nil
	}
	if len(b) > MaxOutputBytes {
		b = b[len(b)-MaxOutputBytes:]
	}
	s := string(b)
	return &s
}

// ValueType constrains how an ArgSpec's value is validated.
type ValueType int

const (
	ValueNone ValueType = iota
	ValueDate
	ValueInt
	ValueFloat
	ValueStr
	ValueYearMonth
	ValueDomain
)

// ArgSpec declares one accepted crawler flag: its arity (number of values
// that follow it) and how those values are validated.
type ArgSpec struct {
	Flag      string
	Arity     int
	ValueType ValueType
	UIExposed bool
}

// CrawlerSource enumerates the supported crawler backends and their
// per-source flag tables, ported from the Python crawler scripts' CLIs.
type CrawlerSource string

const (
	SourceLeetCode   CrawlerSource = "leetcode"
	SourceAtCoder    CrawlerSource = "atcoder"
	SourceCodeforces CrawlerSource = "codeforces"
	SourceLuogu      CrawlerSource = "luogu"
	SourceSpoj       CrawlerSource = "spoj"
	SourceDiag       CrawlerSource = "diag"
)

// ParseCrawlerSource validates and converts a raw source string.
func ParseCrawlerSource(s string) (CrawlerSource, bool) {
	switch CrawlerSource(s) {
	case SourceLeetCode, SourceAtCoder, SourceCodeforces, SourceLuogu, SourceSpoj, SourceDiag:
		return CrawlerSource(s), true
	default:
		return "", false
	}
}

// ScriptName is the crawler entrypoint script invoked for this source.
func (c CrawlerSource) ScriptName() string {
	switch c {
	case SourceLeetCode:
		return "leetcode.py"
	case SourceAtCoder:
		return "atcoder.py"
	case SourceCodeforces:
		return "codeforces.py"
	case SourceLuogu, SourceSpoj:
		return "luogu.py"
	case SourceDiag:
		return "diag.py"
	default:
		return ""
	}
}

// ArgSpecs returns the accepted flag table for this source.
func (c CrawlerSource) ArgSpecs() []ArgSpec {
	switch c {
	case SourceLeetCode:
		return leetcodeArgs
	case SourceAtCoder:
		return atcoderArgs
	case SourceCodeforces:
		return codeforcesArgs
	case SourceLuogu:
		return luoguArgs
	case SourceSpoj:
		return spojArgs
	case SourceDiag:
		return diagArgs
	default:
		return nil
	}
}

var leetcodeArgs = []ArgSpec{
	{Flag: "--init", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--full", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--daily", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--date", Arity: 1, ValueType: ValueDate, UIExposed: true},
	{Flag: "--monthly", Arity: 2, ValueType: ValueYearMonth, UIExposed: true},
	{Flag: "--fill-missing-content", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--fill-missing-content-workers", Arity: 1, ValueType: ValueInt, UIExposed: true},
	{Flag: "--missing-content-stats", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--domain", Arity: 1, ValueType: ValueDomain, UIExposed: true},
}

var atcoderArgs = []ArgSpec{
	{Flag: "--sync-kenkoooo", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--sync-history", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--fetch-all", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--resume", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--contest", Arity: 1, ValueType: ValueStr, UIExposed: true},
	{Flag: "--status", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--fill-missing-content", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--missing-content-stats", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--reprocess-content", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--rate-limit", Arity: 1, ValueType: ValueFloat, UIExposed: true},
	{Flag: "--data-dir", Arity: 1, ValueType: ValueStr, UIExposed: false},
	{Flag: "--db-path", Arity: 1, ValueType: ValueStr, UIExposed: false},
}

var codeforcesArgs = []ArgSpec{
	{Flag: "--sync-problemset", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--fetch-all", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--resume", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--contest", Arity: 1, ValueType: ValueInt, UIExposed: true},
	{Flag: "--status", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--fill-missing-content", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--missing-content-stats", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--missing-problems", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--reprocess-content", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--include-gym", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--rate-limit", Arity: 1, ValueType: ValueFloat, UIExposed: true},
	{Flag: "--data-dir", Arity: 1, ValueType: ValueStr, UIExposed: false},
	{Flag: "--db-path", Arity: 1, ValueType: ValueStr, UIExposed: false},
}

var luoguArgs = []ArgSpec{
	{Flag: "--sync", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--fill-missing-content", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--missing-content-stats", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--status", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--overwrite", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--rate-limit", Arity: 1, ValueType: ValueFloat, UIExposed: true},
	{Flag: "--batch-size", Arity: 1, ValueType: ValueInt, UIExposed: true},
	{Flag: "--training-list", Arity: 1, ValueType: ValueStr, UIExposed: true},
	{Flag: "--source", Arity: 1, ValueType: ValueStr, UIExposed: true},
	{Flag: "--data-dir", Arity: 1, ValueType: ValueStr, UIExposed: false},
	{Flag: "--db-path", Arity: 1, ValueType: ValueStr, UIExposed: false},
}

var spojArgs = []ArgSpec{
	{Flag: "--sync-spoj", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--fill-missing-content", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--missing-content-stats", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--overwrite", Arity: 0, ValueType: ValueNone, UIExposed: true},
	{Flag: "--source", Arity: 1, ValueType: ValueStr, UIExposed: false},
	{Flag: "--rate-limit", Arity: 1, ValueType: ValueFloat, UIExposed: true},
	{Flag: "--batch-size", Arity: 1, ValueType: ValueInt, UIExposed: true},
	{Flag: "--data-dir", Arity: 1, ValueType: ValueStr, UIExposed: false},
	{Flag: "--db-path", Arity: 1, ValueType: ValueStr, UIExposed: false},
}

var diagArgs = []ArgSpec{
	{Flag: "--test", Arity: 1, ValueType: ValueStr, UIExposed: true},
}

// LeetCodeDomain is the LeetCode domain variant (.com vs .cn), which differ
// in "today" due to timezone (UTC vs UTC+8).
type LeetCodeDomain string

const (
	DomainCom LeetCodeDomain = "com"
	DomainCn  LeetCodeDomain = "cn"
)

// ParseLeetCodeDomain validates a raw domain string.
func ParseLeetCodeDomain(s string) (LeetCodeDomain, bool) {
	switch LeetCodeDomain(s) {
	case DomainCom, DomainCn:
		return LeetCodeDomain(s), true
	default:
		return "", false
	}
}

// Location returns the domain's reference timezone.
func (d LeetCodeDomain) Location() *time.Location {
	if d == DomainCn {
		return time.FixedZone("CST", 8*3600)
	}
	return time.UTC
}

// Today returns today's date string (YYYY-MM-DD) in the domain's timezone.
func (d LeetCodeDomain) Today() string {
	return time.Now().In(d.Location()).Format("2006-01-02")
}

// TodayDate returns today's date (truncated to midnight) in the domain's
// timezone, used as the upper bound for requested daily-challenge dates.
func (d LeetCodeDomain) TodayDate() time.Time {
	now := time.Now().In(d.Location())
	y, m, day := now.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// FallbackEntry tracks an in-flight or recently-finished daily-fallback
// crawl keyed by "domain:date". The delayed cleanup removes an entry only if
// its StartedAt still equals the start time of the attempt that scheduled
// it, so that a concurrent newer attempt for the same key is never evicted
// early.
type FallbackEntry struct {
	Status        JobStatus
	StartedAt     time.Time
	CooldownUntil *time.Time
}

// ProblemEmbedding is a stored content embedding, decoded from either the
// little-endian float32 binary blob sqlite-vec stores or (for
// externally-inserted rows) a JSON float array.
type ProblemEmbedding struct {
	Source string
	ID     string
	Vector []float32
}

// VectorMatch is one raw vec0 MATCH row: a candidate (source, problem_id)
// and its distance from the query vector, before similarity-threshold
// filtering, source filtering, or problem-detail enrichment.
type VectorMatch struct {
	Source    string
	ProblemID string
	Distance  float32
}

// SimilarityHit is one enriched similarity-search result, ready to
// serialize: a candidate problem and its similarity score (1 - distance)
// relative to the query vector.
type SimilarityHit struct {
	Source     string
	ID         string
	Title      *string
	Difficulty *string
	Link       *string
	Similarity float32
}
