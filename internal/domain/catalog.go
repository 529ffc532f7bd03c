package domain

// Problem is a single catalog entry for a competitive-programming problem.
type Problem struct {
	ID                string
	Source            string
	Slug              string
	Title             *string
	TitleCN           *string
	Difficulty        *string
	ACRate            *float64
	Rating            *float64
	Contest           *string
	ProblemIndex      *string
	Tags              []string
	Link              *string
	Category          *string
	PaidOnly          *int
	Content           *string
	ContentCN         *string
	SimilarQuestions  []string
}

// ProblemSummary is the trimmed projection returned by list endpoints —
// it omits the (potentially large) content fields.
type ProblemSummary struct {
	ID           string
	Source       string
	Slug         string
	Title        *string
	TitleCN      *string
	Difficulty   *string
	ACRate       *float64
	Rating       *float64
	Contest      *string
	ProblemIndex *string
	Tags         []string
	Link         *string
}

// DailyChallenge is a dated daily challenge entry keyed by (date, domain).
type DailyChallenge struct {
	Date             string
	Domain           string
	ID               string
	Slug             string
	Title            *string
	TitleCN          *string
	Difficulty       *string
	ACRate           *float64
	Rating           *float64
	Contest          *string
	ProblemIndex     *string
	Tags             []string
	Link             *string
	Category         *string
	PaidOnly         *int
	Content          *string
	ContentCN        *string
	SimilarQuestions []string
}

// APIToken is a bearer credential accepted on the public API surface.
type APIToken struct {
	Token      string
	Label      *string
	CreatedAt  int64
	LastUsedAt *int64
	IsActive   bool
}

// PlatformStats summarizes catalog coverage for one source.
type PlatformStats struct {
	Source         string
	Total          int
	MissingContent int
	NotEmbedded    int
}

// ListParams controls the paginated, filterable problem listing.
type ListParams struct {
	Source     string
	Page       int
	PerPage    int
	Difficulty string
	Tags       []string
	TagMode    string // "any" (default) or "all"
	Search     string
	SortBy     string // "", "difficulty", "rating", "ac_rate", "id"
	SortOrder  string // "asc" (default) or "desc"
	RatingMin  *float64
	RatingMax  *float64
}

// ListResult is a single page of ProblemSummary rows plus pagination meta.
type ListResult struct {
	Data       []ProblemSummary
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// ValidSources enumerates the catalog sources the public/admin surfaces accept.
var ValidSources = []string{"leetcode", "atcoder", "codeforces", "luogu", "spoj", "uva"}

// IsValidSource reports whether source is one of ValidSources.
func IsValidSource(source string) bool {
	for _, s := range ValidSources {
		if s == source {
			return true
		}
	}
	return false
}
