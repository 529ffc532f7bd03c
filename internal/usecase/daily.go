package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/cxyfer/oj-catalog/internal/domain"
	"github.com/cxyfer/oj-catalog/internal/supervisor"
)

var dailyDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// minDailyDate is the earliest date the LeetCode daily archive covers.
const minDailyDate = "2020-04-01"

// FallbackRunner is the narrow supervisor surface the daily facade needs:
// claim a (domain, date) slot and, once claimed, run the crawl in the
// background.
type FallbackRunner interface {
	Claim(key string, now time.Time) (claimed bool, result supervisor.ClaimResult)
	Run(ctx context.Context, key string, now time.Time, domainArg, date string, isToday bool)
}

// DailyFacade implements the get_daily operation: resolve domain/source
// aliases, validate the date range, serve from the catalog if present, or
// claim and kick off a crawler fallback and report "fetching" to the caller.
type DailyFacade struct {
	repo     domain.DailyRepository
	fallback FallbackRunner
}

// NewDailyFacade constructs a DailyFacade.
func NewDailyFacade(repo domain.DailyRepository, fallback FallbackRunner) *DailyFacade {
	return &DailyFacade{repo: repo, fallback: fallback}
}

// ResolveDomain reconciles the domain and source query params the way
// api/daily.rs does: an explicit domain and an explicit leetcode.com/cn
// source must agree if both given; either alone is used as-is; neither
// defaults to "com".
func ResolveDomain(domainParam, sourceParam string) (domain.LeetCodeDomain, error) {
	var fromSource domain.LeetCodeDomain
	var haveSource bool
	switch sourceParam {
	case "":
	case "leetcode.com":
		fromSource, haveSource = domain.DomainCom, true
	case "leetcode.cn":
		fromSource, haveSource = domain.DomainCn, true
	default:
		return "", fmt.Errorf("%w: invalid source '%s', expected 'leetcode.com' or 'leetcode.cn'", domain.ErrInvalidArgument, sourceParam)
	}

	var fromDomain domain.LeetCodeDomain
	var haveDomain bool
	if domainParam != "" {
		d, ok := domain.ParseLeetCodeDomain(domainParam)
		if !ok {
			return "", fmt.Errorf("%w: domain must be 'com' or 'cn'", domain.ErrInvalidArgument)
		}
		fromDomain, haveDomain = d, true
	}

	switch {
	case haveDomain && haveSource:
		if fromDomain != fromSource {
			return "", fmt.Errorf("%w: domain and source conflict", domain.ErrInvalidArgument)
		}
		return fromDomain, nil
	case haveDomain:
		return fromDomain, nil
	case haveSource:
		return fromSource, nil
	default:
		return domain.DomainCom, nil
	}
}

// FetchingResult is returned while a fallback crawl is in flight.
type FetchingResult struct {
	RetryAfter int
}

// GetDaily resolves domain/date, validates the range, and returns either
// the stored challenge, a FetchingResult (fallback triggered or already in
// flight), or an error.
func (f *DailyFacade) GetDaily(ctx context.Context, domainParam, sourceParam, dateParam string) (*domain.DailyChallenge, *FetchingResult, error) {
	d, err := ResolveDomain(domainParam, sourceParam)
	if err != nil {
		return nil, nil, err
	}

	today := d.Today()
	date := dateParam
	if date == "" {
		date = today
	}

	if !dailyDateRe.MatchString(date) {
		return nil, nil, fmt.Errorf("%w: invalid date format, expected YYYY-MM-DD", domain.ErrInvalidArgument)
	}
	parsed, err := time.ParseInLocation("2006-01-02", date, d.Location())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid calendar date", domain.ErrInvalidArgument)
	}
	lower, _ := time.ParseInLocation("2006-01-02", minDailyDate, d.Location())
	if parsed.Before(lower) {
		return nil, nil, fmt.Errorf("%w: date must be >= %s", domain.ErrInvalidArgument, minDailyDate)
	}
	if parsed.After(d.TodayDate()) {
		return nil, nil, fmt.Errorf("%w: date must be <= today", domain.ErrInvalidArgument)
	}

	challenge, err := f.repo.GetDaily(ctx, string(d), date)
	if err == nil {
		return challenge, nil, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}

	key := fmt.Sprintf("%s:%s", d, date)
	now := time.Now()
	claimed, result := f.fallback.Claim(key, now)
	if result.AlreadyFetching {
		return nil, &FetchingResult{RetryAfter: result.RetryAfter}, nil
	}
	if claimed {
		go f.fallback.Run(context.WithoutCancel(ctx), key, now, string(d), date, date == today)
	}
	return nil, &FetchingResult{RetryAfter: 30}, nil
}
