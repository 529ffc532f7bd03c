// Package supervisor implements the singleton job slots that run crawler and
// embedding subprocesses, plus the daily-fallback crawl path.
package supervisor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

// ValidateArgs checks raw CLI args against source's declared ArgSpec table:
// every flag must be known, appear at most once, carry exactly as many
// values as its arity declares, and have values that parse under its
// ValueType. It returns the validated args unchanged (not a copy with
// defaults injected — the original crawler scripts own their own defaults).
func ValidateArgs(source domain.CrawlerSource, rawArgs []string) ([]string, error) {
	specs := source.ArgSpecs()
	seen := make(map[string]bool, len(specs))

	for i := 0; i < len(rawArgs); {
		token := rawArgs[i]
		if !strings.HasPrefix(token, "--") {
			return nil, fmt.Errorf("%w: unexpected value without flag: %s", domain.ErrInvalidArgument, token)
		}

		var spec *domain.ArgSpec
		for j := range specs {
			if specs[j].Flag == token {
				spec = &specs[j]
				break
			}
		}
		if spec == nil {
			return nil, fmt.Errorf("%w: unknown argument: %s", domain.ErrInvalidArgument, token)
		}
		if seen[spec.Flag] {
			return nil, fmt.Errorf("%w: duplicate argument: %s", domain.ErrInvalidArgument, token)
		}
		seen[spec.Flag] = true

		arity := spec.Arity
		if i+arity >= len(rawArgs) {
			return nil, fmt.Errorf("%w: %s requires %d value(s)", domain.ErrInvalidArgument, token, arity)
		}

		if err := validateValue(*spec, rawArgs, i); err != nil {
			return nil, err
		}

		i += 1 + arity
	}

	return rawArgs, nil
}

func validateValue(spec domain.ArgSpec, rawArgs []string, i int) error {
	switch spec.ValueType {
	case domain.ValueNone:
		return nil
	case domain.ValueDate:
		v := rawArgs[i+1]
		if _, err := parseDate(v); err != nil {
			return fmt.Errorf("%w: %s: invalid date '%s', expected YYYY-MM-DD", domain.ErrInvalidArgument, spec.Flag, v)
		}
	case domain.ValueInt:
		v := rawArgs[i+1]
		if _, err := strconv.ParseUint(v, 10, 64); err != nil {
			return fmt.Errorf("%w: %s: invalid integer '%s'", domain.ErrInvalidArgument, spec.Flag, v)
		}
	case domain.ValueFloat:
		v := rawArgs[i+1]
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || !isFinitePositive(f) {
			return fmt.Errorf("%w: %s: invalid positive float '%s'", domain.ErrInvalidArgument, spec.Flag, v)
		}
	case domain.ValueStr:
		v := rawArgs[i+1]
		if v == "" {
			return fmt.Errorf("%w: %s: value must not be empty", domain.ErrInvalidArgument, spec.Flag)
		}
		if spec.Flag == "--data-dir" || spec.Flag == "--db-path" {
			if strings.HasPrefix(v, "/") {
				return fmt.Errorf("%w: %s: must be a relative path", domain.ErrInvalidArgument, spec.Flag)
			}
			if strings.Contains(v, "..") {
				return fmt.Errorf("%w: %s: must not contain '..'", domain.ErrInvalidArgument, spec.Flag)
			}
		}
	case domain.ValueDomain:
		v := rawArgs[i+1]
		if v != "com" && v != "cn" {
			return fmt.Errorf("%w: %s: invalid domain '%s', expected 'com' or 'cn'", domain.ErrInvalidArgument, spec.Flag, v)
		}
	case domain.ValueYearMonth:
		yv, mv := rawArgs[i+1], rawArgs[i+2]
		year, err := strconv.Atoi(yv)
		if err != nil {
			return fmt.Errorf("%w: %s: invalid year '%s'", domain.ErrInvalidArgument, spec.Flag, yv)
		}
		month, err := strconv.Atoi(mv)
		if err != nil {
			return fmt.Errorf("%w: %s: invalid month '%s'", domain.ErrInvalidArgument, spec.Flag, mv)
		}
		if year < 2000 || year > 2100 {
			return fmt.Errorf("%w: %s: year must be between 2000 and 2100", domain.ErrInvalidArgument, spec.Flag)
		}
		if month < 1 || month > 12 {
			return fmt.Errorf("%w: %s: month must be between 1 and 12", domain.ErrInvalidArgument, spec.Flag)
		}
	}
	return nil
}

func isFinitePositive(f float64) bool {
	return f > 0 && f < 1e308 && f == f
}
