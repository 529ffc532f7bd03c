package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTestVecDown = errors.New("sqlite-vec not loaded")

func TestQueryInt(t *testing.T) {
	q := map[string][]string{"page": {"3"}, "bad": {"nope"}}
	require.Equal(t, 3, queryInt(q, "page", 1))
	require.Equal(t, 1, queryInt(q, "missing", 1))
	require.Equal(t, 1, queryInt(q, "bad", 1))
}

func TestSplitCSV(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, splitCSV("a, b ,c"))
	require.Equal(t, []string{}, splitCSV(""))
}

func TestSimilarityQueryFrom(t *testing.T) {
	q := map[string][]string{
		"limit":     {"10"},
		"threshold": {"0.5"},
		"source":    {"leetcode,codeforces"},
	}
	sq := similarityQueryFrom(q)
	require.NotNil(t, sq.Limit)
	require.Equal(t, 10, *sq.Limit)
	require.InDelta(t, float32(0.5), sq.Threshold, 1e-6)
	require.Equal(t, []string{"leetcode", "codeforces"}, sq.Sources)
	require.Equal(t, embedOverFetchFactor, sq.OverFetch)
}

func TestBoolToStatus(t *testing.T) {
	require.Equal(t, "ok", boolToStatus(true))
	require.Equal(t, "unhealthy", boolToStatus(false))
}

func TestHealthzHandler_AllOK(t *testing.T) {
	s := &Server{
		DBCheck:  func(ctx context.Context) error { return nil },
		VecCheck: func(ctx context.Context) error { return nil },
	}
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.HealthzHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzHandler_VecFailureReturns503(t *testing.T) {
	s := &Server{
		DBCheck:  func(ctx context.Context) error { return nil },
		VecCheck: func(ctx context.Context) error { return errTestVecDown },
	}
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.HealthzHandler(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
