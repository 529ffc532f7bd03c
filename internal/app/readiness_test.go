package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildReadinessChecks_NilPoolFailsBoth(t *testing.T) {
	dbCheck, vecCheck := BuildReadinessChecks(nil)

	require.Error(t, dbCheck(context.Background()))
	require.Error(t, vecCheck(context.Background()))
}
