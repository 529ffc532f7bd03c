package config

import "testing"

func TestLoadEnv_ErrorOnBadBool(t *testing.T) {
	t.Setenv("OJ_API_TOKEN_AUTH_DEFAULT", "not-a-bool")
	if _, err := LoadEnv(); err == nil {
		t.Fatalf("expected error for bad bool")
	}
}
