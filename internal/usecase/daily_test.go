package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

func TestResolveDomain(t *testing.T) {
	cases := []struct {
		name        string
		domainParam string
		sourceParam string
		want        domain.LeetCodeDomain
		wantErr     bool
	}{
		{"defaults to com", "", "", domain.DomainCom, false},
		{"domain only", "cn", "", domain.DomainCn, false},
		{"source only", "", "leetcode.cn", domain.DomainCn, false},
		{"agreeing domain and source", "com", "leetcode.com", domain.DomainCom, false},
		{"conflicting domain and source", "cn", "leetcode.com", "", true},
		{"invalid domain", "de", "", "", true},
		{"invalid source", "", "leetcode.de", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveDomain(tc.domainParam, tc.sourceParam)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
