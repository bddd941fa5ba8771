package token

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/iamasit07/cartline/backend/internal/cache"
	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	id  int64
	err error
}

func (s stubLookup) LookupToken(context.Context, string) (int64, error) { return s.id, s.err }

type stubVerifier struct {
	id    int64
	err   error
	calls int
}

func (s *stubVerifier) VerifyToken(context.Context, string) (int64, error) {
	s.calls++
	return s.id, s.err
}

func TestResolver_Sources(t *testing.T) {
	tests := []struct {
		name       string
		lookup     stubLookup
		verifier   stubVerifier
		want       domain.Resolution
		wantErr    error
		wantVerify int
	}{
		{
			name:   "cache hit",
			lookup: stubLookup{id: 1},
			want:   domain.Resolution{UserID: 1, Source: domain.SourceCache},
		},
		{
			name:       "cache miss falls through",
			lookup:     stubLookup{err: ErrNotCached},
			verifier:   stubVerifier{id: 2},
			want:       domain.Resolution{UserID: 2, Source: domain.SourceRemote},
			wantVerify: 1,
		},
		{
			name:       "cache down falls through",
			lookup:     stubLookup{err: fmt.Errorf("%w: refused", cache.ErrUnavailable)},
			verifier:   stubVerifier{id: 3},
			want:       domain.Resolution{UserID: 3, Source: domain.SourceRemote},
			wantVerify: 1,
		},
		{
			name:       "verifier rejects",
			lookup:     stubLookup{err: ErrNotCached},
			verifier:   stubVerifier{err: errors.New("connection refused")},
			wantErr:    domain.ErrInvalidToken,
			wantVerify: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.verifier
			r := NewResolver(tt.lookup, &v, domain.SourceRemote, logging.Discard())
			got, err := r.Resolve(context.Background(), "tok")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.wantVerify, v.calls)
		})
	}
}
