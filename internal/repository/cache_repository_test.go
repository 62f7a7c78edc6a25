package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	require.ErrorIs(t, repo.Get(ctx, "therapy:report:r1", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "therapy:report:r1", map[string]string{"id": "r1"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "therapy:patient:p1:reports*"))
	require.NoError(t, repo.Delete(ctx, "therapy:report:r1"))
	require.NoError(t, repo.Close())
}
