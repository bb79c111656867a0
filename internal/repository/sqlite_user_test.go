package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_FindIDsByNamesFoldsAccentedNames(t *testing.T) {
	repo := NewSQLiteUserRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	emile := &domain.User{Name: "Émile"}
	require.NoError(t, repo.Create(ctx, emile))
	require.NoError(t, repo.Create(ctx, &domain.User{Name: "Emile"}))

	for _, name := range []string{"Émile", "émile", " ÉMILE "} {
		ids, err := repo.FindIDsByNames(ctx, []string{name})
		require.NoError(t, err)
		assert.Equal(t, []int64{emile.ID}, ids, "name=%q", name)
	}
}

func TestUserRepo_ListOrdersByFoldedName(t *testing.T) {
	repo := NewSQLiteUserRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"Zoë", "ärne", "Bo"} {
		require.NoError(t, repo.Create(ctx, &domain.User{Name: name}))
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Name
	}
	assert.Equal(t, []string{"Bo", "Zoë", "ärne"}, names)
}
