// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/nutechnocrats/clubhub/internal/models"
	"codeberg.org/nutechnocrats/clubhub/internal/testutil"
)

func TestUserStats(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	dept := testutil.FirstDepartment(t, repo)

	testutil.NewTestUser(t, repo, "a@x.edu", testutil.Verified(), testutil.WithDepartment(dept.ID))
	testutil.NewTestUser(t, repo, "b@x.edu", testutil.WithStatus(models.StatusActive), testutil.WithRole(models.RoleMember))
	testutil.NewTestUser(t, repo, "c@x.edu", testutil.Inactive())

	stats, err := repo.UserStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Active)
	assert.Equal(t, int64(1), stats.Inactive)
	assert.Equal(t, int64(1), stats.Verified)
	assert.Equal(t, int64(2), stats.Unverified)
	assert.Equal(t, int64(1), stats.ActiveMembers)
	assert.Equal(t, int64(2), stats.PendingApplications)
	assert.Equal(t, int64(3), stats.RecentRegistrations)
	assert.Equal(t, int64(5), stats.TotalDepartments)
	assert.Len(t, stats.RecentUsers, 3)

	assert.Equal(t, models.Count{Key: "student", Count: 2}, stats.ByRole[0])
	assert.Contains(t, stats.ByDepartment, models.Count{Key: "Unassigned", Count: 2})
	assert.Contains(t, stats.ByDepartment, models.Count{Key: dept.Name, Count: 1})
	require.Len(t, stats.MonthlyGrowth, 1)
	assert.Equal(t, int64(3), stats.MonthlyGrowth[0].Count)
}

func TestUserStats_Empty(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	stats, err := repo.UserStats(context.Background())

	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.ByRole)
	assert.NotNil(t, stats.RecentUsers)
}
