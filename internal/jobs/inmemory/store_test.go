package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/family-finance/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	assert.Error(t, s.SaveJob(ctx, &jobs.NotificationJob{}))

	job := &jobs.NotificationJob{JobID: "j1", Kind: "invite", Status: jobs.JobStatusPending}
	require.NoError(t, s.SaveJob(ctx, job))

	job.Status = jobs.JobStatusRunning
	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusPending, got.Status, "store keeps its own copy")

	_, err = s.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}

func TestStore_ListJobs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	seed := []*jobs.NotificationJob{
		{JobID: "a", Kind: "invite", UserID: "u1", Status: jobs.JobStatusCompleted, CreatedAt: base},
		{JobID: "b", Kind: "budget_alert", UserID: "u1", Status: jobs.JobStatusFailed, CreatedAt: base.Add(time.Minute)},
		{JobID: "c", Kind: "budget_alert", UserID: "u2", Status: jobs.JobStatusFailed, CreatedAt: base.Add(2 * time.Minute)},
		{JobID: "d", Kind: "goal_alert", UserID: "u2", Status: jobs.JobStatusPending, CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, j := range seed {
		require.NoError(t, s.SaveJob(ctx, j))
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all oldest first", jobs.JobFilter{}, []string{"a", "b", "c", "d"}},
		{"by kind", jobs.JobFilter{Kind: "budget_alert"}, []string{"b", "c"}},
		{"by user", jobs.JobFilter{UserID: "u2"}, []string{"c", "d"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusFailed}, []string{"b", "c"}},
		{"limit", jobs.JobFilter{Limit: 2}, []string{"a", "b"}},
		{"offset", jobs.JobFilter{Offset: 3}, []string{"d"}},
		{"offset past end", jobs.JobFilter{Offset: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			require.NoError(t, err)
			ids := []string{}
			for _, j := range got {
				ids = append(ids, j.JobID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStore_UpdateJobStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.SaveJob(ctx, &jobs.NotificationJob{JobID: "j1", Status: jobs.JobStatusRunning}))

	require.NoError(t, s.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "boom"))
	got, _ := s.GetJob(ctx, "j1")
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	require.NoError(t, s.UpdateJobStatus(ctx, "j1", jobs.JobStatusRetrying, ""))
	got, _ = s.GetJob(ctx, "j1")
	assert.Equal(t, "boom", got.Error)

	got.Status = jobs.JobStatusCompleted
	again, _ := s.GetJob(ctx, "j1")
	assert.Equal(t, jobs.JobStatusRetrying, again.Status)

	assert.ErrorIs(t, s.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""), jobs.ErrJobNotFound)
}
