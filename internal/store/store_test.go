// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxwei/hlameta/pkg/types"
)

func testSetup(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(ids ...string) types.Snapshot {
	var snap types.Snapshot
	for _, id := range ids {
		rec := types.NewRecord(id, types.SourceForID(id))
		rec.Text.Title = "dataset " + id
		snap.Records = append(snap.Records, rec)
	}
	return snap
}

func TestSaveAndLoadStage(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	runID, err := s.BeginRun(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	snap := testSnapshot("PXD000002", "PXD000001")
	require.NoError(t, s.SaveStage(ctx, runID, "normalize", 1, snap))

	got, err := s.LoadStage(ctx, runID, "normalize")
	require.NoError(t, err)
	require.Len(t, got.Records, 2)
	// Load returns records ordered by identifier.
	assert.Equal(t, "PXD000001", got.Records[0].ID)
	assert.Equal(t, "dataset PXD000002", got.Records[1].Text.Title)
}

func TestSaveStageReplacesPrevious(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	runID, err := s.BeginRun(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SaveStage(ctx, runID, "classify", 2, testSnapshot("PXD000001")))

	updated := testSnapshot("PXD000001")
	updated.Records[0].SetDerived(types.FieldHLAClass, "HLA-I", types.ConfidenceConfirmed, "classify", "class-keywords")
	require.NoError(t, s.SaveStage(ctx, runID, "classify", 2, updated))

	got, err := s.LoadStage(ctx, runID, "classify")
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "HLA-I", got.Records[0].Derived(types.FieldHLAClass).Value)
}

func TestLoadStageMissing(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	runID, err := s.BeginRun(ctx)
	require.NoError(t, err)

	_, err = s.LoadStage(ctx, runID, "score")
	assert.Error(t, err)
}

func TestRunsAreIsolated(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	first, err := s.BeginRun(ctx)
	require.NoError(t, err)
	second, err := s.BeginRun(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.NoError(t, s.SaveStage(ctx, first, "normalize", 1, testSnapshot("PXD000001")))
	require.NoError(t, s.SaveStage(ctx, second, "normalize", 1, testSnapshot("PXD000001", "PXD000002")))

	got, err := s.LoadStage(ctx, first, "normalize")
	require.NoError(t, err)
	assert.Len(t, got.Records, 1)
}

func TestListRunsAndStageHistory(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	runID, err := s.BeginRun(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SaveStage(ctx, runID, "normalize", 1, testSnapshot("PXD000001")))
	require.NoError(t, s.SaveStage(ctx, runID, "classify", 2, testSnapshot("PXD000001")))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, 2, runs[0].Stages)

	stages, err := s.StageHistory(ctx, runID)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "normalize", stages[0].Stage)
	assert.Equal(t, "classify", stages[1].Stage)
	assert.Equal(t, 1, stages[1].RecordCount)
}

func TestLatestRun(t *testing.T) {
	s := testSetup(t)
	ctx := context.Background()

	_, err := s.LatestRun(ctx)
	assert.Error(t, err, "empty store has no latest run")

	runID, err := s.BeginRun(ctx)
	require.NoError(t, err)

	got, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, runID, got)
}
