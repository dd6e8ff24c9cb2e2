package pkg

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUploader struct {
	folders []string
	paths   []string
	failOn  string
}

func (u *recordingUploader) Upload(_ context.Context, localPath, folder string) error {
	if folder == u.failOn {
		return errors.New("upload refused")
	}
	u.folders = append(u.folders, folder)
	u.paths = append(u.paths, localPath)
	return nil
}

type recordingStore struct {
	runKey       string
	summary      DiscrepancySummary
	observations int
}

func (s *recordingStore) SaveSnapshot(_ context.Context, _ *zerolog.Logger, runKey string, summary DiscrepancySummary, observations []CountryObservation) error {
	s.runKey = runKey
	s.summary = summary
	s.observations = len(observations)
	return nil
}

func fixtureJob(t *testing.T, uploader Uploader, store SnapshotStore) (*Job, string) {
	dir := t.TempDir()
	job, err := NewJob(JobConfig{
		Merger:   fixtureMerger(t),
		TempDir:  dir,
		Uploader: uploader,
		Store:    store,
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return job, dir
}

func TestJobRun(t *testing.T) {
	uploader := &recordingUploader{}
	store := &recordingStore{}
	job, dir := fixtureJob(t, uploader, store)

	result, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "2021-06-01-12-30-45-123456-merged.csv"), result.MergedPath)
	assert.Equal(t, filepath.Join(dir, "2021-06-01-12-30-45-123456-comparison.csv"), result.ComparisonPath)
	assert.Equal(t, []string{MergedFolder, ComparisonFolder}, uploader.folders)
	assert.Equal(t, []string{result.MergedPath, result.ComparisonPath}, uploader.paths)
	assert.Equal(t, uploader.paths, result.Uploaded)

	merged, err := ReadCSV(result.MergedPath)
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Len())
	assert.True(t, merged.HasColumn(ColDiff))

	comparison, err := ReadCSV(result.ComparisonPath)
	require.NoError(t, err)
	require.Equal(t, 1, comparison.Len())
	diff, err := comparison.Value(0, "Total Vax - Diff")
	require.NoError(t, err)
	assert.Equal(t, "10", diff)

	assert.Equal(t, "2021-06-01-12-30-45-123456", store.runKey)
	assert.Equal(t, 3, store.observations)
	assert.Equal(t, result.Summary, store.summary)
}

func TestJobRunWithoutUpload(t *testing.T) {
	job, _ := fixtureJob(t, nil, nil)

	result, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Uploaded)
	assert.Equal(t, 3, result.Summary.TotalCountries)
}

func TestJobRunKeepsFilesOnFailure(t *testing.T) {
	uploader := &recordingUploader{failOn: ComparisonFolder}
	job, _ := fixtureJob(t, uploader, nil)

	result, err := job.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.FileExists(t, result.MergedPath)
	assert.FileExists(t, result.ComparisonPath)
	assert.Equal(t, []string{MergedFolder}, uploader.folders)
}

func TestNewJobValidates(t *testing.T) {
	_, err := NewJob(JobConfig{TempDir: "/tmp"})
	assert.Error(t, err)
	_, err = NewJob(JobConfig{Merger: &Merger{}})
	assert.Error(t, err)
}
