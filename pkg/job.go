package pkg

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/context"
)

const (
	MergedFolder     = "merged"
	ComparisonFolder = "comparison"
)

// JobConfig wires the collaborators of a comparison run. Uploader and Store are optional.
type JobConfig struct {
	Merger   *Merger
	TempDir  string
	Uploader Uploader
	Store    SnapshotStore
	Now      func() time.Time
	Logger   *zerolog.Logger
}

type Job struct {
	JobConfig
}

// RunResult is what a run produced.
type RunResult struct {
	MergedPath     string               `yaml:"merged_path"`
	ComparisonPath string               `yaml:"comparison_path"`
	Uploaded       []string             `yaml:"uploaded,omitempty"`
	Summary        DiscrepancySummary   `yaml:"summary"`
	Observations   []CountryObservation `yaml:"-"`
}

func NewJob(cfg JobConfig) (*Job, error) {
	if cfg.Merger == nil {
		return nil, errors.New("merger is required")
	}
	if cfg.TempDir == "" {
		return nil, errors.New("temp dir is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Logger = loggerOrNop(cfg.Logger)
	return &Job{cfg}, nil
}

// Run merges the sources, writes and uploads the merged table, then summarizes it and
// writes and uploads the comparison. Any failure ends the run; files written before it stay.
func (j *Job) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	merged, err := j.Merger.GetMergedTable(ctx)
	if err != nil {
		return nil, err
	}
	result.MergedPath = filepath.Join(j.TempDir, SnapshotName(j.Now(), MergedFolder))
	if err := WriteCSV(result.MergedPath, merged); err != nil {
		j.Logger.Err(err).Str("path", result.MergedPath).Msg("Failed to write merged file")
		return result, err
	}
	if err := j.upload(ctx, result, result.MergedPath, MergedFolder); err != nil {
		return result, err
	}

	result.Observations, err = Observations(merged)
	if err != nil {
		j.Logger.Err(err).Msg("Failed to read observations from merged table")
		return result, err
	}
	result.Summary = Summarize(result.Observations, ReportTime(j.Now(), j.Logger))
	j.Logger.Info().Int("countries", result.Summary.TotalCountries).
		Int("totals_matching", result.Summary.Matching.Count).
		Int("owid_greater", result.Summary.OWIDGreater.Count).
		Int("owid_lesser", result.Summary.OWIDLesser.Count).
		Int64("diff", result.Summary.Diff).
		Msg("Computed discrepancy summary")

	result.ComparisonPath = filepath.Join(j.TempDir, SnapshotName(j.Now(), ComparisonFolder))
	if err := WriteCSV(result.ComparisonPath, result.Summary.Table()); err != nil {
		j.Logger.Err(err).Str("path", result.ComparisonPath).Msg("Failed to write comparison file")
		return result, err
	}
	if err := j.upload(ctx, result, result.ComparisonPath, ComparisonFolder); err != nil {
		return result, err
	}

	if j.Store != nil {
		runKey := strings.TrimSuffix(filepath.Base(result.ComparisonPath), "-"+ComparisonFolder+".csv")
		if err := j.Store.SaveSnapshot(ctx, j.Logger, runKey, result.Summary, result.Observations); err != nil {
			j.Logger.Err(err).Str("run", runKey).Msg("Failed to save run snapshot")
			return result, err
		}
		j.Logger.Info().Str("run", runKey).Msg("Saved run snapshot")
	}
	return result, nil
}

func (j *Job) upload(ctx context.Context, result *RunResult, localPath, folder string) error {
	if j.Uploader == nil {
		return nil
	}
	if err := j.Uploader.Upload(ctx, localPath, folder); err != nil {
		j.Logger.Err(err).Str("path", localPath).Str("folder", folder).Msg("Failed to upload file")
		return err
	}
	result.Uploaded = append(result.Uploaded, localPath)
	j.Logger.Info().Str("folder", folder).Msgf("Uploaded %s file to S3", folder)
	return nil
}
