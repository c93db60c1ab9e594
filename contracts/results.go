package contracts

import (
	"fmt"
	"image"

	"go.uber.org/multierr"
)

// Image is a converted raster paired with the name and directory it is saved
// under.
type Image struct {
	Name   string
	Dir    string
	Source string
	Depth  int
	Img    image.Image
}

type Stage string

const (
	StageDispatch Stage = "dispatch"
	StageParse    Stage = "parse"
	StageConvert  Stage = "convert"
	StageSave     Stage = "save"
	StageDelete   Stage = "delete"
)

// FileResult describes what happened to one input file.
type FileResult struct {
	Source   string
	Format   string
	Width    int
	Height   int
	MaxValue int
	Outputs  []string
	Deleted  bool
	Stage    Stage
	Err      error
}

func (r FileResult) OK() bool {
	return r.Err == nil
}

// BatchReport collects the per-file results of a run in input order.
type BatchReport struct {
	RunID    string
	Files    []FileResult
	Album    string
	AlbumErr error
}

func (b *BatchReport) Failed() []FileResult {
	var failed []FileResult
	for _, f := range b.Files {
		if !f.OK() {
			failed = append(failed, f)
		}
	}
	return failed
}

// Err combines every failure of the run, or returns nil if there were none.
func (b *BatchReport) Err() error {
	var err error
	for _, f := range b.Files {
		if !f.OK() {
			err = multierr.Append(err, fmt.Errorf("%s: %s: %w", f.Source, f.Stage, f.Err))
		}
	}
	if b.AlbumErr != nil {
		err = multierr.Append(err, fmt.Errorf("album %s: %w", b.Album, b.AlbumErr))
	}
	return err
}
