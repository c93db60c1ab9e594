package converter

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"pnm2img/contracts"
	"pnm2img/files_manager"
	"pnm2img/image_writer"
	"pnm2img/netpbm"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type batch struct {
	cfg    contracts.Config
	depths []BitDepth
	opts   image_writer.Options
	album  *album
	logger *zap.SugaredLogger
}

// RunBatch converts every file in files according to cfg. Files are processed
// concurrently, at most cfg.Workers at a time; a failure in one file never
// stops the others. The returned report holds one result per file, in input
// order. An error is returned only when the run cannot start at all.
//
// Cancelling ctx stops files that have not started yet. Files already in
// progress run to completion.
func RunBatch(ctx context.Context, files []string, cfg contracts.Config, logger *zap.SugaredLogger) (*contracts.BatchReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	depths := make([]BitDepth, 0, len(cfg.BitDepths))
	for _, bits := range cfg.BitDepths {
		d, err := ParseBitDepth(bits)
		if err != nil {
			return nil, err
		}
		depths = append(depths, d)
	}
	if err := files_manager.EnsureDir(cfg.TargetDir); err != nil {
		return nil, err
	}

	report := &contracts.BatchReport{
		RunID: uuid.NewString(),
		Files: make([]contracts.FileResult, len(files)),
		Album: cfg.Album,
	}
	b := &batch{
		cfg:    cfg,
		depths: depths,
		opts:   image_writer.Options{JpegQuality: cfg.JpegQuality, DPI: cfg.DPI},
		logger: logger.With("run", report.RunID),
	}
	conflicts, err := b.planOutputs(files)
	if err != nil {
		return nil, err
	}
	if cfg.Album != "" {
		b.album = newAlbum(cfg.Album, cfg.DPI, len(files))
	}

	b.logger.Debugw("Starting batch", "files", len(files), "workers", cfg.Workers)

	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i, file := range files {
		if err := conflicts[i]; err != nil {
			report.Files[i] = b.notStarted(i, file, err)
			b.logger.Errorw("Conversion skipped", "file", file, "error", err)
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Files[i] = b.notStarted(i, file, err)
			continue
		}
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				report.Files[i] = b.notStarted(i, file, err)
				return nil
			}
			report.Files[i] = b.processFile(i, file)
			return nil
		})
	}
	g.Wait()

	if err := b.album.finish(); err != nil {
		report.AlbumErr = err
		b.logger.Errorw("Album failed", "album", cfg.Album, "error", err)
	} else if cfg.Album != "" {
		b.logger.Infow("Album written", "album", cfg.Album)
	}

	if cfg.DeleteSource {
		b.deleteSources(report)
	}
	return report, nil
}

func (b *batch) notStarted(index int, file string, err error) contracts.FileResult {
	b.album.skip(index)
	return contracts.FileResult{Source: file, Stage: contracts.StageDispatch, Err: err}
}

// outputPaths lists every path processFile may write for source.
func (b *batch) outputPaths(source string) ([]string, error) {
	dir := files_manager.OutputDir(b.cfg.TargetDir, source)
	base := files_manager.BaseName(source)
	var paths []string
	for _, d := range b.depths {
		name := fmt.Sprintf("%s-%dbit", base, int(d))
		for _, format := range b.cfg.OutputFormats {
			exts, err := image_writer.Extensions(format)
			if err != nil {
				return nil, err
			}
			for _, ext := range exts {
				paths = append(paths, filepath.Join(dir, name+ext))
			}
		}
		if b.cfg.Thumbnail > 0 {
			paths = append(paths, filepath.Join(dir, name+"-thumb.png"))
		}
	}
	return paths, nil
}

// planOutputs returns, per file, the ErrOutputConflict that keeps it from
// running: one of its outputs is already claimed by an earlier file, or is
// itself an input of the batch.
func (b *batch) planOutputs(files []string) ([]error, error) {
	sources := make(map[string]bool, len(files))
	for _, file := range files {
		sources[absPath(file)] = true
	}
	owners := make(map[string]string)
	conflicts := make([]error, len(files))
	for i, file := range files {
		paths, err := b.outputPaths(file)
		if err != nil {
			return nil, err
		}
		for j, p := range paths {
			p = absPath(p)
			paths[j] = p
			if owner, ok := owners[p]; ok {
				conflicts[i] = fmt.Errorf("%w: %s is also written for %s", ErrOutputConflict, p, owner)
				break
			}
			if sources[p] {
				conflicts[i] = fmt.Errorf("%w: %s is an input", ErrOutputConflict, p)
				break
			}
		}
		if conflicts[i] != nil {
			continue
		}
		for _, p := range paths {
			owners[p] = file
		}
	}
	return conflicts, nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func decodeFile(path string) (*netpbm.RawImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()
	return netpbm.Decode(f)
}

func (b *batch) processFile(index int, path string) (res contracts.FileResult) {
	logger := b.logger.With("file", path)
	res = contracts.FileResult{Source: path, Stage: contracts.StageParse}

	queued := false
	defer func() {
		if !queued {
			b.album.skip(index)
		}
		if res.Err != nil {
			logger.Errorw("Conversion failed", "stage", res.Stage, "error", res.Err)
		}
	}()

	logger.Infof("Parsing %s", path)
	raw, err := decodeFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Format = raw.Format.String()
	res.Width, res.Height, res.MaxValue = raw.Width, raw.Height, raw.MaxValue
	logger.Debugw("Parsed", "format", res.Format, "width", raw.Width, "height", raw.Height, "maxval", raw.MaxValue)

	res.Stage = contracts.StageConvert
	dir := files_manager.OutputDir(b.cfg.TargetDir, path)
	base := files_manager.BaseName(path)
	var images []contracts.Image
	var albumImg image.Image
	for _, d := range b.depths {
		px, err := ConvertDepth(raw, d)
		if err != nil {
			res.Err = err
			return res
		}
		img := contracts.Image{
			Name:   fmt.Sprintf("%s-%dbit", base, int(d)),
			Dir:    dir,
			Source: path,
			Depth:  int(d),
			Img:    px.Image(),
		}
		images = append(images, img)
		if d == Depth8 {
			albumImg = img.Img
		}
	}

	if b.album != nil {
		if albumImg == nil {
			px, err := ConvertDepth(raw, Depth8)
			if err != nil {
				res.Err = err
				return res
			}
			albumImg = px.Image()
		}
		queued = true
		if err := b.album.add(index, albumImg); err != nil {
			logger.Warnw("Image left out of album", "error", err)
		}
	}

	res.Stage = contracts.StageSave
	for _, img := range images {
		for _, format := range b.cfg.OutputFormats {
			out, err := image_writer.Save(img, format, b.opts)
			if err != nil {
				res.Err = fmt.Errorf("%s: %w", img.Name, err)
				return res
			}
			res.Outputs = append(res.Outputs, out)
			logger.Debugw("Saved", "output", out)
		}
		if b.cfg.Thumbnail > 0 {
			out, err := image_writer.SaveThumbnail(img, b.cfg.Thumbnail)
			if err != nil {
				res.Err = fmt.Errorf("%s: %w", img.Name, err)
				return res
			}
			res.Outputs = append(res.Outputs, out)
		}
	}

	logger.Infof("Done %s (%d outputs)", path, len(res.Outputs))
	return res
}

// deleteSources removes the sources of fully converted files. Nothing is
// deleted when the album failed, since the album may be the only output.
func (b *batch) deleteSources(report *contracts.BatchReport) {
	if report.AlbumErr != nil {
		b.logger.Warnw("Keeping source files because the album failed")
		return
	}
	for i := range report.Files {
		res := &report.Files[i]
		if !res.OK() {
			continue
		}
		if err := files_manager.DeleteSource(res.Source); err != nil {
			res.Stage = contracts.StageDelete
			res.Err = err
			b.logger.Errorw("Delete failed", "file", res.Source, "error", err)
			continue
		}
		res.Deleted = true
		b.logger.Debugw("Deleted source", "file", res.Source)
	}
}
