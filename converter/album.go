package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/phpdave11/gofpdf"
)

type albumPage struct {
	imageId    string
	imgBuffer  *bytes.Buffer
	drawWidth  float64
	drawHeight float64
	pageIndex  int
}

// album collects one page per input file into a PDF. Pages arrive from the
// workers in any order and are placed in input order; a file that produced no
// image sends a page with a nil buffer so later pages are not held back.
type album struct {
	path  string
	dpi   float64
	pages chan albumPage
	done  chan error
}

func newAlbum(path string, dpi float64, files int) *album {
	a := &album{
		path:  path,
		dpi:   dpi,
		pages: make(chan albumPage, files),
		done:  make(chan error, 1),
	}
	go a.assemble()
	return a
}

// add encodes img as PNG and queues it as page index. A nil album ignores
// the call.
func (a *album) add(index int, img image.Image) error {
	if a == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		a.skip(index)
		return fmt.Errorf("encode album page: %w", err)
	}
	bounds := img.Bounds()
	a.pages <- albumPage{
		imageId:    fmt.Sprintf("img_%d", index),
		imgBuffer:  &buf,
		drawWidth:  float64(bounds.Dx()) * 25.4 / a.dpi,
		drawHeight: float64(bounds.Dy()) * 25.4 / a.dpi,
		pageIndex:  index,
	}
	return nil
}

func (a *album) skip(index int) {
	if a == nil {
		return
	}
	a.pages <- albumPage{pageIndex: index}
}

// finish waits for every queued page and writes the PDF.
func (a *album) finish() error {
	if a == nil {
		return nil
	}
	close(a.pages)
	return <-a.done
}

func (a *album) assemble() {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "mm"})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	resultsBuffer := make(map[int]albumPage)
	nextIndex := 0
	pageCount := 0

	for page := range a.pages {
		resultsBuffer[page.pageIndex] = page

		for {
			result, ok := resultsBuffer[nextIndex]
			if !ok {
				break
			}
			delete(resultsBuffer, nextIndex)
			nextIndex++
			if result.imgBuffer == nil {
				continue
			}

			opts := gofpdf.ImageOptions{
				ImageType: "PNG",
				ReadDpi:   false,
			}
			pdf.AddPageFormat("P", gofpdf.SizeType{Wd: result.drawWidth, Ht: result.drawHeight})
			pdf.RegisterImageOptionsReader(result.imageId, opts, result.imgBuffer)
			pdf.ImageOptions(result.imageId, 0, 0, result.drawWidth, result.drawHeight, false, opts, 0, "")
			pageCount++
		}
	}

	if pageCount == 0 {
		a.done <- fmt.Errorf("no images to place in album")
		return
	}
	if err := pdf.OutputFileAndClose(a.path); err != nil {
		a.done <- fmt.Errorf("error saving PDF file: %w", err)
		return
	}
	a.done <- nil
}
