package pdf_writer

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/klauspost/compress/zlib"
)

// PDFWriter streams images into a PDF, one image per page. Image objects are
// written as they arrive; pages, the page tree and the catalog are written by
// Finish.
type PDFWriter struct {
	objects    []int64
	imageInfos []ImageInfo
	bw         *bufio.Writer
	cw         *countingWriter
	objNum     int

	pagesObjID   int64
	pageIDs      []int64
	catalogObjID int64
}

// ImageInfo records an image object and the page size, in points, it is
// drawn at.
type ImageInfo struct {
	id     int64
	width  float64
	height float64
}

type countingWriter struct {
	w      io.Writer
	offset int64
}

func NewPDFWriter(dst io.Writer) (*PDFWriter, error) {
	cw := &countingWriter{
		w: dst,
	}
	pw := &PDFWriter{
		cw: cw,
		bw: bufio.NewWriterSize(cw, 1024*1024),
	}

	if _, err := pw.bw.WriteString("%PDF-1.7\n%\xFF\xFF\xFF\xFF\n"); err != nil {
		return nil, fmt.Errorf("error writing PDF header: %v", err)
	}
	return pw, nil
}

func (cw *countingWriter) Write(p []byte) (n int, err error) {
	n, err = cw.w.Write(p)
	cw.offset += int64(n)
	return n, err
}

func (pw *PDFWriter) getOffset() int64 {
	return pw.cw.offset + int64(pw.bw.Buffered())
}

func (pw *PDFWriter) newObject() int64 {
	pw.objNum++
	pw.objects = append(pw.objects, pw.getOffset())
	fmt.Fprintf(pw.bw, "%d 0 obj\n", pw.objNum)
	return int64(pw.objNum)
}

// raster is an image flattened to PDF sample order.
type raster struct {
	width      int
	height     int
	colorSpace string
	bpc        int
	data       []byte
}

// rasterOf extracts interleaved samples from img. Gray and RGB images at 8 or
// 16 bits keep their depth; alpha is dropped. Any other image is converted to
// 8-bit RGB.
func rasterOf(img image.Image) raster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch m := img.(type) {
	case *image.Gray:
		data := make([]byte, 0, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := m.PixOffset(b.Min.X, y)
			data = append(data, m.Pix[i:i+w]...)
		}
		return raster{w, h, "DeviceGray", 8, data}
	case *image.Gray16:
		data := make([]byte, 0, 2*w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := m.PixOffset(b.Min.X, y)
			data = append(data, m.Pix[i:i+2*w]...)
		}
		return raster{w, h, "DeviceGray", 16, data}
	case *image.RGBA64:
		data := make([]byte, 0, 6*w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				i := m.PixOffset(x, y)
				data = append(data, m.Pix[i:i+6]...)
			}
		}
		return raster{w, h, "DeviceRGB", 16, data}
	}

	data := make([]byte, 0, 3*w*h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			data = append(data, c.R, c.G, c.B)
		}
	}
	return raster{w, h, "DeviceRGB", 8, data}
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteImage adds img on its own page. The page measures the image's pixel
// size at dpi dots per inch.
func (pw *PDFWriter) WriteImage(img image.Image, dpi float64) error {
	if dpi <= 0 {
		return fmt.Errorf("invalid dpi %v", dpi)
	}
	r := rasterOf(img)
	data, err := deflate(r.data)
	if err != nil {
		return fmt.Errorf("error compressing image data: %v", err)
	}
	pw.writeRasterImage(r, data, float64(r.width)*72/dpi, float64(r.height)*72/dpi)
	return nil
}

func (pw *PDFWriter) writeRasterImage(r raster, data []byte, pageWidth, pageHeight float64) {
	imgID := pw.newObject()
	pw.imageInfos = append(pw.imageInfos, ImageInfo{
		id:     imgID,
		width:  pageWidth,
		height: pageHeight,
	})
	pw.bw.WriteString("<<\n/Type /XObject\n/Subtype /Image\n")
	fmt.Fprintf(pw.bw, "/Width %d\n/Height %d\n", r.width, r.height)
	fmt.Fprintf(pw.bw, "/ColorSpace /%s\n/BitsPerComponent %d\n", r.colorSpace, r.bpc)
	pw.bw.WriteString("/Filter /FlateDecode\n")

	fmt.Fprintf(pw.bw, "/Length %d\n", len(data))
	pw.bw.WriteString(">>\nstream\n")
	pw.bw.Write(data)
	pw.bw.WriteString("\nendstream\nendobj\n")
}

func (pw *PDFWriter) writeContent(imgName string, width, height float64) int64 {
	content := fmt.Sprintf(
		"q\n%.2f 0 0 %.2f 0 0 cm\n/%s Do\nQ\n",
		width, height, imgName,
	)
	objID := pw.newObject()
	pw.bw.WriteString("<<\n")
	fmt.Fprintf(pw.bw, "/Length %d\n", len(content))
	pw.bw.WriteString(">>\n")
	pw.bw.WriteString("stream\n")
	pw.bw.WriteString(content)
	pw.bw.WriteString("endstream\nendobj\n")
	return objID
}

func (pw *PDFWriter) writePage(imgName string,
	imgObjID int64,
	contentID int64,
	width, height float64) int64 {
	objID := pw.newObject()
	pw.bw.WriteString("<<\n")
	pw.bw.WriteString("/Type /Page\n")
	fmt.Fprintf(pw.bw, "/Parent %d 0 R\n", pw.pagesObjID)
	fmt.Fprintf(pw.bw, "/MediaBox [0 0 %.2f %.2f]\n", width, height)
	fmt.Fprintf(pw.bw, "/Resources << /XObject << /%s %d 0 R >> >>\n", imgName, imgObjID)
	fmt.Fprintf(pw.bw, "/Contents %d 0 R\n", contentID)
	pw.bw.WriteString(">>\nendobj\n")
	return objID
}

func (pw *PDFWriter) createDocumentStructure() error {
	// Pages is numbered now so each Page can name its parent; its offset is
	// filled in when it is written after the pages.
	pw.objNum++
	pw.pagesObjID = int64(pw.objNum)
	pw.objects = append(pw.objects, 0)

	for i, info := range pw.imageInfos {
		imgName := fmt.Sprintf("img_%d", i)
		contentID := pw.writeContent(imgName, info.width, info.height)
		pageID := pw.writePage(imgName, info.id, contentID, info.width, info.height)
		pw.pageIDs = append(pw.pageIDs, pageID)
	}

	pw.objects[pw.pagesObjID-1] = pw.getOffset()
	fmt.Fprintf(pw.bw, "%d 0 obj\n", pw.pagesObjID)
	pw.bw.WriteString("<<\n")
	pw.bw.WriteString("/Type /Pages\n")
	fmt.Fprintf(pw.bw, "/Count %d\n", len(pw.pageIDs))
	pw.bw.WriteString("/Kids [")
	for _, id := range pw.pageIDs {
		fmt.Fprintf(pw.bw, " %d 0 R", id)
	}
	pw.bw.WriteString(" ]\n>>\nendobj\n")

	pw.catalogObjID = pw.newObject()
	pw.bw.WriteString("<<\n")
	fmt.Fprintf(pw.bw, "/Type /Catalog\n/Pages %d 0 R\n", pw.pagesObjID)
	pw.bw.WriteString(">>\nendobj\n")

	if err := pw.bw.Flush(); err != nil {
		return fmt.Errorf("error flushing buffer after creating structure: %v", err)
	}
	return nil
}

// Finish writes the page tree, cross-reference table and trailer. The writer
// must not be used afterwards.
func (pw *PDFWriter) Finish() error {
	if err := pw.createDocumentStructure(); err != nil {
		return fmt.Errorf("failed to create document structure before finishing: %v", err)
	}

	startXref := pw.cw.offset
	total := len(pw.objects) + 1

	if _, err := fmt.Fprintf(pw.cw.w, "xref\n0 %d\n", total); err != nil {
		return fmt.Errorf("error writing xref header: %v", err)
	}
	if _, err := fmt.Fprintf(pw.cw.w, "%010d %05d f \n", 0, 65535); err != nil {
		return fmt.Errorf("error writing free object xref entry: %v", err)
	}
	for _, off := range pw.objects {
		if _, err := fmt.Fprintf(pw.cw.w, "%010d %05d n \n", off, 0); err != nil {
			return fmt.Errorf("error writing object xref entry: %v", err)
		}
	}

	if _, err := fmt.Fprintf(pw.cw.w,
		"trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		total, pw.catalogObjID, startXref,
	); err != nil {
		return fmt.Errorf("error writing trailer and startxref: %v", err)
	}

	return nil
}
