package netpbm

// RawImage is a parsed Netpbm raster before depth conversion. Samples are
// row-major and channel-interleaved, len(Samples) == Width*Height*Channels,
// and every sample lies in [0, MaxValue]. For bitmap formats MaxValue is 1 and
// a sample of 1 means black.
type RawImage struct {
	Format   Format
	Width    int
	Height   int
	Channels int
	MaxValue int
	Samples  []uint16
}

// At returns sample c of the pixel at (x, y).
func (m *RawImage) At(x, y, c int) uint16 {
	return m.Samples[(y*m.Width+x)*m.Channels+c]
}
