package converter

import (
	"errors"
	"strings"
	"testing"

	"pnm2img/netpbm"

	"github.com/google/go-cmp/cmp"
)

func samples(p *Pixels) []int {
	n := p.Width * p.Height * p.Channels
	out := make([]int, n)
	for i := range out {
		out[i] = p.Sample(i)
	}
	return out
}

func decode(t *testing.T, src string) *netpbm.RawImage {
	t.Helper()
	raw, err := netpbm.Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Decode(%q) failed: %v", src, err)
	}
	return raw
}

func TestConvertDepthScenarios(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		depth BitDepth
		want  []int
	}{
		{"P2 to 16-bit", "P2\n2 2\n255\n0 128 255 64\n", Depth16, []int{0, 32896, 65535, 16448}},
		{"P2 to 8-bit is identity", "P2\n2 2\n255\n0 128 255 64\n", Depth8, []int{0, 128, 255, 64}},
		{"P1 to 8-bit inverts", "P1\n2 1\n1 0\n", Depth8, []int{0, 255}},
		{"P1 to 16-bit inverts", "P1\n2 1\n1 0\n", Depth16, []int{0, 65535}},
		{"P4 inverts", "P4\n3 1\n\xa0", Depth8, []int{0, 255, 0}},
		{"P3 keeps channels", "P3\n1 1\n15\n15 0 7\n", Depth8, []int{255, 0, 119}},
		{"maxval 1 graymap is not inverted", "P2\n2 1\n1\n0 1\n", Depth8, []int{0, 255}},
		{"16-bit source to 8-bit", "P5\n2 1\n65535\n\xff\xff\x80\x80", Depth8, []int{255, 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px, err := ConvertDepth(decode(t, tt.src), tt.depth)
			if err != nil {
				t.Fatalf("ConvertDepth failed: %v", err)
			}
			if px.Depth != tt.depth {
				t.Errorf("Depth = %d, want %d", px.Depth, tt.depth)
			}
			if diff := cmp.Diff(tt.want, samples(px)); diff != "" {
				t.Errorf("samples mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConvertDepthRounding(t *testing.T) {
	// 3*255/10 = 76.5 rounds up; 1*255/10 = 25.5 rounds up; 7*255/10 = 178.5.
	raw := &netpbm.RawImage{
		Format: netpbm.PlainPGM, Width: 4, Height: 1, Channels: 1, MaxValue: 10,
		Samples: []uint16{1, 3, 7, 10},
	}
	px, err := ConvertDepth(raw, Depth8)
	if err != nil {
		t.Fatalf("ConvertDepth failed: %v", err)
	}
	if diff := cmp.Diff([]int{26, 77, 179, 255}, samples(px)); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertDepthIdentity(t *testing.T) {
	for _, depth := range []BitDepth{Depth8, Depth16} {
		m := depth.MaxValue()
		raw := &netpbm.RawImage{
			Format: netpbm.RawPGM, Width: 1, Height: 1, Channels: 1, MaxValue: m,
		}
		var want []int
		for s := 0; s <= m; s += max(m/300, 1) {
			raw.Samples = append(raw.Samples, uint16(s))
			want = append(want, s)
		}
		raw.Width = len(raw.Samples)

		px, err := ConvertDepth(raw, depth)
		if err != nil {
			t.Fatalf("ConvertDepth(%d) failed: %v", depth, err)
		}
		if diff := cmp.Diff(want, samples(px)); diff != "" {
			t.Errorf("depth %d not identity (-want +got):\n%s", depth, diff)
		}
	}
}

func TestConvertDepthBounded(t *testing.T) {
	for _, m := range []int{1, 2, 3, 7, 100, 255, 256, 1000, 4095, 65534, 65535} {
		raw := &netpbm.RawImage{
			Format: netpbm.RawPGM, Width: 3, Height: 1, Channels: 1, MaxValue: m,
			Samples: []uint16{0, uint16(m / 2), uint16(m)},
		}
		for _, depth := range []BitDepth{Depth8, Depth16} {
			px, err := ConvertDepth(raw, depth)
			if err != nil {
				t.Fatalf("ConvertDepth(maxval %d, %d) failed: %v", m, depth, err)
			}
			got := samples(px)
			if got[0] != 0 || got[2] != depth.MaxValue() {
				t.Errorf("maxval %d depth %d: endpoints %d, %d", m, depth, got[0], got[2])
			}
			if got[1] < got[0] || got[1] > got[2] {
				t.Errorf("maxval %d depth %d: midpoint %d out of order", m, depth, got[1])
			}
		}
	}
}

func TestConvertDepthDoesNotModifyInput(t *testing.T) {
	raw := decode(t, "P1\n2 1\n1 0\n")
	before := append([]uint16(nil), raw.Samples...)
	if _, err := ConvertDepth(raw, Depth16); err != nil {
		t.Fatalf("ConvertDepth failed: %v", err)
	}
	if diff := cmp.Diff(before, raw.Samples); diff != "" {
		t.Errorf("input modified (-before +after):\n%s", diff)
	}
}

func TestConvertDepthErrors(t *testing.T) {
	valid := func() *netpbm.RawImage {
		return &netpbm.RawImage{
			Format: netpbm.RawPGM, Width: 2, Height: 1, Channels: 1, MaxValue: 255,
			Samples: []uint16{1, 2},
		}
	}

	tests := []struct {
		name  string
		raw   func() *netpbm.RawImage
		depth BitDepth
		kind  ConversionErrorKind
	}{
		{"zero maxval", func() *netpbm.RawImage { r := valid(); r.MaxValue = 0; return r }, Depth8, DivisionByZero},
		{"unsupported depth", valid, BitDepth(12), UnsupportedDepth},
		{"short samples", func() *netpbm.RawImage { r := valid(); r.Samples = r.Samples[:1]; return r }, Depth16, ShapeMismatch},
		{"zero width", func() *netpbm.RawImage { r := valid(); r.Width = 0; r.Samples = nil; return r }, Depth8, ShapeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px, err := ConvertDepth(tt.raw(), tt.depth)
			if err == nil {
				t.Fatal("expected error")
			}
			if px != nil {
				t.Error("partial result returned with error")
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("error %v is not %v", err, tt.kind)
			}
			var convErr *ConversionError
			if !errors.As(err, &convErr) || convErr.Kind != tt.kind {
				t.Errorf("error %v: want ConversionError of kind %v", err, tt.kind)
			}
		})
	}
}

func TestParseBitDepth(t *testing.T) {
	for _, bits := range []int{8, 16} {
		d, err := ParseBitDepth(bits)
		if err != nil || int(d) != bits {
			t.Errorf("ParseBitDepth(%d) = %d, %v", bits, d, err)
		}
	}
	for _, bits := range []int{0, 1, 12, 32} {
		if _, err := ParseBitDepth(bits); !errors.Is(err, UnsupportedDepth) {
			t.Errorf("ParseBitDepth(%d) error = %v, want UnsupportedDepth", bits, err)
		}
	}
}
