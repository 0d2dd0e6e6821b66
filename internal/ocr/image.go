package ocr

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder

	"github.com/joseph-ayodele/expense-ocr/constants"
	"github.com/joseph-ayodele/expense-ocr/internal/common"
)

const DefaultMinWidth = 1200

// 3x3 edge-enhancing kernel, normalized by its sum (16).
var sharpenKernel = [9]float64{
	-2, -2, -2,
	-2, 32, -2,
	-2, -2, -2,
}

// Normalizer prepares phone photos and scans for OCR.
type Normalizer struct {
	minWidth   int
	enableHEIC bool
}

func NewNormalizer(minWidth int, enableHEIC bool) *Normalizer {
	if minWidth <= 0 {
		minWidth = DefaultMinWidth
	}
	return &Normalizer{minWidth: minWidth, enableHEIC: enableHEIC}
}

// Decode decodes raw image bytes so the pixel buffer is visually upright. JPEG
// photos get their EXIF orientation applied. HEIC photos carry orientation in
// the container's irot/imir boxes, which libheif applies while decoding; their EXIF
// Orientation only mirrors those boxes and must not be applied a second time.
func (n *Normalizer) Decode(data []byte, ext string) (image.Image, error) {
	if n.enableHEIC && (constants.IsHEICExt(ext) || isHEICFormat(data)) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, common.DecodeError("decoding HEIC/HEIF image", err)
		}
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, common.DecodeError("decoding image", err)
	}
	return img, nil
}

// Normalize converts to grayscale, stretches contrast, sharpens and upscales narrow
// images to the minimum width. Deterministic for identical input.
func (n *Normalizer) Normalize(img image.Image) *image.Gray {
	out := imaging.Grayscale(img)
	out = autoContrast(out)
	out = imaging.Convolve3x3(out, sharpenKernel, &imaging.ConvolveOptions{Normalize: true})
	if w := out.Bounds().Dx(); w > 0 && w < n.minWidth {
		out = imaging.Resize(out, n.minWidth, 0, imaging.Lanczos)
	}
	return toGray(out)
}

// autoContrast linearly maps the darkest pixel to 0 and the brightest to 255.
func autoContrast(img *image.NRGBA) *image.NRGBA {
	lo, hi := uint8(255), uint8(0)
	for i := 0; i < len(img.Pix); i += 4 {
		v := img.Pix[i]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return img
	}
	span := int(hi) - int(lo)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		v := uint8((int(c.R) - int(lo)) * 255 / span)
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

func toGray(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		dst := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return g
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}
