package media

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	FlyerMaxSide   = 1600
	FlyerThumbSide = 480
	jpegQuality    = 85
)

var ErrUnsupportedImage = errors.New("unsupported image format")

var allowedImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/heic": true,
	"image/heif": true,
}

func IsAllowedImage(contentType string) bool {
	return allowedImageContentTypes[strings.TrimSpace(strings.ToLower(contentType))]
}

func DetectContentType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if isHeifFamily(data) {
		return "image/heic"
	}
	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}
	return http.DetectContentType(sample)
}

// Flyer is an uploaded event flyer re-encoded as JPEG.
type Flyer struct {
	Full   []byte
	Thumb  []byte
	Width  int
	Height int
	Format string
}

// ProcessFlyer applies EXIF orientation and produces a display-size image
// and a thumbnail. Neither is upscaled.
func ProcessFlyer(data []byte) (Flyer, error) {
	img, format, err := decodeAndAutoRotate(data)
	if err != nil {
		return Flyer{}, err
	}
	b := img.Bounds()

	full, err := encodeJPEG(fitWithin(img, FlyerMaxSide))
	if err != nil {
		return Flyer{}, err
	}
	thumb, err := encodeJPEG(fitWithin(img, FlyerThumbSide))
	if err != nil {
		return Flyer{}, err
	}
	return Flyer{Full: full, Thumb: thumb, Width: b.Dx(), Height: b.Dy(), Format: format}, nil
}

func fitWithin(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isHeifFamily(data []byte) bool {
	// ISO BMFF: [size:4][ftyp:4][brand:4]
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "hevc", "hevx", "mif1", "msf1", "heif":
		return true
	}
	return false
}

func decodeAndAutoRotate(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if isHeifFamily(data) {
			if heicImg, heicErr := decodeHEIC(data); heicErr == nil {
				return heicImg, "heic", nil
			}
		}
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupportedImage
		}
		return nil, "", err
	}

	// Only JPEGs carry EXIF here; a missing or broken tag leaves the image as is.
	if strings.EqualFold(format, "jpeg") {
		if ex, exErr := exif.Decode(bytes.NewReader(data)); exErr == nil {
			if tag, tagErr := ex.Get(exif.Orientation); tagErr == nil {
				if orient, convErr := tag.Int(0); convErr == nil {
					img = applyOrientation(img, orient)
				}
			}
		}
	}
	return img, format, nil
}

func applyOrientation(img image.Image, orient int) image.Image {
	switch orient {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// IsPDF reports whether data looks like a PDF document.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
