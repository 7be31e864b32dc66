package reading

import (
	"image"
	"image/color"
	"sort"
)

const (
	contrastFactor    = 2.0
	binarizeThreshold = 128
)

// preprocess normalizes a raster image for QR detection: grayscale,
// contrast boost, binarize, despeckle. It always produces an image;
// there are no error conditions.
func preprocess(img image.Image) *image.Gray {
	gray := toGrayscale(img)
	enhanceContrast(gray, contrastFactor)
	binarize(gray, binarizeThreshold)
	return medianFilter(gray)
}

func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// enhanceContrast scales every pixel's distance from the image mean,
// widening the separation between ink and background. In place.
func enhanceContrast(img *image.Gray, factor float64) {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return
	}

	var sum int64
	for _, v := range img.Pix {
		sum += int64(v)
	}
	mean := float64(sum) / float64(len(img.Pix))

	for i, v := range img.Pix {
		img.Pix[i] = clampByte(mean + (float64(v)-mean)*factor)
	}
}

// binarize maps pixels above the luminance threshold to white and the
// rest to black. In place.
func binarize(img *image.Gray, threshold uint8) {
	for i, v := range img.Pix {
		if v > threshold {
			img.Pix[i] = 255
		} else {
			img.Pix[i] = 0
		}
	}
}

// medianFilter applies a 3x3 median filter, removing speckle noise
// introduced by binarization. Edge neighborhoods are clamped to the
// image bounds.
func medianFilter(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	window := make([]uint8, 0, 9)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx := clampInt(x+dx, bounds.Min.X, bounds.Max.X-1)
					ny := clampInt(y+dy, bounds.Min.Y, bounds.Max.Y-1)
					window = append(window, img.GrayAt(nx, ny).Y)
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			out.SetGray(x, y, color.Gray{Y: window[4]})
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
