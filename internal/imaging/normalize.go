package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"

	xdraw "golang.org/x/image/draw"
)

const (
	// DefaultTargetBytes is the per-image ceiling suitable for inference
	// service upload (2.5 MiB).
	DefaultTargetBytes = 2_621_440

	jpegQuality = 85
)

// Normalize returns an image payload at or near the target byte ceiling.
// Payloads already within the ceiling are returned unchanged to avoid
// needless re-encoding loss. Oversized payloads are downscaled by
// sqrt(target/current) on both dimensions (bytes scale roughly with pixel
// area at fixed quality) and re-encoded as JPEG. This is a single-pass
// heuristic: pathological inputs may land close to, not under, the ceiling.
// The input slice is never mutated.
func Normalize(data []byte, targetBytes int) ([]byte, string, error) {
	if targetBytes <= 0 {
		targetBytes = DefaultTargetBytes
	}
	if len(data) <= targetBytes {
		mime := detectImageMIME(data)
		if mime == "" {
			return nil, "", fmt.Errorf("imaging: payload is not a decodable image")
		}
		return data, mime, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode: %w", err)
	}

	scale := math.Sqrt(float64(targetBytes) / float64(len(data)))
	bounds := src.Bounds()
	width := scaled(bounds.Dx(), scale)
	height := scaled(bounds.Dy(), scale)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("imaging: encode: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

func scaled(dim int, scale float64) int {
	v := int(math.Round(float64(dim) * scale))
	if v < 1 {
		return 1
	}
	return v
}

func detectImageMIME(data []byte) string {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return ""
	}
	return "image/" + format
}
