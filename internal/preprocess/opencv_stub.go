//go:build !gocv

package preprocess

import "image"

// Backend names the enhancement implementation compiled into the binary.
// Build with -tags gocv to use OpenCV.
const Backend = "go"

func enhanceOpenCV(image.Image, Options) (*image.Gray, error) {
	return nil, errOpenCVUnavailable
}
