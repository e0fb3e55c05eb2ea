package preprocess

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

// MinSkewAngle is the smallest rotation, in degrees, worth correcting.
const MinSkewAngle = 0.5

type point struct{ x, y float64 }

// Deskew estimates the skew of the foreground and rotates the image to
// correct it. Angles below MinSkewAngle leave the image untouched.
func Deskew(img image.Image) (image.Image, float64) {
	angle := EstimateSkew(Neutralize(img))
	if math.Abs(angle) < MinSkewAngle {
		return img, 0
	}
	return imaging.Rotate(img, angle, color.White), angle
}

// EstimateSkew returns the angle in degrees of the minimum-area bounding
// rectangle of the dark pixels, normalized to (-45, 45]. A positive angle
// means the content descends to the right.
func EstimateSkew(gray *image.Gray) float64 {
	threshold := otsu(gray)
	b := gray.Bounds()

	// Extreme foreground pixels per row are enough to build the hull.
	var pts []point
	for y := b.Min.Y; y < b.Max.Y; y++ {
		left, right := -1, -1
		for x := b.Min.X; x < b.Max.X; x++ {
			if gray.Pix[gray.PixOffset(x, y)] < threshold {
				if left < 0 {
					left = x
				}
				right = x
			}
		}
		if left >= 0 {
			pts = append(pts, point{float64(left), float64(y)}, point{float64(right), float64(y)})
		}
	}

	hull := convexHull(pts)
	if len(hull) < 3 {
		return 0
	}
	return minAreaRectAngle(hull)
}

// otsu picks the threshold maximizing between-class variance.
func otsu(gray *image.Gray) uint8 {
	var hist [256]int
	b := gray.Bounds()
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[gray.Pix[gray.PixOffset(x, y)]]++
			total++
		}
	}
	if total == 0 {
		return 128
	}

	sum := 0.0
	for i, c := range hist {
		sum += float64(i * c)
	}

	var sumB, best float64
	wB := 0
	threshold := 128
	for i, c := range hist {
		wB += c
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(i * c)
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = i + 1
		}
	}
	if threshold > 255 {
		threshold = 255
	}
	return uint8(threshold)
}

// convexHull is Andrew's monotone chain; the result is counter-clockwise
// without the closing point.
func convexHull(pts []point) []point {
	if len(pts) < 3 {
		return pts
	}
	sorted := make([]point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].x != sorted[j].x {
			return sorted[i].x < sorted[j].x
		}
		return sorted[i].y < sorted[j].y
	})

	cross := func(o, a, b point) float64 {
		return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
	}

	hull := make([]point, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// minAreaRectAngle runs rotating calipers over the hull edges and returns
// the orientation of the smallest enclosing rectangle.
func minAreaRectAngle(hull []point) float64 {
	bestArea := math.Inf(1)
	bestAngle := 0.0

	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		dx, dy := b.x-a.x, b.y-a.y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		ux, uy := dx/length, dy/length

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := p.x*ux + p.y*uy
			v := -p.x*uy + p.y*ux
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}

		area := (maxU - minU) * (maxV - minV)
		if area < bestArea {
			bestArea = area
			bestAngle = math.Atan2(dy, dx) * 180 / math.Pi
		}
	}

	return normalizeAngle(bestAngle)
}

func normalizeAngle(deg float64) float64 {
	for deg > 45 {
		deg -= 90
	}
	for deg <= -45 {
		deg += 90
	}
	return deg
}
