package roi

// Landmark index ranges follow the standard dlib 68-point scheme, which
// is conventionally 1-indexed; loI/hiI below are the translated
// 0-indexed, inclusive bounds used against Landmarks.Points.
const (
	foreheadLoI, foreheadHiI = 18, 23 // landmarks 19-24
	leftJawLoI, leftJawHiI   = 0, 5   // landmarks 1-6
	rightJawLoI, rightJawHiI = 9, 14  // landmarks 10-15
	noseLoI, noseHiI         = 30, 34 // landmarks 31-35
	foreheadPad              = 20
	foreheadShiftY           = -20
	cheekPad                 = 10
)

// DeriveFromLandmarks builds the three ROIs from a 68-point landmark set,
// padded outward around the forehead and cheek landmark groups.
func DeriveFromLandmarks(lm Landmarks, weights map[Label]float64) []ROI {
	forehead := boundingBox(lm.Points[foreheadLoI : foreheadHiI+1])
	forehead = pad(forehead, foreheadPad)
	forehead.Y += foreheadShiftY

	left := boundingBox(append(
		append([]Point{}, lm.Points[leftJawLoI:leftJawHiI+1]...),
		lm.Points[noseLoI:noseHiI+1]...,
	))
	left = pad(left, cheekPad)

	right := boundingBox(append(
		append([]Point{}, lm.Points[rightJawLoI:rightJawHiI+1]...),
		lm.Points[noseLoI:noseHiI+1]...,
	))
	right = pad(right, cheekPad)

	return []ROI{
		{Label: Forehead, Rect: forehead, Weight: weights[Forehead]},
		{Label: LeftCheek, Rect: left, Weight: weights[LeftCheek]},
		{Label: RightCheek, Rect: right, Weight: weights[RightCheek]},
	}
}

// DefaultROIs builds the three fallback ROIs centred on a frame of the
// given dimensions, used when no face is detected. Selecting this branch
// is a fallback, not a detection success — callers must track that
// distinction themselves; DefaultROIs does not assert anything about
// face presence.
func DefaultROIs(frameW, frameH int, weights map[Label]float64) []ROI {
	fw := int(float64(frameW) * 0.33)
	fh := int(float64(frameH) * 0.33)
	forehead := Rect{
		X: (frameW - fw) / 2,
		Y: 0,
		W: fw,
		H: fh,
	}

	cw := int(float64(frameW) * 0.18)
	ch := int(float64(frameH) * 0.22)
	cy := frameH/2 + frameH/6

	left := Rect{
		X: frameW/4 - cw/2,
		Y: cy,
		W: cw,
		H: ch,
	}
	right := Rect{
		X: 3*frameW/4 - cw/2,
		Y: cy,
		W: cw,
		H: ch,
	}

	return []ROI{
		{Label: Forehead, Rect: forehead, Weight: weights[Forehead]},
		{Label: LeftCheek, Rect: left, Weight: weights[LeftCheek]},
		{Label: RightCheek, Rect: right, Weight: weights[RightCheek]},
	}
}

func boundingBox(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

func pad(r Rect, px int) Rect {
	return Rect{
		X: r.X - px,
		Y: r.Y - px,
		W: r.W + 2*px,
		H: r.H + 2*px,
	}
}
