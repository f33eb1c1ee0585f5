package roi

// Sampler reduces a frame plus a list of ROIs to a single scalar sample
// per tick.
type Sampler struct {
	src PixelSource
}

// NewSampler builds a Sampler reading pixels from src.
func NewSampler(src PixelSource) *Sampler {
	return &Sampler{src: src}
}

// SetSource swaps the pixel source, e.g. once per tick when a new frame
// arrives.
func (s *Sampler) SetSource(src PixelSource) {
	s.src = src
}

// roiStats are the per-channel means of the pixels that survived the
// alpha/near-black filter for one ROI.
type roiStats struct {
	label Label
	r, g, b float64
	weight  float64
}

// Sample computes the weighted-green-channel scalar across the surviving
// ROIs. It returns ok=false ("no sample") when zero ROIs survive — either
// because every candidate ROI was empty of qualifying pixels, or because
// rois is empty (the face source reported "no face" and the caller chose
// not to fall back).
func (s *Sampler) Sample(rois []ROI) (float64, bool) {
	if s.src == nil || len(rois) == 0 {
		return 0, false
	}

	survivors := make([]roiStats, 0, len(rois))
	for _, r := range rois {
		pixels, w, h := s.src.ReadRect(r.Rect)
		if w == 0 || h == 0 {
			continue
		}
		var sumR, sumG, sumB float64
		var count int
		for i := 0; i < w*h; i++ {
			off := i * 4
			red := float64(pixels[off])
			green := float64(pixels[off+1])
			blue := float64(pixels[off+2])
			alpha := pixels[off+3]
			if alpha == 0 {
				continue
			}
			if red+green+blue <= 30 {
				continue
			}
			sumR += red
			sumG += green
			sumB += blue
			count++
		}
		if count == 0 {
			continue
		}
		survivors = append(survivors, roiStats{
			label:  r.Label,
			r:      sumR / float64(count),
			g:      sumG / float64(count),
			b:      sumB / float64(count),
			weight: r.Weight,
		})
	}

	if len(survivors) == 0 {
		return 0, false
	}

	var totalWeight float64
	for _, st := range survivors {
		totalWeight += st.weight
	}
	if totalWeight <= 0 {
		return 0, false
	}

	var value float64
	for _, st := range survivors {
		value += (st.weight / totalWeight) * st.g
	}
	return value, true
}
