package scene

// LightIndex is the flat, power-weighted light array Assembly.Finalize
// builds: a cumulative distribution function (CDF) over instance power
// sufficient for both uniform and importance-weighted light selection.
// A full light importance-sampling tree is a more elaborate structure;
// this flat array covers the interaction with traversal without building
// one.
type LightIndex struct {
	// Instances holds the light-emitting instance indices, in the same
	// order as their cumulative power entries below.
	Instances []int32

	// cdf[i] is the cumulative normalized power of Instances[0..i]; the
	// last entry is always 1 for a non-empty index. Sampling picks i via
	// binary search on a uniform [0,1) draw.
	cdf []float32

	// TotalPower is the sum of EstimatedPower over every light instance,
	// before normalization; zero when the assembly has no lights.
	TotalPower float32
}

// Empty reports whether the assembly holds no light-emitting instances.
func (li LightIndex) Empty() bool { return len(li.Instances) == 0 }

// Len returns the number of light instances indexed.
func (li LightIndex) Len() int { return len(li.Instances) }

// SampleUniform picks a light instance with uniform probability 1/N from a
// single draw u in [0,1), returning its instance index and the uniform
// pdf. Used when no power-weighting information is wanted (e.g. a small
// scene where every light contributes comparably).
func (li LightIndex) SampleUniform(u float32) (instanceIndex int32, pdf float32) {
	if li.Empty() {
		return -1, 0
	}
	i := int(u * float32(len(li.Instances)))
	if i >= len(li.Instances) {
		i = len(li.Instances) - 1
	}
	return li.Instances[i], 1.0 / float32(len(li.Instances))
}

// SamplePower picks a light instance with probability proportional to its
// estimated emitted power from a single draw u in [0,1), returning its
// instance index and the pdf of that instance under power-weighting. The
// caller (the light sampler collaborator) divides outgoing radiance by
// this pdf to stay unbiased.
func (li LightIndex) SamplePower(u float32) (instanceIndex int32, pdf float32) {
	if li.Empty() || li.TotalPower <= 0 {
		return li.SampleUniform(u)
	}

	i := sortSearch(li.cdf, u)
	var prev float32
	if i > 0 {
		prev = li.cdf[i-1]
	}
	weight := li.cdf[i] - prev
	return li.Instances[i], weight
}

// sortSearch returns the smallest index i such that cdf[i] >= u (or the
// last index if none qualifies, guarding against floating-point rounding
// leaving the final cumulative entry fractionally below 1).
func sortSearch(cdf []float32, u float32) int {
	lo, hi := 0, len(cdf)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cdf[mid] < u {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// buildLightIndex scans an Assembly's instances for light-emitting objects
// and builds the power-weighted CDF in two passes: one to estimate power,
// a second to normalize into a CDF.
func buildLightIndex(a *Assembly) LightIndex {
	idxs := a.lightInstances()
	if len(idxs) == 0 {
		return LightIndex{}
	}

	powers := make([]float32, len(idxs))
	var total float32
	for i, instIdx := range idxs {
		obj := &a.Objects[a.Instances[instIdx].ObjectIndex]
		powers[i] = obj.EstimatedPower()
		total += powers[i]
	}

	cdf := make([]float32, len(idxs))
	if total > 0 {
		var running float32
		for i, p := range powers {
			running += p / total
			cdf[i] = running
		}
		cdf[len(cdf)-1] = 1.0
	} else {
		for i := range cdf {
			cdf[i] = float32(i+1) / float32(len(cdf))
		}
	}

	return LightIndex{Instances: idxs, cdf: cdf, TotalPower: total}
}
