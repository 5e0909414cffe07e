package ocr

import "math"

// DecodeGreedy performs CTC best-path decoding of one sequence of logits laid
// out as [T, C] (or [C, T] when classesFirst). It returns the collapsed class
// indices and the mean probability of the emitted characters.
func DecodeGreedy(logits []float32, steps, classes, blank int, classesFirst bool) ([]int, float64) {
	if steps <= 0 || classes <= 0 || len(logits) < steps*classes {
		return nil, 0
	}
	out := make([]int, 0, steps)
	var probSum float64
	prev := -1
	column := make([]float32, classes)
	for t := range steps {
		var v []float32
		if classesFirst {
			for k := range classes {
				column[k] = logits[k*steps+t]
			}
			v = column
		} else {
			v = logits[t*classes : (t+1)*classes]
		}
		idx := argmax(v)
		if idx != blank && idx != prev {
			out = append(out, idx)
			probSum += probability(v, idx)
		}
		prev = idx
	}
	if len(out) == 0 {
		return out, 0
	}
	return out, probSum / float64(len(out))
}

func argmax(v []float32) int {
	idx := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[idx] {
			idx = i
		}
	}
	return idx
}

// probability returns v[idx] when v already is a distribution and its
// softmax otherwise.
func probability(v []float32, idx int) float64 {
	var sum float64
	isDist := true
	for _, x := range v {
		sum += float64(x)
		if x < 0 || x > 1 {
			isDist = false
		}
	}
	if isDist && sum > 0.99 && sum < 1.01 {
		return float64(v[idx])
	}
	m := v[argmax(v)]
	var denom float64
	for _, x := range v {
		denom += math.Exp(float64(x - m))
	}
	if denom == 0 {
		return 0
	}
	return math.Exp(float64(v[idx]-m)) / denom
}

// classesFirst infers the layout of a [1, A, B] output from the class count.
func classesFirst(shape []int64, classes int) bool {
	if len(shape) < 3 {
		return false
	}
	return int(shape[len(shape)-1]) != classes && int(shape[len(shape)-2]) == classes
}
