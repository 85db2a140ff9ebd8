package embedder

// Float64s converts a float32 vector returned by a provider client.
func Float64s(v []float32) []float64 {
	result := make([]float64, len(v))
	for i, val := range v {
		result[i] = float64(val)
	}
	return result
}
