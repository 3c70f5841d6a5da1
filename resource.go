package strata

// ResourceRequest maps resource names (e.g. "num_cpus", "num_gpus", custom resources)
// to requested amounts. A nil value declares the resource without requiring any of it,
// which is equivalent to omitting the key entirely, or to requesting zero.
type ResourceRequest map[string]*float64

// Amount is a convenience for constructing ResourceRequest values
func Amount(v float64) *float64 {
	return &v
}

// EquivalentResources returns true iff two resource requests are interchangeable
// for stage fusion purposes. For every key appearing in either request, the
// effective amount must match: absent keys, nil values and zero values are all
// the same "no requirement" sentinel, while an explicit positive requirement must
// be present and equal on both sides. The relation is symmetric.
func EquivalentResources(a ResourceRequest, b ResourceRequest) bool {
	for key := range a {
		if effectiveAmount(a[key]) != effectiveAmount(b[key]) {
			return false
		}
	}
	for key := range b {
		if effectiveAmount(a[key]) != effectiveAmount(b[key]) {
			return false
		}
	}
	return true
}

func effectiveAmount(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
