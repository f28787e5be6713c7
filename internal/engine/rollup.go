package engine

// Aggregate computes a rollup over the source-field values of every related
// entity. Nil elements are excluded from every aggregation. Empty-set
// identities: count and sum are 0, avg/min/max are nil, concat_distinct is
// an empty array.
func Aggregate(def *FieldDefinition, related []any) any {
	if def.Rollup == nil {
		return nil
	}

	switch def.Rollup.Aggregation {
	case AggCount:
		n := 0
		for _, v := range related {
			if v != nil {
				n++
			}
		}
		return float64(n)

	case AggSum:
		sum := 0.0
		for _, v := range related {
			if n, ok := asNumber(v); ok {
				sum += n
			}
		}
		return sum

	case AggAvg:
		sum, n := 0.0, 0
		for _, v := range related {
			if f, ok := asNumber(v); ok {
				sum += f
				n++
			}
		}
		if n == 0 {
			return nil
		}
		return sum / float64(n)

	case AggMin:
		return extremum(related, func(candidate, best float64) bool { return candidate < best })

	case AggMax:
		return extremum(related, func(candidate, best float64) bool { return candidate > best })

	case AggConcatDistinct:
		out := make([]any, 0, len(related))
		for _, v := range related {
			if v == nil {
				continue
			}
			dup := false
			for _, existing := range out {
				if valuesEqual(existing, v) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, v)
			}
		}
		return out
	}
	return nil
}

func extremum(related []any, better func(candidate, best float64) bool) any {
	var best float64
	found := false
	for _, v := range related {
		n, ok := asNumber(v)
		if !ok {
			continue
		}
		if !found || better(n, best) {
			best = n
			found = true
		}
	}
	if !found {
		return nil
	}
	return best
}
