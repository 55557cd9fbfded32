package core

// Wildcard in a partial declaration stands for every declared output (of)
// or every declared input (wrt).
const Wildcard = "*"

// ExpandWildcard materializes the blocks named by (of, wrt) from snapshots of
// the outputs and inputs known at call time. Names added afterwards are not
// part of an earlier expansion.
func ExpandWildcard(of, wrt string, outputs, inputs []string) []Key {
	ofs := []string{of}
	if of == Wildcard {
		ofs = append([]string(nil), outputs...)
	}
	wrts := []string{wrt}
	if wrt == Wildcard {
		wrts = append([]string(nil), inputs...)
	}

	keys := make([]Key, 0, len(ofs)*len(wrts))
	for _, o := range ofs {
		for _, w := range wrts {
			keys = append(keys, Key{Of: o, Wrt: w})
		}
	}
	return keys
}
