package search

import "sort"

// Dedupe drops every path whose canonical key was already seen.
// The first occurrence wins and the input order is kept.
func Dedupe(paths []Path) []Path {
	seen := make(map[Key]struct{}, len(paths))
	out := make([]Path, 0, len(paths))
	for _, p := range paths {
		k := p.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Rank orders paths by leg count, fewest first. Ties keep their order.
func Rank(paths []Path) []Path {
	sort.SliceStable(paths, func(i, j int) bool {
		return len(paths[i].Legs) < len(paths[j].Legs)
	})
	return paths
}
