package feeds

// Interleave merges per-source lists round-robin: position i of every list
// that has one, in list order, before any position i+1. A single source can
// only produce consecutive items once all shorter lists are exhausted.
func Interleave(lists [][]Item) []Item {
	longest := 0
	total := 0
	for _, list := range lists {
		total += len(list)
		if len(list) > longest {
			longest = len(list)
		}
	}
	out := make([]Item, 0, total)
	for i := 0; i < longest; i++ {
		for _, list := range lists {
			if i < len(list) {
				out = append(out, list[i])
			}
		}
	}
	return out
}

// DedupeLinks keeps the first item for each link.
func DedupeLinks(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Link]; ok {
			continue
		}
		seen[item.Link] = struct{}{}
		out = append(out, item)
	}
	return out
}
