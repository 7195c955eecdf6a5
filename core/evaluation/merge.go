package evaluation

// Merge combines two collections keyed by record id; incoming records win on collision.
// Existing records keep their position (an overwritten record is updated in place),
// brand-new ids are appended in arrival order.
func Merge(existing, incoming []Record) []Record {
	merged := make([]Record, 0, len(existing)+len(incoming))
	index := make(map[ID]int, len(existing)+len(incoming))

	put := func(r Record) {
		if i, ok := index[r.ID]; ok {
			merged[i] = r
			return
		}
		index[r.ID] = len(merged)
		merged = append(merged, r)
	}
	for _, r := range existing {
		put(r)
	}
	for _, r := range incoming {
		put(r)
	}
	return merged
}
