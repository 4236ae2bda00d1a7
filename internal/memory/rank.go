package memory

import "sort"

// Rank reorders a raw similarity result set by explicit importance and then
// recency, because the backing search accounts for neither. The sort is
// stable: documents with an equal (importance, timestamp) key keep the
// relative order the similarity engine gave them. Documents without a
// parsable timestamp sort as oldest. The input slice is not modified.
func Rank(docs []Document) []Document {
	ranked := make([]Document, len(docs))
	copy(ranked, docs)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := importanceRank(ranked[i]), importanceRank(ranked[j])
		if ri != rj {
			return ri > rj
		}
		return ranked[i].Timestamp().After(ranked[j].Timestamp())
	})
	return ranked
}

func importanceRank(d Document) int {
	if d.Importance() == ImportanceHigh {
		return 1
	}
	return 0
}
