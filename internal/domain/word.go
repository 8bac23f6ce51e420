package domain

// WordRecord is one vocabulary row of an uploaded deck
type WordRecord struct {
	Term        string `json:"term"`
	Example     string `json:"example"`
	Translation string `json:"translation"`
}

// cloneWords returns an independent copy so snapshots never share backing arrays
func cloneWords(words []WordRecord) []WordRecord {
	if words == nil {
		return nil
	}
	out := make([]WordRecord, len(words))
	copy(out, words)
	return out
}
