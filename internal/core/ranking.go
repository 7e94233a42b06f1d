package core

// MostPaidTag finds the tag that accumulated the highest total spend across
// the given expenses. Totals are keyed by tag identity, never by name, since
// two tags may share a name. Untagged expenses are excluded entirely; they do not
// form an "uncategorized" bucket. ok is false when no expense carries a tag.
//
// Ties on the maximum total are broken by the lexicographically smallest tag
// ID. The rule is arbitrary but deterministic: repeated calls over the same
// data always return the same winner, never whatever map iteration happened
// to visit first.
func MostPaidTag(expenses []Expense) (tagID string, total Money, ok bool) {
	totals := make(map[string]Money)
	for _, e := range expenses {
		if e.TagID == "" {
			continue
		}
		totals[e.TagID] = totals[e.TagID].Add(e.Value)
	}
	if len(totals) == 0 {
		return "", Money{}, false
	}

	for id, t := range totals {
		if !ok || t.Cents > total.Cents || (t.Cents == total.Cents && id < tagID) {
			tagID, total, ok = id, t, true
		}
	}
	return tagID, total, true
}
