package results

// OverallPodium is the highest rank still counted as an overall winner.
const OverallPodium = 3

// Annotate derives winner and user-row flags for every row.
//
// Rows MUST be rank-ascending on input: the first row seen for a division is
// marked as that division's winner, whatever its rank. Use RankOrdered to
// check the precondition.
func Annotate(rows []Row, highlightBib string) []EnhancedRow {
	out := make([]EnhancedRow, len(rows))
	seen := make(map[string]struct{})
	for i, r := range rows {
		div := r.DivisionOrUnknown()
		_, taken := seen[div]
		if !taken {
			seen[div] = struct{}{}
		}
		out[i] = EnhancedRow{
			Row:              r,
			IsDivisionWinner: !taken,
			IsOverallWinner:  r.Rank <= OverallPodium,
			IsUserRow:        highlightBib != "" && r.Bib == highlightBib,
		}
	}
	return out
}

// RankOrdered reports whether rows are sorted by rank ascending.
// Equal neighbouring ranks are accepted.
func RankOrdered(rows []Row) bool {
	for i := 1; i < len(rows); i++ {
		if rows[i].Rank < rows[i-1].Rank {
			return false
		}
	}
	return true
}
