package leaderboard

import "github.com/okian/finishline/internal/domain/results"

// Style is the visual emphasis bucket of a row. Exactly one applies.
type Style string

// Styles in priority order.
const (
	StyleOverallWinner  Style = "overall_winner"
	StylePodium         Style = "podium"
	StyleDivisionWinner Style = "division_winner"
	StyleUser           Style = "user"
	StyleNone           Style = "none"
)

// Classification is the emphasis and tooltip text for one row.
type Classification struct {
	Style   Style  `json:"style"`
	Tooltip string `json:"tooltip,omitempty"`
}

// Classify picks the first matching rule:
// rank 1, then ranks 2-3, then division winners outside the podium, then the user row.
func Classify(r results.EnhancedRow) Classification {
	switch {
	case r.Rank == 1:
		return Classification{Style: StyleOverallWinner, Tooltip: "🏆 Overall Winner - 1st Place"}
	case r.Rank == 2:
		return Classification{Style: StylePodium, Tooltip: "🥈 Overall Winner - 2nd Place"}
	case r.Rank == 3:
		return Classification{Style: StylePodium, Tooltip: "🥉 Overall Winner - 3rd Place"}
	case r.IsDivisionWinner && r.Rank > results.OverallPodium:
		return Classification{Style: StyleDivisionWinner, Tooltip: "🏅 Division Winner - 1st in " + r.DivisionOrUnknown()}
	case r.IsUserRow:
		return Classification{Style: StyleUser, Tooltip: "Your Result"}
	default:
		return Classification{Style: StyleNone}
	}
}
