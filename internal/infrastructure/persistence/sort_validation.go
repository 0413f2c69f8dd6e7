package persistence

import (
	"strings"

	"github.com/payout/backend/internal/domain/shared"
)

// sortColumns whitelists the columns a caller may order by. Anything else
// falls back to the default column so user input never reaches ORDER BY raw.
type sortColumns struct {
	allowed    map[string]bool
	defaultCol string
	defaultDir string
}

// InvestmentDueSortColumns orders the listing by due date unless told otherwise
var InvestmentDueSortColumns = sortColumns{
	allowed: map[string]bool{
		"next_payout_date": true,
		"created_at":       true,
		"updated_at":       true,
		"amount":           true,
		"expected_return":  true,
		"payout_amount":    true,
		"investor_name":    true,
	},
	defaultCol: "next_payout_date",
	defaultDir: "ASC",
}

// Clause returns "<column> <ASC|DESC>" for the filter. An explicit column
// without a direction sorts descending.
func (s sortColumns) Clause(f shared.Filter) string {
	col := strings.TrimSpace(f.OrderBy)
	if col == "" || !s.allowed[col] {
		return s.defaultCol + " " + s.defaultDir
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(f.OrderDir), "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}
