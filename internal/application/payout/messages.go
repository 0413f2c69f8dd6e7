package payout

import (
	"strings"

	"github.com/payout/backend/internal/domain/payout"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders a money amount with grouping and two decimals, e.g. 12,500.00
func FormatAmount(amount decimal.Decimal) string {
	return printer.Sprint(number.Decimal(amount.InexactFloat64(), number.Scale(2)))
}

// FrequencyLabel renders a frequency for people, e.g. "Semi Annually"
func FrequencyLabel(f payout.PayoutFrequency) string {
	return humanize(f.String())
}

// StatusLabel renders a payout status for people, e.g. "Not Due"
func StatusLabel(s payout.PayoutStatus) string {
	return humanize(s.String())
}

// humanize title-cases a snake_case value. Casers are stateful, so one is built per call.
func humanize(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

func approvalMessage(due *payout.InvestmentDue, record *payout.PayoutRecord) string {
	if due.IsCompleted() {
		return printer.Sprintf("Final payout of %s approved for %s; all %d payouts are complete",
			FormatAmount(record.Amount), due.InvestorName, due.TotalPayouts)
	}
	return printer.Sprintf("%s payout %d of %d (%s) approved for %s; next payout due %s",
		FrequencyLabel(due.Frequency), record.Period, due.TotalPayouts,
		FormatAmount(record.Amount), due.InvestorName, due.NextPayoutDate.Format(DateLayout))
}
