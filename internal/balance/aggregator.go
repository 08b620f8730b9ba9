// Package balance turns uploaded spreadsheet rows into a normalized
// debit/credit/balance table. Column headers are uncontrolled user input, so
// classification works over normalized header names and falls back to a raw
// passthrough table when the sheet cannot be read as a balance sheet.
package balance

import (
	"strings"
	"unicode"

	"github.com/finboard/finboard/internal/models"

	"github.com/shopspring/decimal"
)

// Semantic column roles.
const (
	roleAccount       = "account"
	roleDebit         = "debit"
	roleCredit        = "credit"
	roleOpeningDebit  = "openingDebit"
	roleOpeningCredit = "openingCredit"
	rolePeriodDebit   = "periodDebit"
	rolePeriodCredit  = "periodCredit"
)

// roleCandidates maps each role to its known header names, in priority
// order. Matching is equals-or-contains over normalized headers.
var roleCandidates = map[string][]string{
	roleAccount:       {"科目名称", "科目", "会计科目", "account"},
	roleDebit:         {"借方发生额", "借方金额", "借方", "debit"},
	roleCredit:        {"贷方发生额", "贷方金额", "贷方", "credit"},
	roleOpeningDebit:  {"期初借方", "年初借方"},
	roleOpeningCredit: {"期初贷方", "年初贷方"},
	rolePeriodDebit:   {"本期借方", "本年借方"},
	rolePeriodCredit:  {"本期贷方", "本年贷方"},
}

// normalizeHeader strips all whitespace and lower-cases a header for
// comparison.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range h {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// resolveRole finds the original header filling the given role, trying
// candidates in priority order against the headers in input order. Headers
// in taken are already bound to another role and never match.
func resolveRole(headers []string, role string, taken map[string]bool) (string, bool) {
	for _, candidate := range roleCandidates[role] {
		for _, h := range headers {
			if taken[h] {
				continue
			}
			if strings.Contains(normalizeHeader(h), candidate) {
				return h, true
			}
		}
	}
	return "", false
}

// isBlankRow reports whether every cell is empty or whitespace.
func isBlankRow(row map[string]string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseAmount coerces a cell to a decimal. Thousands separators (ASCII and
// full-width comma, whitespace) are stripped; empty or non-numeric cells
// coerce to zero.
func parseAmount(cell string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == '，' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, cell)
	if cleaned == "" {
		return decimal.Zero
	}
	d, errParse := decimal.NewFromString(cleaned)
	if errParse != nil {
		return decimal.Zero
	}
	return d
}

// Aggregate builds the table for one sheet. headers carry the original
// column order; rows map header to cell text. Rows made only of blank cells
// are discarded first. When the sheet cannot be classified (no account
// column, or no amount columns at all) every original column is passed
// through verbatim in raw mode.
func Aggregate(headers []string, rows []map[string]string) *models.BalanceTable {
	kept := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		if !isBlankRow(row) {
			kept = append(kept, row)
		}
	}

	// Breakdown headers contain the direct candidates (期初借方 contains
	// 借方), so breakdown roles bind first and their headers are withheld
	// from direct debit/credit resolution.
	openDebitCol, openDebitOK := resolveRole(headers, roleOpeningDebit, nil)
	openCreditCol, openCreditOK := resolveRole(headers, roleOpeningCredit, nil)
	periodDebitCol, periodDebitOK := resolveRole(headers, rolePeriodDebit, nil)
	periodCreditCol, periodCreditOK := resolveRole(headers, rolePeriodCredit, nil)

	taken := map[string]bool{}
	for _, bound := range []struct {
		col string
		ok  bool
	}{
		{openDebitCol, openDebitOK},
		{openCreditCol, openCreditOK},
		{periodDebitCol, periodDebitOK},
		{periodCreditCol, periodCreditOK},
	} {
		if bound.ok {
			taken[bound.col] = true
		}
	}

	accountCol, accountOK := resolveRole(headers, roleAccount, nil)
	debitCol, debitOK := resolveRole(headers, roleDebit, taken)
	creditCol, creditOK := resolveRole(headers, roleCredit, taken)

	hasBreakdown := openDebitOK || openCreditOK || periodDebitOK || periodCreditOK
	if !accountOK || (!debitOK && !creditOK && !hasBreakdown) {
		return &models.BalanceTable{
			Mode:    models.BalanceModeRaw,
			Columns: headers,
			RawRows: kept,
		}
	}

	type bucket struct {
		debit  decimal.Decimal
		credit decimal.Decimal
	}
	order := make([]string, 0, len(kept))
	buckets := map[string]*bucket{}

	for _, row := range kept {
		account := strings.TrimSpace(row[accountCol])
		b := buckets[account]
		if b == nil {
			b = &bucket{}
			buckets[account] = b
			order = append(order, account)
		}

		var debit, credit decimal.Decimal
		if debitOK {
			debit = parseAmount(row[debitCol])
		} else {
			debit = parseAmount(row[openDebitCol]).Add(parseAmount(row[periodDebitCol]))
		}
		if creditOK {
			credit = parseAmount(row[creditCol])
		} else {
			credit = parseAmount(row[openCreditCol]).Add(parseAmount(row[periodCreditCol]))
		}

		b.debit = b.debit.Add(debit)
		b.credit = b.credit.Add(credit)
	}

	out := make([]models.BalanceRow, 0, len(order))
	var sumDebit, sumCredit, sumBalance decimal.Decimal
	for _, account := range order {
		b := buckets[account]
		debit := b.debit.Round(2)
		credit := b.credit.Round(2)
		balance := b.debit.Sub(b.credit).Round(2)
		out = append(out, models.BalanceRow{
			Account: account,
			Debit:   debit.InexactFloat64(),
			Credit:  credit.InexactFloat64(),
			Balance: balance.InexactFloat64(),
		})
		// The summary totals the already-rounded per-account values, not
		// the raw sums.
		sumDebit = sumDebit.Add(debit)
		sumCredit = sumCredit.Add(credit)
		sumBalance = sumBalance.Add(balance)
	}

	return &models.BalanceTable{
		Mode:    models.BalanceModeBalance,
		Columns: []string{"account", "debit", "credit", "balance"},
		Rows:    out,
		Summary: &models.BalanceSummary{
			Debit:   sumDebit.Round(2).InexactFloat64(),
			Credit:  sumCredit.Round(2).InexactFloat64(),
			Balance: sumBalance.Round(2).InexactFloat64(),
		},
	}
}
