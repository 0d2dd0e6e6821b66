package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// NameFallbackMode decides when the labelled-owner rule is tried for the reviewer name.
type NameFallbackMode int

const (
	// FallbackOnMiss tries the owner label only when the title-line pattern did not match.
	FallbackOnMiss NameFallbackMode = iota
	// FallbackOnEmpty also tries it when the title line matched but cleaned to nothing.
	FallbackOnEmpty
)

func (m NameFallbackMode) String() string {
	if m == FallbackOnEmpty {
		return "empty"
	}
	return "miss"
}

// ParseNameFallbackMode accepts "miss" or "empty" ("" means miss).
func ParseNameFallbackMode(s string) (NameFallbackMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "miss":
		return FallbackOnMiss, nil
	case "empty":
		return FallbackOnEmpty, nil
	default:
		return FallbackOnMiss, fmt.Errorf("unknown name fallback mode %q", s)
	}
}

const reportToken = `SHPC-[A-Za-z0-9]+`

// money: digit groups with comma separators and exactly two decimals, kept verbatim.
const money = `(\d+(?:,\d+)*\.\d{2})`

var (
	reReportTitle    = regexp.MustCompile(`(?i)Expense Report(?: Number)?[:\s]+(` + reportToken + `)`)
	reReportStandard = regexp.MustCompile(`\b(` + reportToken + `)\b`)

	reNameTitle = regexp.MustCompile(`(?i)Expense Report[:\s]+` + reportToken + `,\s*(.+?)\s*,?\s*\bon\b`)
	reNameLabel = regexp.MustCompile(`(?i)(?:Report Owner|QC Name?)[:\s]+(.+)`)

	reAmountFor   = regexp.MustCompile(`(?i)\bfor\s*[￥¥]?\s*` + money)
	reAmountLabel = regexp.MustCompile(`(?i)(?:Reimbursement(?: Amount)?|Total Amount)[:\s]+(?:CNY|RMB|[￥¥])?\s*` + money)

	reFullWidthParen = regexp.MustCompile(`（.*?）`)
	reLatinWord      = regexp.MustCompile(`[A-Za-z]+`)
)

// Rules is the pattern-based FieldExtractor.
type Rules struct {
	mode NameFallbackMode
}

func NewRules(mode NameFallbackMode) *Rules {
	return &Rules{mode: mode}
}

// ExtractFields runs the report number, reviewer name and amount rules independently.
func (r *Rules) ExtractFields(text string) FieldResult {
	return FieldResult{
		ReportNumber: ReportNumber(text),
		ReviewerName: r.ReviewerName(text),
		Amount:       Amount(text),
	}
}

// ReportNumber prefers the "Expense Report [Number]:" label, then any standalone SHPC- token.
func ReportNumber(text string) string {
	if m := reReportTitle.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := reReportStandard.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// ReviewerName reads the name out of the title line, falling back to an owner label.
func (r *Rules) ReviewerName(text string) string {
	m := reNameTitle.FindStringSubmatch(text)
	if m != nil {
		if name := CleanName(m[1]); name != "" || r.mode == FallbackOnMiss {
			return name
		}
	}
	if m := reNameLabel.FindStringSubmatch(text); m != nil {
		return CleanName(m[1])
	}
	return ""
}

// Amount prefers "for ￥x.xx" and falls back to a Reimbursement / Total Amount label.
func Amount(text string) string {
	if m := reAmountFor.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := reAmountLabel.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// CleanName drops full-width parentheticals and keeps the first two Latin words.
func CleanName(raw string) string {
	raw = reFullWidthParen.ReplaceAllString(raw, "")
	words := reLatinWord.FindAllString(raw, 2)
	return strings.Join(words, " ")
}
