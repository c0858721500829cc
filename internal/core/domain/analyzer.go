package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// QueryType is the resolved intent of a natural-language question.
type QueryType string

const (
	QueryCount      QueryType = "count"
	QuerySelect     QueryType = "select"
	QuerySummary    QueryType = "summary"
	QueryTrend      QueryType = "trend"
	QueryComparison QueryType = "comparison"
)

// TimeRange is a recognized time phrase with its rendered predicate template.
// The template references the date column as %[1]s so it may appear more than
// once.
type TimeRange struct {
	Phrase      string
	Template    string
	Description string
	// Reduction is the coarse selectivity factor applied to row estimates.
	Reduction float64
}

// Render fills the predicate template with a qualified date column.
func (tr TimeRange) Render(column string) string {
	return fmt.Sprintf(tr.Template, column)
}

// Analysis is the structured reading of a question. Absent features are zero
// values, never errors.
type Analysis struct {
	Intent    QueryType
	Words     []string
	Numbers   []int
	Statuses  []string
	IDs       []string
	TimeRange *TimeRange
	AggFunc   string // "", SUM, AVG, MAX, MIN
	WantsTop  bool
	WantsLow  bool
}

// intentRules is a fixed priority list: count beats list beats summary beats
// trend beats comparison. The default intent is select.
var intentRules = []rule[QueryType]{
	{containsAny("how many", "count", "number of"), QueryCount},
	{containsAny("show", "list", "display", "give me", "what are", "which"), QuerySelect},
	{containsAny("summar", "overview", "breakdown", "report"), QuerySummary},
	{containsAny("trend", "over time", "per day", "per week", "per month", "by day", "by week", "by month", "history"), QueryTrend},
	{containsAny("compare", "versus", " vs ", "difference between"), QueryComparison},
}

var aggRules = []rule[string]{
	{containsAny("sum of", "total "), "SUM"},
	{containsAny("average", "avg", "mean"), "AVG"},
	{containsAny("max", "highest", "most", "largest"), "MAX"},
	{containsAny("min", "lowest", "least", "smallest"), "MIN"},
}

// statusVocabulary is the bounded set of WMS status words recognized as
// filter entities.
var statusVocabulary = []string{
	"pending", "open", "closed", "complete", "completed", "shipped",
	"delivered", "picked", "packed", "received", "cancelled", "canceled",
	"active", "inactive", "released", "allocated", "staged", "on_hold",
}

// timePhrases is evaluated in order; longer phrases sit before their prefixes
// so "last week" wins over "week".
var timePhrases = []TimeRange{
	{"last week", "%[1]s >= date_trunc('week', CURRENT_DATE) - INTERVAL '7 days' AND %[1]s < date_trunc('week', CURRENT_DATE)", "last week", 0.1},
	{"this week", "%[1]s >= date_trunc('week', CURRENT_DATE)", "this week", 0.1},
	{"last month", "%[1]s >= date_trunc('month', CURRENT_DATE) - INTERVAL '1 month' AND %[1]s < date_trunc('month', CURRENT_DATE)", "last month", 0.25},
	{"this month", "%[1]s >= date_trunc('month', CURRENT_DATE)", "this month", 0.25},
	{"yesterday", "%[1]s >= CURRENT_DATE - INTERVAL '1 day' AND %[1]s < CURRENT_DATE", "yesterday", 0.01},
	{"today", "%[1]s >= CURRENT_DATE", "today", 0.01},
}

var (
	wordPattern   = regexp.MustCompile(`[a-z0-9_]+`)
	numberPattern = regexp.MustCompile(`\b\d+\b`)
	idPattern     = regexp.MustCompile(`\b[A-Za-z]{2,}-\d+\b|\b[A-Z]{2,}\d{2,}\b`)
	lastNDays     = regexp.MustCompile(`last (\d+) days?`)
	betweenDates  = regexp.MustCompile(`between (\d{4}-\d{2}-\d{2}) and (\d{4}-\d{2}-\d{2})`)
	quotedValue   = regexp.MustCompile(`'([^']+)'|"([^"]+)"`)
)

// Analyzer classifies intent and extracts entities from question text. It is
// stateless and safe for concurrent use.
type Analyzer struct{}

func NewAnalyzer() *Analyzer { return &Analyzer{} }

// Analyze reads a question into an Analysis. Unrecognized text yields the
// default select intent with empty entities.
func (a *Analyzer) Analyze(text string) Analysis {
	lower := strings.ToLower(text)

	out := Analysis{
		Intent:   firstMatch(intentRules, lower, QuerySelect),
		Words:    wordPattern.FindAllString(lower, -1),
		AggFunc:  firstMatch(aggRules, lower, ""),
		WantsTop: strings.Contains(lower, "top ") || strings.Contains(lower, "highest") || strings.Contains(lower, "most"),
		WantsLow: strings.Contains(lower, "bottom ") || strings.Contains(lower, "lowest") || strings.Contains(lower, "least"),
	}

	for _, n := range numberPattern.FindAllString(lower, -1) {
		if v, err := strconv.Atoi(n); err == nil {
			out.Numbers = append(out.Numbers, v)
		}
	}

	for _, status := range statusVocabulary {
		if containsWord(lower, status) {
			out.Statuses = append(out.Statuses, status)
		}
	}

	// Quoted values that are not recognized statuses are treated as ID-like
	// lookups ("find order 'SO-1042'").
	out.IDs = idPattern.FindAllString(text, -1)
	for _, m := range quotedValue.FindAllStringSubmatch(text, -1) {
		v := m[1]
		if v == "" {
			v = m[2]
		}
		if v != "" && !isStatusWord(strings.ToLower(v)) {
			out.IDs = append(out.IDs, v)
		}
	}

	out.TimeRange = matchTimePhrase(lower)
	return out
}

func matchTimePhrase(lower string) *TimeRange {
	if m := betweenDates.FindStringSubmatch(lower); m != nil {
		return &TimeRange{
			Phrase:      m[0],
			Template:    fmt.Sprintf("%%[1]s BETWEEN '%s' AND '%s'", m[1], m[2]),
			Description: fmt.Sprintf("between %s and %s", m[1], m[2]),
			Reduction:   0.25,
		}
	}
	if m := lastNDays.FindStringSubmatch(lower); m != nil {
		days, _ := strconv.Atoi(m[1])
		reduction := 0.1
		if days > 7 {
			reduction = 0.25
		}
		return &TimeRange{
			Phrase:      m[0],
			Template:    fmt.Sprintf("%%[1]s >= CURRENT_DATE - INTERVAL '%d days'", days),
			Description: m[0],
			Reduction:   reduction,
		}
	}
	for i := range timePhrases {
		if strings.Contains(lower, timePhrases[i].Phrase) {
			tr := timePhrases[i]
			return &tr
		}
	}
	return nil
}

func containsWord(text, word string) bool {
	idx := strings.Index(text, word)
	for idx >= 0 {
		before := idx == 0 || !isWordByte(text[idx-1])
		end := idx + len(word)
		after := end == len(text) || !isWordByte(text[end])
		if before && after {
			return true
		}
		next := strings.Index(text[idx+1:], word)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isStatusWord(s string) bool {
	for _, v := range statusVocabulary {
		if s == v {
			return true
		}
	}
	return false
}
