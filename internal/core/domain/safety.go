package domain

import (
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// SafetyResult is the validator's verdict. Safe=false with Score 0.0 is
// terminal: the SQL must never reach the database. Warnings describe soft
// anti-patterns on queries that remain executable.
type SafetyResult struct {
	Safe       bool
	Score      float64
	Violations []string
	Warnings   []string
}

// denylist matches destructive or dynamic-SQL keywords anywhere in the text,
// case-insensitively, including inside comments and string literals. False
// positives are acceptable; false negatives are not.
var denylist = regexp.MustCompile(`(?i)\b(drop|delete|truncate|alter|create|insert|update|merge|grant|revoke|exec|execute|call|bulk|do|copy|sp_executesql|xp_cmdshell)\b`)

var (
	selectStarPattern = regexp.MustCompile(`(?i)select\s+\*`)
	joinPattern       = regexp.MustCompile(`(?i)\bjoin\b`)
	joinOnPattern     = regexp.MustCompile(`(?i)\b(on|using)\b`)
	subqueryPattern   = regexp.MustCompile(`(?i)\(\s*select\b`)
)

// SafetyValidator scores SQL before execution. Hard rejections come from the
// keyword denylist and from parsing against PostgreSQL's actual grammar:
// anything that is not a single SELECT (or EXPLAIN) statement is refused.
// Soft findings only decrement the score and warn.
type SafetyValidator struct{}

func NewSafetyValidator() *SafetyValidator { return &SafetyValidator{} }

// Validate returns the safety verdict for one SQL statement.
func (v *SafetyValidator) Validate(sql string) SafetyResult {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return rejected("empty statement")
	}

	if m := denylist.FindString(trimmed); m != "" {
		return rejected(fmt.Sprintf("forbidden keyword %q", strings.ToUpper(m)))
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return rejected("statement does not parse: " + err.Error())
	}
	if len(tree.Stmts) == 0 {
		return rejected("empty statement")
	}
	if len(tree.Stmts) > 1 {
		return rejected("multiple statements are not allowed")
	}
	switch tree.Stmts[0].Stmt.Node.(type) {
	case *pg_query.Node_SelectStmt, *pg_query.Node_ExplainStmt:
	default:
		return rejected("only SELECT statements are allowed")
	}

	return v.scoreSoft(trimmed)
}

// scoreSoft starts at 1.0 and decrements per anti-pattern, floored at zero.
// None of these block execution.
func (v *SafetyValidator) scoreSoft(sql string) SafetyResult {
	res := SafetyResult{Safe: true, Score: 1.0}
	upper := strings.ToUpper(sql)

	if selectStarPattern.MatchString(sql) {
		res.Score -= 0.1
		res.Warnings = append(res.Warnings, "SELECT * returns every column; name the columns you need")
	}
	if !strings.Contains(upper, "WHERE") {
		res.Score -= 0.2
		res.Warnings = append(res.Warnings, "query has no filter and may scan the whole table")
	}
	if joins, ons := len(joinPattern.FindAllString(sql, -1)), len(joinOnPattern.FindAllString(sql, -1)); joins > ons {
		res.Score -= 0.3
		res.Warnings = append(res.Warnings, "JOIN without a join condition produces a cartesian product")
	}
	if len(subqueryPattern.FindAllString(sql, -1)) > 2 {
		res.Score -= 0.1
		res.Warnings = append(res.Warnings, "deeply nested subqueries are hard to optimize")
	}

	if res.Score < 0 {
		res.Score = 0
	}
	return res
}

func rejected(reason string) SafetyResult {
	return SafetyResult{Safe: false, Score: 0.0, Violations: []string{reason}}
}
