package nl2sql

import (
	"context"
	"strings"
)

const ProviderRules = "rules"

const (
	sqlCountCustomers = "SELECT COUNT(*) as total_customers FROM customers;"
	sqlTopCities      = "SELECT city, COUNT(*) as customer_count FROM customers GROUP BY city ORDER BY customer_count DESC LIMIT 10;"
	sqlListCities     = "SELECT DISTINCT city, COUNT(*) as customer_count FROM customers GROUP BY city ORDER BY city;"
	sqlRecent         = "SELECT * FROM customers ORDER BY registration_date DESC LIMIT 10;"
	sqlDefault        = "SELECT * FROM customers LIMIT 10;"
)

type rule struct {
	name  string
	match func(q string) bool
	sql   string
}

// Rules are checked in order and the first match wins.
var fallbackRules = []rule{
	{
		name: "count_customers",
		match: func(q string) bool {
			return containsAny(q, "how many", "count") && strings.Contains(q, "customer")
		},
		sql: sqlCountCustomers,
	},
	{
		name: "top_cities",
		match: func(q string) bool {
			return containsAny(q, "top", "best") && containsAny(q, "city", "cities")
		},
		sql: sqlTopCities,
	},
	{
		name: "list_cities",
		match: func(q string) bool {
			return containsAny(q, "what", "which") && containsAny(q, "city", "cities")
		},
		sql: sqlListCities,
	},
	{
		name: "recent_customers",
		match: func(q string) bool {
			return containsAny(q, "recent", "latest")
		},
		sql: sqlRecent,
	},
}

// FallbackSQL classifies a question with the fixed keyword rules. It always
// returns a SELECT statement.
func FallbackSQL(question string) string {
	sql, _ := matchRule(question)
	return sql
}

func matchRule(question string) (string, string) {
	q := strings.ToLower(question)
	for _, r := range fallbackRules {
		if r.match(q) {
			return r.sql, r.name
		}
	}
	return sqlDefault, "default"
}

type RuleTranslator struct{}

func (RuleTranslator) Translate(_ context.Context, req Request) (Result, error) {
	sql, name := matchRule(req.Question)
	return Result{SQL: sql, Provider: ProviderRules, Model: name}, nil
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
