package generate

import "strings"

var arithmeticOperators = map[string]string{
	"ADD":      "add",
	"MINUS":    "subtract",
	"MULTIPLY": "multiply",
	"DIVIDE":   "divide",
	"POWER":    "power",
	"MOD":      "modulo",
	"MIN":      "min",
	"MAX":      "max",
}

var comparisonOperators = map[string]string{
	"<=": "lessThanOrEqual",
	">=": "greaterThanOrEqual",
	"==": "equal",
	"!=": "notEqual",
	"<":  "lessThan",
	">":  "greaterThan",
}

// block comparison OP field -> comparison symbol
var blockComparisons = map[string]string{
	"EQ":  "==",
	"NEQ": "!=",
	"LT":  "<",
	"LTE": "<=",
	"GT":  ">",
	"GTE": ">=",
}

// ArithmeticOperator maps a block operator (ADD, MINUS, ...) to the document
// operator. Unmatched operators map to "add".
func ArithmeticOperator(op string) string {
	if mapped, ok := arithmeticOperators[op]; ok {
		return mapped
	}
	return "add"
}

// ComparisonOperator maps a comparison symbol (<=, ==, ...) to the document
// operator. Unmatched symbols map to "equal".
func ComparisonOperator(symbol string) string {
	if mapped, ok := comparisonOperators[strings.TrimSpace(symbol)]; ok {
		return mapped
	}
	return "equal"
}

// BlockComparison maps a block comparison OP (EQ, LTE, ...) to its symbol.
// Unmatched operators map to "==".
func BlockComparison(op string) string {
	if symbol, ok := blockComparisons[op]; ok {
		return symbol
	}
	return "=="
}

// LogicalOperator maps a block logic OP (AND, OR) to the document operator.
// Unmatched operators map to "and".
func LogicalOperator(op string) string {
	if op == "OR" {
		return "or"
	}
	return "and"
}
