// Package expr implements the closed boolean condition language used to
// gate workflow steps
//
// The grammar admits variable references ($name), numeric, string, and
// boolean literals, the comparison operators < > <= >= == !=, the boolean
// combinators && and ||, and parentheses. Nothing else lexes: conditions
// are user- and AI-authored strings evaluated against live data, so any
// input outside the grammar is rejected during scanning rather than
// filtered by an allow-list
package expr
