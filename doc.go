// Package cellcalc implements a small arbitrary-precision calculator language
// evaluated like the cells of a spreadsheet.
//
// A script is a list of lines. Each line is either empty, an expression, or
// an assignment "name = expression". Lines may refer to names assigned on
// earlier lines and to constants supplied by the host. "-2^-3" is the same as
// "-(2^(-3))", and "a^b^c" is "a^(b^c)".
//
// An Engine keeps per-line results between calls to Execute, so that editing
// a line of a long script only recomputes that line and the ones after it.
//
package cellcalc
