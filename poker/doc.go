// Package poker evaluates Texas Hold'em hands and computes showdown
// equity.
//
// Cards live in a 52-bit CardSet; Evaluate maps any 1-7 card set to a
// totally ordered 32-bit Strength via startup-built lookup tables. The
// equity engine enumerates or samples board completions on top of the
// evaluator, with range-vs-range and live streaming variants. The
// evaluator and enumerator are pure and safe for concurrent use; all
// sampling takes an explicit random source.
package poker
