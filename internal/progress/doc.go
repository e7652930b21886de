// Package progress turns a habit's completion ledger into streaks and a
// vitality score, and a goal's count or checklist into a completion
// percentage.
//
// Everything here is a pure calculation over its inputs. Reads go through
// the Ledger interface and "today" is always supplied by the caller, usually
// via a Clock, so results are identical whether a day is evaluated live or
// replayed later from history. Persisting the results is the caller's job.
package progress
