// Package stats exposes runtime statistics describing the most recent execution of a Strata plan
package stats
