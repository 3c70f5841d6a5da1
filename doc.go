// Package strata contains the core components of Strata, a library for lazy, stage-planned
// dataset derivation and execution. This root package defines types which are employed during
// the regular use of the library, as well as in the extension of the library, and is an
// excellent overview of Strata's key concepts.
package strata
