// Package expand rewrites Go files that call the runtime Printf marker into
// their generated counterparts. Each call site whose format is a string
// literal is checked at generation time and replaced by an expression that
// packs the arguments into a record and hands it to the runtime entry
// point.
//
// Input files carry a build constraint naming the build tag (vprintf by
// default); the generated file carries the negated constraint, so exactly
// one of the pair takes part in any build.
package expand
