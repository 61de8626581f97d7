// Package interval implements closed-range arithmetic over float32 values.
//
// It is the numeric substrate of the runtime's range-analysis pass: every
// operation in the catalog has a range routine that maps input intervals to
// a sound over-approximation of its output interval. Soundness, not
// tightness, is the contract; a routine may return a wider interval than
// strictly necessary but never a narrower one.
package interval
