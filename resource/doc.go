// Package resource provides ownership containers for compile-time
// resources referenced by field programs.
//
// Operation compile routines may allocate lookup tables or reference
// externally owned, lockable resources (image grids, sampled curves). The
// compiled program owns a Set of them: Lockables are locked as they are
// registered, before any compile-time evaluation reads them, and
// everything is unlocked and dropped exactly once when the program is
// cleared or replaced.
package resource
