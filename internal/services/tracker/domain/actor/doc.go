// Package actor models combatants tracked in a combat session.
//
// An actor carries its tier (which decides the initiative die), a hit point
// pool that never leaves [0, MaxHP], and an ordered list of timed statuses.
// The package also owns the relative-edit convention shared by every numeric
// field: "+n" and "-n" adjust the current value, a bare number replaces it.
package actor
