// Package engine contains the tick driver and simulation systems.
// This is the heartbeat of the escape simulation.
//
// ARCHITECTURAL RULE: a single Engine owns the game state. Every mutation
// happens under its lock, either inside a tick or inside a command, never
// interleaved.
package engine
