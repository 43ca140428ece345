// Package engine provides the authoritative match simulation for Pong Arena.
//
// The engine package implements:
//   - Fixed-timestep ball and paddle movement
//   - Wall reflection and paddle contact with angle-based rebounds
//   - Ball speed-up on every paddle hit, bounded by a configured cap
//   - Scoring, the pause between points and the winning condition
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the contract used by rooms, implemented by
// GameEngine. GameState is the full simulation state, Frame is the compact
// per-tick delta sent to players, and GameConfig holds the geometry and rules
// loaded from JSON or YAML files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.SetIntent(engine.SideA, engine.IntentUp)
//	events := gameEngine.Step()
//	frame := gameEngine.Frame()
//
// Phases:
//
// A match starts in countdown, becomes active, drops into a scoring pause
// after every point and ends in finished once a player reaches the winning
// score. The simulation only advances through Step, so the same sequence of
// intents always produces the same match.
package engine
