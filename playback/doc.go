// Package playback contains the player-side position persistence and resume logic.
//
// It provides:
//   - PositionStore: per-video playback position records with expiry, stored
//     under "video_position_<id>" keys in a kvstore.Store.
//   - ResumeController: the state machine that restores a saved position on the
//     first play of a freshly loaded video, suppresses saves while its own
//     corrective seek is in flight, saves periodically while playing, and
//     coalesces rapid user seeks.
//   - Preferences: chat UI preferences stored under "chat_<name>" keys.
//
// The controller is driven by player events (OnPlay, OnPause, OnSeeked,
// OnEnded) and never touches a concrete player; embedders adapt their player to
// the Player interface and supply a Scheduler for timers.
package playback
