// Package editor composes the live-preview components into one editor.
//
// An Editor owns the canonical content of one draft and keeps four
// collaborators in step with it:
//
//   - the mapper, which translates content offsets to tree positions
//   - the preview renderer, which decorates the tree after each pause in typing
//   - the history, which records every edit as an invertible transaction
//   - the persistence coordinator, which autosaves locally and remotely
//
// Every entry point takes the same mutex, so keystrokes, render passes fired
// by the debounce timer and autosave snapshots never interleave. The
// persistence goroutines call back into the editor for snapshots; methods
// that wait on them release the mutex first.
//
// Typing schedules a debounced render. Discrete commands (formatting,
// content insertion, undo and redo) render at once. During an IME
// composition neither rendering nor history recording happens; the whole
// composition becomes one transaction when it ends.
package editor
