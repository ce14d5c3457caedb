// Package memory gives agents recall across sessions.
//
// Two memory types ship with the package: TraceMemory holds
// thought-action-observation cycles from past runs, ConversationMemory
// holds exchanges that never touched a tool. Both are namespaced by
// UserID so one user's lending history never leaks into another's
// prompt.
//
// Architecture:
//   - Store: vector storage backend (chromem-go, embedded and pure Go)
//   - Embedder: text-to-vector conversion (hash-based mock by default,
//     ONNX with all-MiniLM-L6-v2 behind the onnx build tag)
//   - Manager: decides what to retrieve, how to format it, and which
//     traces and exchanges are worth keeping
//
// The engine calls Retrieve before its loop and RecordTraces and
// RecordConversation after it. Everything here is best-effort; a
// memory failure never fails the run.
package memory
