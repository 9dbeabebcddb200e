// Package state holds the chat history kept in memory and the workflow
// definitions file kept on disk.
package state

import "github.com/user/chathub/internal/types"

// Compile-time interface compliance checks.
var _ types.HistoryStore = (*History)(nil)
