// Package chats provides a backend-agnostic data model for assistant
// conversations.
//
// It is organized into sub-packages:
//   - [github.com/parley-cli/parley/pkg/chats/role] — conversation roles (system, user, assistant)
//   - [github.com/parley-cli/parley/pkg/chats/content] — content parts (text, file, image)
//   - [github.com/parley-cli/parley/pkg/chats/message] — messages composed of a role and content parts
//   - [github.com/parley-cli/parley/pkg/chats/chat] — append-only conversation history
//
// No backend or transport code is included — chats is a foundation layer
// that backend adapters build on.
package chats
