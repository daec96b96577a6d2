// Package session persists Instagram login sessions between runs.
//
// Each account's cookies live in <dir>/session-<username>, written
// atomically with mode 0600. Files are plain JSON by default; with
// EncryptedCodec they are sealed with AES-GCM under a PBKDF2-derived key.
package session
