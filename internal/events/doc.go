// Package events routes decoded feed events to their handlers. Each
// session builds one registry carrying that session's own TTS capability,
// so cooldown and duplicate-suppression state never leaks across streams.
package events
