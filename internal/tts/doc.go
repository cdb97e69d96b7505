// Package tts provides the text-to-speech capability: pluggable backends
// (ElevenLabs, OpenAI), a file cache keyed by text plus every
// audio-affecting parameter, request de-duplication, and a circuit-breaking
// fallback composite.
package tts
