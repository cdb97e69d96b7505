// Package assets resolves sound and sticker files on disk into the URLs the
// widget consumes. Sounds live flat under the sounds directory as
// <name>.mp3; stickers live in one directory per name containing an
// animation file and an optional audio file.
package assets
