// Package strm writes the pointer files a media server plays remote episodes
// from. Each file is named after the episode title and holds a single direct
// download URL with no trailing newline.
package strm
