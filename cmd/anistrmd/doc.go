// Command anistrmd runs the anistrm daemon without the CLI command tree, for
// service managers that expect a dedicated binary. It is equivalent to
// `anistrm daemon`.
package main
