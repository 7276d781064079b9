// Package notifications delivers sync events via ntfy.
//
// The ntfy implementation publishes to the topic URL configured in
// config.toml and degrades to a no-op when no topic is set. Each Event has a
// fixed title, tag set and priority so every run reports in the same shape.
// Successful runs that created nothing stay silent.
package notifications
