// Package notifications delivers operational events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Per-category flags (uploads, verification, drafts, errors) let
// operators silence noisy categories without losing error alerts.
//
// Extend this package if you need alternative transports; all domain code
// depends only on the simple Service interface.
package notifications
