// Package api defines wire-format types and converters for the HTTP API
// layer. Every response embeds the `{success, message?}` envelope; DTOs use
// camelCase JSON tags for JavaScript consumers and strip server-only fields
// (challenge answers, grant tokens in listings) before they leave the process.
package api
