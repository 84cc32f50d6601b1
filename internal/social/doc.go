// Package social generates candidate social-media posts via the LLM and runs
// the moderation workflow over them: open voting plus a
// draft/approved/posted/rejected status progression. Media matching between a
// draft's suggested description and archived assets is deliberately
// best-effort keyword overlap with a random fallback.
package social
