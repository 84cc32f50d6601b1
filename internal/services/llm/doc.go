// Package llm wraps an OpenAI-compatible chat completion endpoint for the
// verification quiz and social draft generators. Responses are requested as
// JSON and decoded leniently: code fences are stripped and the outermost JSON
// object or array is extracted from surrounding prose. There is no retry
// policy; a failure surfaces once and the caller degrades to canned content.
package llm
