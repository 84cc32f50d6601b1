// Package verification generates fan verification quizzes and grades the
// submitted answers. Question generation asks the LLM once and degrades to a
// built-in question bank on any failure; grading is trimmed case-insensitive
// exact match with a 70% pass threshold. Passing raises the user's access
// level monotonically and opens a seven-day access window.
package verification
