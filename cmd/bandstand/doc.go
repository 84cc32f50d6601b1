// Command bandstand is the operator CLI. It talks to a running bandstandd
// over its HTTP API: archive uploads and listings, verification quizzes,
// the social draft board, and delegation grants.
package main
