package social

// fallbackDrafts is the canned batch used when the LLM is unavailable or
// returns an unparseable payload. GeneratePosts slices it to the requested
// count.
func fallbackDrafts() []generatedPost {
	return []generatedPost{
		{
			Content:        "New sounds are taking shape in the studio. Stay close — you will hear them first.",
			Platforms:      []string{"twitter", "instagram"},
			SuggestedMedia: "studio session photo",
		},
		{
			Content:        "Throwback to the last tour. Which city should we come back to first?",
			Platforms:      []string{"instagram"},
			SuggestedMedia: "live show photo",
		},
		{
			Content:        "Weekend listening sorted: the full catalog, front to back. Turn it up.",
			Platforms:      []string{"twitter", "facebook"},
			SuggestedMedia: "album artwork",
		},
	}
}
