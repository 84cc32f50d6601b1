package verification

// fallbackBank is the built-in question bank used when the LLM is
// unavailable or returns an unparseable payload. GenerateChallenge slices it
// to the question count for the requested difficulty, so the first entries
// serve every difficulty level.
func fallbackBank() []Question {
	return []Question{
		{
			ID:            "fallback-1",
			Question:      "What was the band's debut album called?",
			Type:          TypeMultipleChoice,
			Options:       []string{"First Album", "Second Wind", "Night Drive", "Opening Act"},
			CorrectAnswer: "First Album",
		},
		{
			ID:            "fallback-2",
			Question:      "In what year was the debut album released?",
			Type:          TypeText,
			CorrectAnswer: "2010",
		},
		{
			ID:            "fallback-3",
			Question:      "The band has toured internationally. True or false?",
			Type:          TypeBoolean,
			Options:       []string{"true", "false"},
			CorrectAnswer: "true",
		},
		{
			ID:            "fallback-4",
			Question:      "Which instrument does the founding member play?",
			Type:          TypeMultipleChoice,
			Options:       []string{"Guitar", "Drums", "Bass", "Keys"},
			CorrectAnswer: "Guitar",
		},
		{
			ID:            "fallback-5",
			Question:      "What city is the band originally from?",
			Type:          TypeText,
			CorrectAnswer: "Portland",
		},
	}
}
