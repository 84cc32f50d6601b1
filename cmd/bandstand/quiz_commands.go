package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bandstand/internal/api"
)

func newQuizCommand(ctx *commandContext) *cobra.Command {
	quizCmd := &cobra.Command{
		Use:   "quiz",
		Short: "Fan verification quizzes",
	}

	quizCmd.AddCommand(newQuizGenerateCommand(ctx))
	quizCmd.AddCommand(newQuizAnswerCommand(ctx))

	return quizCmd
}

func newQuizGenerateCommand(ctx *commandContext) *cobra.Command {
	var difficulty int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a verification challenge",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var response api.ChallengeResponse
			err = client.post(cmd.Context(), "/api/ai/verify", api.VerifyRequest{
				Action:     api.VerifyActionGenerate,
				Difficulty: difficulty,
			}, &response)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, response)
			}
			if response.Challenge == nil {
				return fmt.Errorf("daemon returned no challenge")
			}

			out := cmd.OutOrStdout()
			challenge := response.Challenge
			fmt.Fprintf(out, "Challenge %s (difficulty %d, grants tier %d, expires %s)\n",
				challenge.ID, challenge.Difficulty, challenge.AccessTier,
				challenge.ExpiresAt.Local().Format("15:04:05"))
			for i, question := range challenge.Questions {
				fmt.Fprintf(out, "%d. [%s] %s\n", i+1, question.ID, question.Question)
				for _, option := range question.Options {
					fmt.Fprintf(out, "     - %s\n", option)
				}
			}
			fmt.Fprintf(out, "\nAnswer with: bandstand quiz answer %s --user <id> --answer <question-id>=<answer>\n", challenge.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&difficulty, "difficulty", 1, "Challenge difficulty (1-3)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit raw JSON")
	return cmd
}

func newQuizAnswerCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var answers []string

	cmd := &cobra.Command{
		Use:   "answer <challenge-id>",
		Short: "Submit challenge answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(userID) == "" {
				return fmt.Errorf("--user is required")
			}
			responses := make(map[string]string, len(answers))
			for _, pair := range answers {
				key, value, found := strings.Cut(pair, "=")
				if !found || strings.TrimSpace(key) == "" {
					return fmt.Errorf("answer %q is not in <question-id>=<answer> form", pair)
				}
				responses[strings.TrimSpace(key)] = value
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			var evaluation api.EvaluationResponse
			err = client.post(cmd.Context(), "/api/ai/verify", api.VerifyRequest{
				Action:      api.VerifyActionEvaluate,
				UserID:      userID,
				ChallengeID: args[0],
				Responses:   responses,
			}, &evaluation)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Score: %d%% (%d/%d correct)\n", evaluation.Score, evaluation.Correct, evaluation.Total)
			if evaluation.Passed {
				fmt.Fprintf(out, "Passed; access level is now %d\n", evaluation.NewAccessLevel)
			} else {
				fmt.Fprintln(out, "Not passed")
			}
			if evaluation.Feedback != "" {
				fmt.Fprintln(out, evaluation.Feedback)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User identifier")
	cmd.Flags().StringSliceVar(&answers, "answer", nil, "Answer as <question-id>=<answer> (repeatable)")
	return cmd
}
