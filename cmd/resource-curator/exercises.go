// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/resource-curator/internal/exercise"
	"github.com/pdiddy/resource-curator/pkg/types"
)

var exercisesCmd = &cobra.Command{
	Use:   "exercises",
	Short: "Generate and list practice exercises",
}

var exercisesGenerateCmd = &cobra.Command{
	Use:   "generate <knowledge point>",
	Short: "Generate one multiple-choice, fill-in-the-blank, and short-answer question",
	Long: `Generate asks the configured text generator for three exercises on a
knowledge point and stores them. Requires ai.enabled and an API key.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExercisesGenerate,
}

func runExercisesGenerate(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	gen := e.generator()
	if gen == nil {
		return fmt.Errorf("text generation is not configured: set ai.enabled and an API key")
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	set, err := exercise.New(gen, st).Generate(e.ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeIndented(set)
	}
	formatExercises(set.Exercises, os.Stdout)
	return nil
}

var exercisesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		kp, _ := cmd.Flags().GetString("knowledge-point")
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")

		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		st, err := e.openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		result, err := st.ListExercises(e.ctx, kp, page, pageSize)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeIndented(result)
		}
		formatExercises(result.Items, os.Stdout)
		fmt.Printf("\nPage %d of %d (%d total)\n", result.Page, result.TotalPages, result.Total)
		return nil
	},
}

func init() {
	exercisesGenerateCmd.Flags().Bool("json", false, "output the exercise set as JSON")

	exercisesListCmd.Flags().String("knowledge-point", "", "only exercises for this knowledge point")
	exercisesListCmd.Flags().Int("page", 1, "page number")
	exercisesListCmd.Flags().Int("page-size", types.DefaultPageSize, "exercises per page")
	exercisesListCmd.Flags().Bool("json", false, "output the page as JSON")

	exercisesCmd.AddCommand(exercisesGenerateCmd, exercisesListCmd)
	rootCmd.AddCommand(exercisesCmd)
}

func formatExercises(exercises []types.Exercise, w io.Writer) {
	if len(exercises) == 0 {
		fmt.Fprintln(w, "No exercises found.")
		return
	}
	for i, ex := range exercises {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, ex.Kind, ex.Question)
		for _, opt := range ex.Options {
			fmt.Fprintf(w, "     %s\n", opt)
		}
		fmt.Fprintf(w, "   Answer: %s\n", ex.Answer)
		if ex.Explanation != "" {
			fmt.Fprintf(w, "   %s\n", ex.Explanation)
		}
		fmt.Fprintln(w)
	}
}
