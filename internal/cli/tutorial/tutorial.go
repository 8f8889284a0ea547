package tutorial

import (
	_ "embed"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/cli/styles"
)

//go:embed tutorial.md
var tutorialContent string

// TutorialCmd returns the tutorial command
func TutorialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tutorial",
		Short: "Print the pizarra workflow cheat sheet",
		Long: `Print the pizarra workflow in markdown.

Raw markdown suits agents and scripts; --render formats it for the terminal.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			render, _ := cmd.Flags().GetBool("render")
			outputTutorial(render)
		},
	}
	cmd.Flags().Bool("render", false, "Render the markdown for the terminal")
	return cmd
}

func outputTutorial(render bool) {
	if render {
		fmt.Println(styles.RenderDescription(tutorialContent, styles.CardWidth))
		return
	}
	fmt.Print(tutorialContent)
}
