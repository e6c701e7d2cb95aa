package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/filtering"
	"github.com/spigell/assessment-recommender/internal/recommender"
)

const (
	PromptExit     = "exit"
	jobPromptLabel = "Job description or URL"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend assessments for a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		recommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("text", "t", "", "job description text")
	recommendCmd.Flags().StringP("url", "u", "", "url of a job posting")
	recommendCmd.Flags().String("test-type", "", "keep only recommendations whose test type contains this value")
	recommendCmd.Flags().Bool("remote-only", false, "keep only assessments that support remote testing")
}

func recommend(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		lg.Fatal("getting a config", zap.Error(err))
	}

	text, _ := cmd.Flags().GetString("text")
	url, _ := cmd.Flags().GetString("url")

	interactive := strings.TrimSpace(text) == "" && strings.TrimSpace(url) == ""
	if interactive {
		text, url, err = askJob()
		if err != nil {
			lg.Fatal("exiting", zap.Error(err))
		}
	}

	c, err := buildComponents(ctx, config, lg)
	if err != nil {
		lg.Fatal("building components", zap.Error(err))
	}

	cat, err := c.store.Get(ctx, false)
	if err != nil {
		lg.Fatal("loading assessment catalog", zap.Error(err))
	}

	res, err := c.recommender.Recommend(ctx, recommender.Request{Text: text, URL: url}, cat)
	if err != nil {
		lg.Fatal("recommending assessments", zap.Error(err))
	}

	items := filtering.Run(recommendFilters(cmd), res.Recommendations, lg)
	if len(items) == 0 {
		lg.Info("exiting", zap.String("reason", "no relevant assessments found"))
		return
	}

	printAssessments(items)

	if interactive {
		if err := browse(items); err != nil && !errors.Is(err, promptui.ErrInterrupt) {
			lg.Fatal("exiting", zap.Error(err))
		}
	}
}

func recommendFilters(cmd *cobra.Command) []filtering.Filter {
	criteria := filtering.Criteria{}
	criteria.TestType, _ = cmd.Flags().GetString("test-type")
	if remoteOnly, _ := cmd.Flags().GetBool("remote-only"); remoteOnly {
		criteria.Remote = &remoteOnly
	}
	return criteria.Steps()
}

// askJob reads the job from the terminal. Input that looks like a link is a URL.
func askJob() (string, string, error) {
	prompt := promptui.Prompt{
		Label: jobPromptLabel,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return recommender.ErrEmptyRequest
			}
			return nil
		},
	}

	input, err := prompt.Run()
	if err != nil {
		return "", "", err
	}

	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return "", input, nil
	}
	return input, "", nil
}

func printAssessments(items []catalog.Assessment) {
	for i, a := range items {
		fmt.Printf("%2d. %s\n    %s\n    type: %s, duration: %s, remote: %t, adaptive: %t\n",
			i+1, a.Name, a.URL, a.TestType, a.Duration, a.RemoteTesting, a.AdaptiveSupport)
	}
}

// browse lets the user open the full record of any recommendation.
func browse(items []catalog.Assessment) error {
	labels := make([]string, 0, len(items)+1)
	for i, a := range items {
		labels = append(labels, fmt.Sprintf("%d %s", i+1, a.Name))
	}

	for {
		selectPrompt := promptui.Select{
			Label: "Choose an assessment to see details",
			Items: append(labels, PromptExit),
		}

		idx, selected, err := selectPrompt.Run()
		if err != nil {
			return err
		}

		if selected == PromptExit {
			return nil
		}

		// do not bother error since the record is plain data
		pretty, _ := json.MarshalIndent(items[idx], "", "  ")
		fmt.Println(string(pretty))
	}
}
