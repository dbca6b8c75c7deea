package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/dataset"
	"github.com/argusia/argus/internal/detection"
	"github.com/argusia/argus/internal/service"
	"github.com/argusia/argus/internal/utils"
)

type analyzeFlags struct {
	postsPath    string
	commentsPath string
	outPath      string
	catalogPath  string
	top          int
}

func analyzeCommand(opts *options) *cobra.Command {
	flags := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the detection pipeline over CSV files",
		Long: `Train a classifier on a posts/comments CSV pair, print a summary and write the
suspicious comments in the export layout. Nothing is stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, flags)
		},
	}

	cmd.Flags().StringVar(&flags.postsPath, "posts", "", "Path to the posts CSV")
	cmd.Flags().StringVar(&flags.commentsPath, "comments", "", "Path to the comments CSV")
	cmd.Flags().StringVarP(&flags.outPath, "output", "o", "", "Write suspicious comments to this CSV file instead of stdout")
	cmd.Flags().StringVar(&flags.catalogPath, "catalog", "", "Pattern catalog YAML file (defaults to the configured or built-in catalog)")
	cmd.Flags().IntVar(&flags.top, "top", 5, "Number of users and posts to print")
	_ = cmd.MarkFlagRequired("posts")
	_ = cmd.MarkFlagRequired("comments")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *options, flags *analyzeFlags) error {
	tables, err := readTables(flags.postsPath, flags.commentsPath)
	if err != nil {
		return err
	}

	catalogPath := flags.catalogPath
	if catalogPath == "" {
		catalogPath = opts.cfg.Detection.CatalogPath
	}
	catalog := detection.DefaultCatalog()
	if catalogPath != "" {
		if catalog, err = detection.LoadCatalog(catalogPath); err != nil {
			return err
		}
	}

	started := time.Now()
	result, err := service.NewPipelineFromSettings(catalog, opts.cfg.Detection).Run(tables)
	if err != nil {
		return err
	}

	log.Info().
		Str("category", constants.LogCategoryPipeline).
		Int("comments", result.TotalComments).
		Int("suspicious", result.SuspiciousCount).
		Dur("duration", time.Since(started)).
		Msg("Analysis finished")

	printSummary(cmd.OutOrStdout(), result, flags.top)

	if flags.outPath == "" {
		return service.WriteSuspiciousCSV(cmd.OutOrStdout(), result.Results.Comments, started)
	}
	if err := writeFile(flags.outPath, func(f *os.File) error {
		return service.WriteSuspiciousCSV(f, result.Results.Comments, started)
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Suspicious comments written to %s\n", flags.outPath)
	return nil
}

func readTables(postsPath, commentsPath string) (*dataset.Tables, error) {
	postsFile, err := os.Open(postsPath)
	if err != nil {
		return nil, err
	}
	defer postsFile.Close()

	commentsFile, err := os.Open(commentsPath)
	if err != nil {
		return nil, err
	}
	defer commentsFile.Close()

	posts, err := dataset.ReadPosts(postsFile)
	if err != nil {
		return nil, err
	}
	comments, err := dataset.ReadComments(commentsFile)
	if err != nil {
		return nil, err
	}

	tables := &dataset.Tables{Posts: posts, Comments: comments}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return tables, nil
}

func printSummary(w io.Writer, result *service.PipelineResult, top int) {
	fmt.Fprintf(w, "Comments analyzed:   %d\n", result.TotalComments)
	fmt.Fprintf(w, "Suspicious comments: %d (%.2f%%)\n",
		result.SuspiciousCount, utils.Percentage(result.SuspiciousCount, result.TotalComments))
	fmt.Fprintf(w, "Accuracy:            %.4f (%s labels)\n", result.Accuracy, result.LabelSource)
	if result.SkippedComments > 0 {
		fmt.Fprintf(w, "Skipped comments:    %d\n", result.SkippedComments)
	}

	users := result.Results.Users
	if len(users) > top {
		users = users[:top]
	}
	if len(users) > 0 {
		fmt.Fprintln(w, "Top users:")
		for _, u := range users {
			fmt.Fprintf(w, "  %-24s %3d/%-3d %6.2f%%\n", u.Username, u.SuspiciousCount, u.TotalCount, u.SuspicionScore)
		}
	}

	posts := result.Results.Posts
	if len(posts) > top {
		posts = posts[:top]
	}
	if len(posts) > 0 {
		fmt.Fprintln(w, "Top posts:")
		for _, p := range posts {
			fmt.Fprintf(w, "  post %-8d %3d/%-3d %6.2f%%\n", p.PostID, p.SuspiciousCount, p.TotalCount, p.SuspicionRatio)
		}
	}
}
