package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/argusia/argus/internal/dataset"
)

const (
	postsFileName    = "posts.csv"
	commentsFileName = "comments.csv"
)

type generateFlags struct {
	posts    int
	comments int
	ratio    float64
	seed     int64
	outDir   string
}

func generateCommand(opts *options) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic dataset",
		Long:  `Generate synthetic posts and comments and write them as posts.csv and comments.csv.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := opts.cfg.Detection
			if !cmd.Flags().Changed("posts") {
				flags.posts = d.DefaultPosts
			}
			if !cmd.Flags().Changed("comments") {
				flags.comments = d.DefaultComments
			}
			if !cmd.Flags().Changed("ratio") {
				flags.ratio = d.DefaultRatio
			}
			if !cmd.Flags().Changed("seed") {
				flags.seed = time.Now().UnixNano()
			}
			return runGenerate(cmd, flags)
		},
	}

	cmd.Flags().IntVar(&flags.posts, "posts", 0, "Number of posts")
	cmd.Flags().IntVar(&flags.comments, "comments", 0, "Number of comments")
	cmd.Flags().Float64Var(&flags.ratio, "ratio", 0, "Fraction of suspicious comments in [0, 1]")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "Random seed for reproducible output")
	cmd.Flags().StringVarP(&flags.outDir, "output", "o", ".", "Directory to write the CSV files to")

	return cmd
}

func runGenerate(cmd *cobra.Command, flags *generateFlags) error {
	tables, actual, err := dataset.NewGenerator(flags.seed).Generate(flags.posts, flags.comments, flags.ratio)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(flags.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeFile(filepath.Join(flags.outDir, postsFileName), func(f *os.File) error {
		return dataset.WritePosts(f, tables.Posts)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(flags.outDir, commentsFileName), func(f *os.File) error {
		return dataset.WriteComments(f, tables.Comments)
	}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d posts and %d comments (%d suspicious, seed %d) in %s\n",
		len(tables.Posts), len(tables.Comments), actual, flags.seed, flags.outDir)
	return nil
}

// writeFile creates path and hands it to write.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
