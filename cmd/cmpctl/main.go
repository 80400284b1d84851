package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cmp-dialogue/internal/logger"
	"cmp-dialogue/internal/question"
	"cmp-dialogue/internal/retry"
	"cmp-dialogue/internal/search"
	"cmp-dialogue/internal/summarize"
)

func main() {
	var (
		verbose bool
		timeout time.Duration
	)

	rootCmd := &cobra.Command{
		Use:   "cmpctl",
		Short: "Offline tools for the CMP dialogue service",
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to the console")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")

	newLogger := func() logger.Logger {
		if verbose {
			return logger.New(logger.Options{Level: "debug"})
		}
		return logger.NewNop()
	}

	var (
		sentences int
		inputFile string
	)
	summarizeCmd := &cobra.Command{
		Use:   "summarize [text]",
		Short: "Extractive summary of text or a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args, inputFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summarize.NewSummarizer().Summarize(text, sentences))
			return nil
		},
	}
	summarizeCmd.Flags().IntVarP(&sentences, "sentences", "n", 5, "Sentences to keep")
	summarizeCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Read text from file (- for stdin)")

	extractCmd := &cobra.Command{
		Use:   "extract [text]",
		Short: "List the questions found in text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args, inputFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), question.Extract(text))
		},
	}
	extractCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Read text from file (- for stdin)")

	var (
		count  int
		offset int
	)
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search DuckDuckGo and print result URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			log := newLogger()
			defer func() { _ = log.Sync() }()

			policy := retry.DefaultPolicy()
			policy.Logger = log
			ddg := search.NewDuckDuckGo(timeout, search.DuckDuckGoOptions{
				Pacer:  search.NewPacer(time.Second),
				Policy: policy,
				Logger: log,
			})
			urls, err := ddg.Search(ctx, strings.Join(args, " "), count, offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), urls)
		},
	}
	searchCmd.Flags().IntVar(&count, "count", 5, "Number of results")
	searchCmd.Flags().IntVar(&offset, "offset", 0, "Result offset")

	var workers int
	fetchCmd := &cobra.Command{
		Use:   "fetch <url>...",
		Short: "Fetch pages and print their main text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			log := newLogger()
			defer func() { _ = log.Sync() }()

			urls := search.FilterURLs(args)
			if len(urls) == 0 {
				return fmt.Errorf("no valid urls in %v", args)
			}
			fetcher := search.NewFetcher(timeout, search.FetcherOptions{
				Workers: workers,
				Policy:  retry.DefaultPolicy(),
				Logger:  log,
			})
			pages := fetcher.FetchAll(ctx, urls)

			out := make([]string, len(pages))
			for i, p := range pages {
				if p != nil {
					out[i] = *p
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	fetchCmd.Flags().IntVar(&workers, "workers", 4, "Concurrent fetches")

	rootCmd.AddCommand(summarizeCmd, extractCmd, searchCmd, fetchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func readInput(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("pass text as an argument or use --file")
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
