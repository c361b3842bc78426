package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"text2phenotype.com/postagger/pos"
	"text2phenotype.com/postagger/resources"
	"text2phenotype.com/postagger/types"
)

func NewRootCmd() *cobra.Command {
	var cfg types.TaggerConfig
	var asTable bool

	cmd := &cobra.Command{
		Use:   "postag [sentence...]",
		Short: "Tag sentences with an averaged perceptron model",
		Long: "Tags every sentence argument, or every line of stdin when no sentence is given.\n" +
			"Resource locations are file paths or s3://<key>.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tagger, err := resources.Load(cfg, resources.NewFetcherWithS3())
			if err != nil {
				return err
			}
			printer := printTokens
			if asTable {
				printer = printTable
			}

			out := cmd.OutOrStdout()
			if len(args) > 0 {
				for _, sentence := range args {
					if err := printer(out, tagger.Tag(sentence)); err != nil {
						return err
					}
				}
				return nil
			}
			return tagLines(cmd.InOrStdin(), out, tagger, printer)
		},
	}
	cmd.Flags().StringVar(&cfg.Weights, "weights", "", "weight table (JSON)")
	cmd.Flags().StringVar(&cfg.Classes, "classes", "", "class list, one tag per line")
	cmd.Flags().StringVar(&cfg.Exceptions, "exceptions", "", "exception table (JSON)")
	cmd.Flags().BoolVar(&asTable, "table", false, "print a table per sentence")
	for _, name := range []string{"weights", "classes", "exceptions"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

type printFunc func(out io.Writer, tokens []types.TaggedToken) error

func tagLines(in io.Reader, out io.Writer, tagger *pos.Tagger, printer printFunc) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		tokens := tagger.Tag(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		if err := printer(out, tokens); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func printTokens(out io.Writer, tokens []types.TaggedToken) error {
	for _, token := range tokens {
		if _, err := fmt.Fprintf(out, "%s %s %s\n", token.Word, token.Tag, formatConfidence(token.Confidence)); err != nil {
			return err
		}
	}
	return nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func printTable(out io.Writer, tokens []types.TaggedToken) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WORD", "TAG", "CONF").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, token := range tokens {
		t.Row(token.Word, token.Tag, formatConfidence(token.Confidence))
	}
	_, err := fmt.Fprintln(out, t.String())
	return err
}

func formatConfidence(conf float64) string {
	return strconv.FormatFloat(conf, 'f', 4, 64)
}
