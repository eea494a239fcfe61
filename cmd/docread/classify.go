package main

import (
	"github.com/hyperjump/docread/internal/cli"
	"github.com/hyperjump/docread/internal/extract"
	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	var outputFormat string
	cmd := &cobra.Command{
		Use:   "classify <path>...",
		Short: "Show how each path would be handled, without reading it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(outputFormat)
			if err != nil {
				return err
			}
			items := make([]cli.ClassifiedPath, 0, len(args))
			for _, p := range args {
				items = append(items, cli.ClassifiedPath{Path: p, Classification: extract.Classify(p)})
			}
			return cli.WriteClassifications(cmd.OutOrStdout(), items, format)
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text or json")
	return cmd
}
