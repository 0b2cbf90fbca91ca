package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"workorder-intake-go/internal/actionable"
	"workorder-intake-go/internal/types"
)

type textOutput struct {
	types.ExtractResponse
	Routing actionable.Routing `json:"routing"`
}

func newTextCmd(build builder) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "text [job description...]",
		Short: "Extract one work order from arguments, --file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readText(cmd, file, args)
			if err != nil {
				return err
			}

			a, err := build(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Processor.Process(cmd.Context(), types.ExtractRequest{RawText: raw})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(textOutput{
				ExtractResponse: types.NewSuccessResponse(res),
				Routing:         actionable.Route(res, a.Config.ReviewThreshold),
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the job description from a file")
	return cmd
}

func readText(cmd *cobra.Command, file string, args []string) (string, error) {
	switch {
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(b), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
}
