package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/bindkit"
	"github.com/vango-dev/bindkit/pkg/exception"
)

func renderCmd() *cobra.Command {
	var (
		templatePath string
		modelPath    string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Bind a model to a template and print the result",
		Long: `Bind a JSON model to the first element of a template and print the
bound markup.

Examples:
  bindview render --template page.html --model model.json
  bindview render --template page.html --config ./bindkit.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, templatePath, modelPath)
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Template file")
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "JSON model file")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

func runRender(cmd *cobra.Command, templatePath, modelPath string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.Logger(cmd.ErrOrStderr())
	prev := exception.SetHandler(&exception.LogHandler{Logger: logger})
	defer exception.SetHandler(prev)

	markup, err := os.ReadFile(templatePath)
	if err != nil {
		return err
	}
	model, err := readModel(modelPath)
	if err != nil {
		return err
	}
	comps, err := loadComponents(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	rt, err := bindkit.New(runtimeConfig(cfg, comps, logger))
	if err != nil {
		return err
	}
	out, err := rt.Render(string(markup), model)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
