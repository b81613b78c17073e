package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/bindkit"
	"github.com/vango-dev/bindkit/internal/config"
	"github.com/vango-dev/bindkit/pkg/component"
	"github.com/vango-dev/bindkit/pkg/exception"
	"github.com/vango-dev/bindkit/pkg/live"
)

type serveOptions struct {
	addr         string
	templatePath string
	modelPath    string
	components   string
	bucket       string
	prefix       string
	region       string
	endpoint     string
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a live preview server",
		Long: `Serve a bound template and push re-rendered markup to connected
browsers whenever the model changes.

Each websocket connection binds its own copy of the model and accepts
updates of the form {"op":"set|push|pop","key":"...","value":...}.

Examples:
  bindview serve --template page.html --model model.json
  bindview serve --template page.html --components ./components
  bindview serve --template page.html --bucket ui --prefix components/ --region eu-west-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "Listen address (default from bindkit.json)")
	f.StringVarP(&opts.templatePath, "template", "t", "", "Template file")
	f.StringVarP(&opts.modelPath, "model", "m", "", "JSON model file")
	f.StringVar(&opts.components, "components", "", "Directory of component templates")
	f.StringVar(&opts.bucket, "bucket", "", "S3 bucket holding component templates")
	f.StringVar(&opts.prefix, "prefix", "", "S3 key prefix of component templates")
	f.StringVar(&opts.region, "region", "", "S3 bucket region")
	f.StringVar(&opts.endpoint, "endpoint", "", "S3 endpoint override")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

// apply copies the flags that were set onto cfg.
func (o serveOptions) apply(cfg *config.Config) {
	if o.components != "" {
		cfg.Components.Dir = o.components
	}
	if o.bucket != "" {
		cfg.Components.S3.Bucket = o.bucket
	}
	if o.prefix != "" {
		cfg.Components.S3.Prefix = o.prefix
	}
	if o.region != "" {
		cfg.Components.S3.Region = o.region
	}
	if o.endpoint != "" {
		cfg.Components.S3.Endpoint = o.endpoint
	}
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := cfg.Logger(cmd.ErrOrStderr())

	markup, err := os.ReadFile(opts.templatePath)
	if err != nil {
		return err
	}
	model, err := readModel(opts.modelPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := loadComponents(ctx, cfg)
	if err != nil {
		return err
	}

	srv, err := live.New(live.Config{
		Template:          string(markup),
		Model:             model,
		Title:             cfg.Name,
		Components:        comps,
		Prefix:            cfg.Prefix,
		IgnoredTags:       ignoredTags(cfg),
		Metrics:           cfg.Metrics.Enabled,
		Namespace:         cfg.Metrics.Namespace,
		MetricsPath:       cfg.Metrics.Path,
		Logger:            logger,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
	})
	if err != nil {
		return err
	}

	var h exception.Handler = &exception.LogHandler{Logger: logger}
	if m := srv.Metrics(); m != nil {
		h = m.CountingHandler(h)
	}
	prev := exception.SetHandler(h)
	defer exception.SetHandler(prev)

	addr := opts.addr
	if addr == "" {
		addr = cfg.Address()
	}
	success(cmd.OutOrStdout(), "Serving %s on http://%s (%d components)", opts.templatePath, addr, len(comps.Names()))

	if err := srv.Run(ctx, addr); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// runtimeConfig maps the project configuration onto a runtime.
func runtimeConfig(cfg *config.Config, comps *component.Registry, logger *slog.Logger) bindkit.Config {
	rc := bindkit.DefaultConfig()
	rc.Components = comps
	rc.Logger = logger
	if cfg.Prefix != "" {
		rc.Prefix = cfg.Prefix
	}
	if tags := ignoredTags(cfg); tags != nil {
		rc.IgnoredTags = tags
	}
	return rc
}

func ignoredTags(cfg *config.Config) []string {
	if len(cfg.IgnoredTags) == 0 {
		return nil
	}
	return cfg.IgnoredTags
}
