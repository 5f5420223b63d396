// htmlsanitize 在命令行中净化 HTML 文件或标准输入
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/newsflow/go-sanitizer-service/internal/sanitizer"
	"github.com/newsflow/go-sanitizer-service/internal/service"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "htmlsanitize"
	app.Usage = "Sanitize untrusted HTML from a file or stdin"
	app.ArgsUsage = "[FILE]"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "mode",
			Value: "sanitize",
			Usage: "Output: sanitize (HTML), text, check (exit 1 on rejected content) or raw",
		},
		&cli.BoolFlag{
			Name:    "untrusted",
			Value:   true,
			Usage:   "Treat the input as untrusted; with --untrusted=false sanitize mode passes input through",
			EnvVars: []string{"WEBLOG_ADMINS_UNTRUSTED"},
		},
		&cli.StringSliceFlag{
			Name:    "schemes",
			Value:   cli.NewStringSlice(sanitizer.DefaultSchemes...),
			Usage:   "Allowed URL schemes",
			EnvVars: []string{"ALLOWED_URL_SCHEMES"},
		},
		&cli.IntFlag{
			Name:    "max-dimension",
			Value:   sanitizer.DefaultMaxDimension,
			Usage:   "Upper bound for width/height attributes",
			EnvVars: []string{"MAX_DIMENSION"},
		},
		&cli.BoolFlag{
			Name:  "theme",
			Usage: "Use the theme tag policy (section, article, figure ...)",
		},
		&cli.BoolFlag{
			Name:  "diagnostics",
			Usage: "Print rejected content to stderr",
		},
	}
	app.Action = runSanitize
	return app
}

func runSanitize(c *cli.Context) error {
	input, err := readInput(c)
	if err != nil {
		return err
	}

	s := sanitizer.New(sanitizer.Options{
		UntrustedContentMode: c.Bool("untrusted"),
		AllowedSchemes:       c.StringSlice("schemes"),
		MaxDimension:         c.Int("max-dimension"),
	})

	mode := c.String("mode")
	if mode == "sanitize" && !s.Enabled() {
		_, err := io.WriteString(c.App.Writer, input)
		return err
	}

	doc := service.Document{HTML: input}
	if c.Bool("theme") {
		doc.AllowedTags = sanitizer.ThemeAllowedTags().Names()
		doc.ForbiddenTags = sanitizer.ThemeForbiddenTags().Names()
	}
	res := service.New(s, nil, nil).Process(context.Background(), "cli", service.OpSanitize, doc)

	if c.Bool("diagnostics") || mode == "check" {
		for _, diag := range res.InvalidTags {
			fmt.Fprintf(c.App.ErrWriter, "rejected: %s\n", diag)
		}
	}

	switch mode {
	case "sanitize":
		_, err = io.WriteString(c.App.Writer, res.HTML)
	case "text":
		_, err = io.WriteString(c.App.Writer, res.Text)
	case "raw":
		_, err = io.WriteString(c.App.Writer, res.Raw)
	case "check":
		if !res.IsValid() {
			return cli.Exit(fmt.Sprintf("%d item(s) rejected", len(res.InvalidTags)), 1)
		}
		_, err = fmt.Fprintln(c.App.Writer, "ok")
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	return err
}

func readInput(c *cli.Context) (string, error) {
	var r io.Reader = c.App.Reader
	if path := c.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}

	var b strings.Builder
	if _, err := io.Copy(&b, r); err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return b.String(), nil
}
