package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/gostratum/core/logx"
	"github.com/gostratum/presignx"
	"github.com/gostratum/presignx/presigner"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	envFile string
	verbose bool
	options []presigner.Option
}

// RootCmd builds the presign command tree. options are applied after the
// defaults, so tests can swap the configuration and resolver.
func RootCmd(options ...presigner.Option) *cobra.Command {
	a := &app{options: options}

	root := &cobra.Command{
		Use:   "presign",
		Short: "Generate presigned object storage URLs",
		Long: `Generate presigned URLs for AWS S3, Google Cloud Storage, Azure Blob Storage
and DigitalOcean Spaces. The backend is selected by CLOUD_PROVIDER and configured
through environment variables, optionally loaded from a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadEnv(cmd.Flags().Changed("env-file"))
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Environment file to load before reading configuration")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(a.urlCmd())
	root.AddCommand(a.publicCmd())
	return root
}

// loadEnv loads the env file without overriding variables already set. A
// missing default file is not an error.
func (a *app) loadEnv(explicit bool) error {
	if a.envFile == "" {
		return nil
	}
	err := godotenv.Load(a.envFile)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load %s: %w", a.envFile, err)
}

func (a *app) presigner() (*presigner.Presigner, func(), error) {
	logger := logx.NewNoopLogger()
	cleanup := func() {}

	if a.verbose {
		zl, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, fmt.Errorf("create logger: %w", err)
		}
		logger = logx.ProvideAdapter(zl)
		cleanup = func() { _ = zl.Sync() }
	}

	options := append([]presigner.Option{presigner.WithLogger(logger)}, a.options...)
	return presigner.New(options...), cleanup, nil
}

func (a *app) urlCmd() *cobra.Command {
	var (
		method      string
		prefix      string
		contentType string
		public      bool
		expires     time.Duration
		metadata    map[string]string
	)

	cmd := &cobra.Command{
		Use:   "url <key>",
		Short: "Print a presigned URL for key as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, cleanup, err := a.presigner()
			if err != nil {
				return err
			}
			defer cleanup()

			req := presignx.Request{
				Key:      args[0],
				Prefix:   prefix,
				IsPublic: public,
				Method:   presignx.Method(strings.ToUpper(method)),
				Metadata: metadata,
			}
			if cmd.Flags().Changed("content-type") {
				req.ContentType = presignx.String(contentType)
			}

			var opts *presignx.PresignOptions
			if expires > 0 {
				opts = &presignx.PresignOptions{Expiration: expires}
			}

			resp, err := p.GeneratePresignedURL(cmd.Context(), req, opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", string(presignx.MethodGet), "HTTP method to sign ("+methodList()+")")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix for uploads")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type bound into upload signatures")
	cmd.Flags().BoolVar(&public, "public", false, "Also return the URL without its query string")
	cmd.Flags().DurationVar(&expires, "expires", 0, "URL lifetime, overrides PRESIGN_EXPIRATION")
	cmd.Flags().StringToStringVar(&metadata, "meta", nil, "Object metadata as key=value")
	return cmd
}

func (a *app) publicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "public <key>",
		Short: "Grant anonymous read access to key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, cleanup, err := a.presigner()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := p.MakeFilePublic(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"key":    args[0],
				"public": true,
			})
		},
	}
}

func methodList() string {
	methods := presignx.Methods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
