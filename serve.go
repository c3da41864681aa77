// Copyright © 2024 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cdk

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airbytehq/airbyte-sub034/message"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// Serve runs the connector command given in the process arguments and exits
// the process. Protocol messages are written to stdout, logs to stderr. Any
// error is reported as an error trace message and the process exits with
// status code 1.
//
// Connectors should call Serve in their main() functions.
func Serve(c Connector) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Environ(), c)
	stop()
	os.Exit(code)
}

// run executes a single connector command and returns the exit code.
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout, stderr io.Writer,
	environ []string,
	c Connector,
) int {
	logger := initLogger(stderr, connectorLogLevel())
	ctx = logger.WithContext(ctx)
	out := message.NewWriter(stdout)

	cmd := newCommand(c, stdin, out, environ)
	if args == nil {
		// cobra falls back to os.Args for nil
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("connector failed")
		if werr := out.WriteTrace(message.ErrorTrace(err, time.Now())); werr != nil {
			logger.Error().Err(werr).Msg("failed to write error trace")
		}
		return 1
	}
	return 0
}

func newCommand(c Connector, stdin io.Reader, out *message.Writer, environ []string) *cobra.Command {
	var (
		spec, check, discover, read, write bool
		configPath, catalogPath, statePath string
	)

	cmd := &cobra.Command{
		Use:           "destination",
		Short:         "Airbyte destination connector",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if c.NewSpecification == nil {
				return errors.New("Connector.NewSpecification is a required field")
			}
			if c.NewDestination == nil {
				return errors.New("Connector.NewDestination is a required field")
			}
			dest := c.NewDestination()
			if dest == nil {
				return errors.New("Connector.NewDestination returned nil")
			}

			switch {
			case spec:
				return out.WriteSpec(c.NewSpecification().toMessage(dest.Parameters()))
			case check:
				return runCheck(ctx, dest, configPath, out)
			case write:
				return runWriteCommand(ctx, c, dest, configPath, catalogPath, stdin, out, environ)
			case discover:
				return NewConfigError("--discover is not supported by destinations")
			case read:
				return NewConfigError("--read is not supported by destinations")
			}
			return NewConfigError("no command given")
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return NewConfigError("%w", err)
	})

	flags := cmd.Flags()
	flags.BoolVar(&spec, "spec", false, "print the connector specification")
	flags.BoolVar(&check, "check", false, "check the connection to the destination")
	flags.BoolVar(&discover, "discover", false, "not supported by destinations")
	flags.BoolVar(&read, "read", false, "not supported by destinations")
	flags.BoolVar(&write, "write", false, "write records read from stdin to the destination")
	flags.StringVar(&configPath, "config", "", "path to the connector configuration")
	flags.StringVar(&catalogPath, "catalog", "", "path to the configured catalog")
	flags.StringVar(&statePath, "state", "", "path to the state, ignored by destinations")
	cmd.MarkFlagsMutuallyExclusive("spec", "check", "discover", "read", "write")
	cmd.MarkFlagsOneRequired("spec", "check", "discover", "read", "write")

	return cmd
}

func runCheck(ctx context.Context, dest Destination, configPath string, out *message.Writer) error {
	cfg, err := readConfig(configPath, dest.Parameters())
	if err == nil {
		err = dest.Check(ctx, cfg)
	}
	if err != nil {
		Logger(ctx).Warn().Err(err).Msg("connection check failed")
		return out.WriteConnectionStatus(message.ConnectionFailed, err.Error())
	}
	return out.WriteConnectionStatus(message.ConnectionSucceeded, "")
}

func runWriteCommand(
	ctx context.Context,
	c Connector,
	dest Destination,
	configPath, catalogPath string,
	stdin io.Reader,
	out *message.Writer,
	environ []string,
) error {
	cfg, err := readConfig(configPath, dest.Parameters())
	if err != nil {
		return err
	}
	catalog, err := readCatalog(catalogPath)
	if err != nil {
		return err
	}

	defaults := DefaultPipelineConfig()
	if c.PipelineConfig != nil {
		defaults = c.PipelineConfig()
	}
	pcfg, err := PipelineConfigFromEnv(environ, defaults)
	if err != nil {
		return err
	}

	var reg prometheus.Registerer
	if pcfg.MetricsAddr != "" {
		r := prometheus.NewRegistry()
		reg = r
		stop := serveMetrics(ctx, pcfg.MetricsAddr, r)
		defer stop()
	}

	res, err := write(ctx, dest, cfg, catalog, stdin, out, pcfg, reg)
	for d, s := range res.Streams {
		Logger(ctx).Info().
			Stringer("stream", d).
			Int64("emitted_records", s.EmittedRecords).
			Int64("committed_records", s.CommittedRecords).
			Int64("committed_bytes", s.CommittedBytes).
			Msg("stream stats")
	}
	return err
}

// serveMetrics exposes the registry on addr until the returned function is
// called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: time.Second * 10,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger(ctx).Warn().Err(err).Str("addr", addr).Msg("metrics endpoint stopped")
		}
	}()
	return func() {
		sctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}
}

// readConfig reads the connector configuration and validates it against the
// destination parameters.
func readConfig(path string, params map[string]Parameter) (map[string]any, error) {
	if path == "" {
		return nil, NewConfigError("--config is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError("could not read config file: %w", err)
	}
	cfg := make(map[string]any)
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, NewConfigError("config file is not a valid JSON object: %w", err)
	}
	if err := applyConfigValidations(params, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readCatalog(path string) (*message.Catalog, error) {
	if path == "" {
		return nil, NewConfigError("--catalog is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError("could not read catalog file: %w", err)
	}
	return message.ParseCatalog(raw)
}
