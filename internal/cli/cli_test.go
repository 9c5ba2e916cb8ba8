package cli

import (
	"bytes"
	"context"
	"testing"

	"dreamforge/internal/config"
	"dreamforge/internal/errors"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand(t *testing.T, cfg *config.Config) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	addOutputFlags(cmd)
	cmd.Flags().StringP("port", "p", "", "")
	cmd.Flags().String("host", "", "")
	cmd.Flags().String("tls-mode", "", "")
	cmd.Flags().String("cert-file", "", "")
	cmd.Flags().String("key-file", "", "")

	logger, err := errors.New("error")
	require.NoError(t, err)
	ctx := context.WithValue(context.Background(), configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	cmd.SetContext(ctx)
	return cmd
}

func TestOutputConfig(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{DefaultFormat: "markdown", SupportedFormats: []string{"json", "markdown"}}}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default from config", nil, "markdown"},
		{"flag wins", []string{"--format", "json"}, "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newTestCommand(t, cfg)
			require.NoError(t, cmd.ParseFlags(tt.args))
			assert.Equal(t, tt.want, outputConfig(cmd).OutputFormat)
		})
	}
}

func TestValidateFormatFlag(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{DefaultFormat: "json", SupportedFormats: []string{"json", "text"}}}

	cmd := newTestCommand(t, cfg)
	require.NoError(t, cmd.ParseFlags([]string{"--format", "text"}))
	assert.NoError(t, validateFormatFlag(cmd, nil))

	cmd = newTestCommand(t, cfg)
	require.NoError(t, cmd.ParseFlags([]string{"--format", "markdown"}))
	assert.ErrorContains(t, validateFormatFlag(cmd, nil), "unsupported output format")
}

func TestApplyServeFlags(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Port = "8080"
	cfg.Server.Host = "localhost"

	cmd := newTestCommand(t, cfg)
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9090", "--tls-mode", "server", "--cert-file", "c.pem"}))
	applyServeFlags(cmd, cfg)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host, "unset flags keep the configured value")
	assert.Equal(t, "server", cfg.Server.TLS.Mode)
	assert.Equal(t, "c.pem", cfg.Server.TLS.CertFile)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "dreamforge version "+Version)
}
