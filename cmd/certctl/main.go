// Command certctl drives the issuance workflow, bulk creation and bulk
// downloads from a terminal, talking to the backend directly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/logging"
)

const (
	keyBackend   = "backend"
	keyToken     = "token"
	keyVerbose   = "verbose"
	keyDevBypass = "dev-bypass"
	keyOutput    = "output"
)

var (
	cfgFile string
	logger  = zap.NewNop()

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "certctl",
	Short: "Issue certificates and letters from the command line",
	Long: `certctl runs the same preview, OTP and submit workflow as the portal,
plus bulk CSV creation and paced bulk downloads.

Settings are read from flags, CERTCTL_* environment variables and
~/.certctl.yaml, in that order of precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		l, err := logging.NewCLI(viper.GetBool(keyVerbose))
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rootCancel != nil {
			rootCancel()
		}
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $HOME/.certctl.yaml)")
	pf.String(keyBackend, "http://localhost:5000", "backend base URL")
	pf.String(keyToken, "", "backend bearer token (see 'certctl login')")
	pf.BoolP(keyVerbose, "v", false, "verbose logging")
	pf.Bool(keyDevBypass, false, "accept any well-formed OTP without calling the backend")
	pf.StringP(keyOutput, "o", "text", "output format: text, json or yaml")

	for _, key := range []string{keyBackend, keyToken, keyVerbose, keyDevBypass, keyOutput} {
		_ = viper.BindPFlag(key, pf.Lookup(key))
	}

	rootCmd.AddCommand(catalogCmd, loginCmd, issueCmd, bulkCmd)
}

// initConfig wires the env prefix and reads the config file if present.
func initConfig() error {
	viper.SetEnvPrefix("CERTCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	path, err := configPath()
	if err != nil {
		return err
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".certctl.yaml"), nil
}

// newClient builds a backend client from the resolved settings.
func newClient() *backend.Client {
	opts := []backend.ClientOption{backend.WithLogger(logger.Named("backend"))}
	if tok := viper.GetString(keyToken); tok != "" {
		opts = append(opts, backend.WithTokenSource(backend.StaticToken(tok)))
	}
	return backend.NewClient(viper.GetString(keyBackend), opts...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
