// Package cli implements the voicectl command line participant.
package cli

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "VOICECTL"

// NewRootCmd builds the command tree. Every flag is bound into v, so
// VOICECTL_* variables can stand in for any of them.
func NewRootCmd(v *viper.Viper) *cobra.Command {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "voicectl",
		Short:         "Join and inspect Voice audio rooms from the terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(v.GetString("log-level"))
		},
	}

	pf := root.PersistentFlags()
	pf.String("server", "http://localhost:8080", "Voice server base URL")
	pf.String("token", "", "bearer token")
	pf.String("log-level", "warn", "zerolog level for diagnostics on stderr")
	bindFlags(v, pf)

	root.AddCommand(newJoinCmd(v), newRoomsCmd(v), newTokenCmd(v))
	return root
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Execute runs voicectl and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd(viper.New()).Execute(); err != nil {
		PrintError(err.Error())
		os.Exit(1)
	}
}
