package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dkeye/Voice/internal/auth"
	"github.com/dkeye/Voice/internal/domain"
)

func newTokenCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a development bearer token",
		Long: `Mint an HS256 bearer token for the given user id, signed with the
server secret. Intended for local development only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := domain.ParseUserID(args[0])
			if err != nil {
				return err
			}
			secret := v.GetString("secret")
			if secret == "" {
				return errors.New("--secret is required")
			}
			token, err := auth.NewJWTManager(secret, v.GetDuration("ttl")).Generate(uid)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.String("secret", "", "server JWT secret")
	fs.Duration("ttl", 24*time.Hour, "token lifetime")
	bindFlags(v, fs)
	return cmd
}
