package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/x402punks/punk-pinner/internal/auth"
)

type TokenOptions struct {
	User string
	TTL  time.Duration
}

func DefaultTokenOptions() *TokenOptions {
	return &TokenOptions{
		User: auth.OperatorUser,
		TTL:  24 * time.Hour,
	}
}

func NewCmdToken() *cobra.Command {
	o := DefaultTokenOptions()
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for X402_AUTH=local",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *TokenOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.User, "user", o.User, "Subject of the token")
	fs.DurationVar(&o.TTL, "ttl", o.TTL, "Validity of the token")
}

func (o *TokenOptions) Validate() error {
	if o.User == "" {
		return fmt.Errorf("user must not be empty")
	}
	if o.TTL <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", o.TTL)
	}
	return nil
}

func (o *TokenOptions) Run(out io.Writer) error {
	cfg, done, err := loadConfig()
	if err != nil {
		return err
	}
	defer done()

	a, err := auth.NewLocalAuthenticator(cfg.Service.Auth.Secret)
	if err != nil {
		return err
	}

	token, err := a.Token(o.User, o.TTL)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintln(out, token)
	return nil
}
