package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/adminauth/password"
)

func newHashPasswordCmd() *cobra.Command {
	var (
		algorithm string
		cost      int
	)
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a password hash for the users file or sys_user.password",
		Long: `Hashes the password given as argument, or read from the first line of
standard input, with argon2id (default) or bcrypt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var plain string
			if len(args) == 1 {
				plain = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				plain = strings.TrimRight(line, "\r\n")
			}

			hasher, err := newHasher(algorithm, cost)
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", "argon2id", "hash algorithm: argon2id or bcrypt")
	cmd.Flags().IntVar(&cost, "cost", 10, "bcrypt cost")
	return cmd
}

func newHasher(algorithm string, bcryptCost int) (password.Hasher, error) {
	switch algorithm {
	case "argon2id":
		return password.NewArgon2(password.DefaultConfig())
	case "bcrypt":
		return password.NewBcrypt(bcryptCost), nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", algorithm)
	}
}
