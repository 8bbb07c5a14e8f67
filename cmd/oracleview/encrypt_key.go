package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/howeyc/gopass"
	"github.com/spf13/cobra"

	"github.com/alanyoungcy/oracleview/internal/crypto"
)

var encryptKeyOut string

var encryptKeyCmd = &cobra.Command{
	Use:   "encrypt-key",
	Short: "Encrypt a private key into the wallet key file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(os.Stderr, "Private key: ")
		rawKey, err := gopass.GetPasswdMasked()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		key, err := crypto.ParseKey(string(rawKey))
		if err != nil {
			return err
		}

		password, err := confirmedPassword()
		if err != nil {
			return err
		}

		data, err := crypto.EncryptKey(string(rawKey), string(password))
		if err != nil {
			return err
		}
		if err := os.WriteFile(encryptKeyOut, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", encryptKeyOut, err)
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s for %s\n", encryptKeyOut, crypto.Address(key))
		return err
	},
}

func init() {
	encryptKeyCmd.Flags().StringVar(&encryptKeyOut, "out", "wallet.key", "path of the encrypted key file")
}

// confirmedPassword prompts twice and fails when the entries differ.
func confirmedPassword() ([]byte, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := gopass.GetPasswd()
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if len(first) == 0 {
		return nil, errors.New("password must not be empty")
	}
	fmt.Fprint(os.Stderr, "Re-enter password: ")
	second, err := gopass.GetPasswd()
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if !bytes.Equal(first, second) {
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}
