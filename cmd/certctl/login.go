package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/certportal/certportal/internal/domain"
)

var (
	loginEmail    string
	loginPassword string
	loginAsUser   bool
	loginSave     bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the backend and print or save the token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" {
			return errors.New("--email is required")
		}
		password := loginPassword
		if password == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = strings.TrimSpace(line)
		}

		client := newClient()
		req := domain.LoginRequest{Email: loginEmail, Password: password}
		var res *domain.LoginResult
		var err error
		if loginAsUser {
			res, err = client.UserLogin(rootCtx, req)
		} else {
			res, err = client.AdminLogin(rootCtx, req)
		}
		if err != nil {
			return err
		}
		if res.Token == "" {
			return errors.New("backend did not return a token")
		}

		if !loginSave {
			fmt.Fprintln(cmd.OutOrStdout(), res.Token)
			return nil
		}
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := saveSetting(path, keyToken, res.Token); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", path)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (prompted when empty)")
	loginCmd.Flags().BoolVar(&loginAsUser, "user", false, "sign in as a regular user instead of an admin")
	loginCmd.Flags().BoolVar(&loginSave, "save", false, "store the token in the config file")
}

// saveSetting sets key in the YAML file at path, keeping every other key.
func saveSetting(path, key, value string) error {
	settings := map[string]interface{}{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if settings == nil {
			settings = map[string]interface{}{}
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	settings[key] = value
	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
