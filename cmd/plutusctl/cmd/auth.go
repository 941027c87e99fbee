package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in and out of the session service",
}

var loginEmail string

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" {
			return fmt.Errorf("--email is required")
		}
		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		var state map[string]any
		body := map[string]string{"email": loginEmail, "password": string(password)}
		if err := doRequest(http.MethodPost, "/v1/auth/login", body, &state); err != nil {
			return err
		}
		fmt.Printf("Signed in as %s.\n", loginEmail)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Terminate the current session and sign out",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doRequest(http.MethodPost, "/v1/auth/logout", nil, nil); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var authMeCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the current authentication state",
	RunE: func(cmd *cobra.Command, args []string) error {
		var state map[string]any
		if err := doRequest(http.MethodGet, "/v1/auth/me", nil, &state); err != nil {
			return err
		}
		out, err := yaml.Marshal(state)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	authLoginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authMeCmd)
}
