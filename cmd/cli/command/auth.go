package command

// auth.go handles account commands: register, login, logout, whoami.
// Tokens are persisted in the local state database.

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Account commands",
	Long:  `Register, log in and out of a sherry-archive server. The access token is saved locally.`,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		e, err := getEnv()
		if err != nil {
			return err
		}
		response, err := e.Gateway.Register(cmd.Context(), username, password)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		e.Gateway.SetToken(response.AccessToken)
		if err := e.Store.SetAccessToken(response.AccessToken); err != nil {
			return err
		}
		e.Tracker.Signup()

		fmt.Printf("✓ Registered and logged in as %s\n", response.User.Username)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		e, err := getEnv()
		if err != nil {
			return err
		}
		response, err := e.Gateway.Login(cmd.Context(), username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		e.Gateway.SetToken(response.AccessToken)
		if err := e.Store.SetAccessToken(response.AccessToken); err != nil {
			return err
		}
		e.Tracker.Login()

		fmt.Printf("✓ Logged in as %s\n", response.User.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the saved token",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv()
		if err != nil {
			return err
		}
		e.Gateway.SetToken("")
		if err := e.Store.SetAccessToken(""); err != nil {
			return err
		}
		fmt.Println("✓ Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := getEnv()
		if err != nil {
			return err
		}
		if err := requireAuth(e); err != nil {
			return err
		}
		user, err := e.Gateway.Me(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch account: %w", err)
		}
		fmt.Printf("%s (id: %s)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(authCmd)

	registerCmd.Flags().StringP("username", "u", "", "Username for the new account")
	registerCmd.Flags().StringP("password", "p", "", "Password for the new account")
	registerCmd.MarkFlagRequired("username")
	registerCmd.MarkFlagRequired("password")

	loginCmd.Flags().StringP("username", "u", "", "Username for the account")
	loginCmd.Flags().StringP("password", "p", "", "Password for the account")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")
}
