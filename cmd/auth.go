package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/nutrify/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the Nutrify platform",
	Long: `Sign in with your email and password, or store a token issued elsewhere
with --token. The token is kept in the local database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		token, _ := cmd.Flags().GetString("token")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		repo := e.store.CredentialRepo()
		var claims *auth.Claims
		if token != "" {
			claims, err = auth.SaveToken(ctx, repo, token)
		} else {
			in := bufio.NewReader(os.Stdin)
			if email == "" {
				email = ask(in, cmd.OutOrStdout(), "Email: ")
			}
			if password == "" {
				password = ask(in, cmd.OutOrStdout(), "Password: ")
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}
			claims, err = auth.Login(ctx, e.client, repo, email, password)
		}
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}

		who := claims.Email
		if who == "" {
			who = claims.User()
		}
		if who == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", who)
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := auth.Logout(cmd.Context(), e.store.CredentialRepo()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		claims, err := e.creds.Claims(cmd.Context())
		if errors.Is(err, auth.ErrNotLoggedIn) {
			fmt.Fprintln(out, "Not logged in.")
			return nil
		}
		if err != nil {
			// Opaque tokens carry no claims.
			fmt.Fprintln(out, "Logged in with an opaque token.")
			return nil
		}

		if u := claims.User(); u != "" {
			fmt.Fprintf(out, "User:    %s\n", u)
		}
		if claims.Email != "" {
			fmt.Fprintf(out, "Email:   %s\n", claims.Email)
		}
		if claims.Role != "" {
			fmt.Fprintf(out, "Role:    %s\n", claims.Role)
		}
		if exp := claims.Expiry(); !exp.IsZero() {
			state := "valid"
			if time.Now().After(exp) {
				state = "expired"
			}
			fmt.Fprintf(out, "Expires: %s (%s)\n", exp.Local().Format("2006-01-02 15:04"), state)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password (prompted when omitted)")
	loginCmd.Flags().String("token", "", "Store this bearer token instead of signing in")
}

func ask(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
