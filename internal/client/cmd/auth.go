package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type authClient struct {
	serverURL *string
}

func newAuthCmd(serverURL *string) *cobra.Command {
	a := &authClient{serverURL: serverURL}
	cmd := &cobra.Command{Use: "auth", Short: "Authentication commands"}

	signup := &cobra.Command{Use: "signup", Short: "Create an account and log in", RunE: a.signup}
	signup.Flags().String("role", "STUDENT", "Account role: STUDENT or INSTRUCTOR")
	cmd.AddCommand(signup)
	cmd.AddCommand(&cobra.Command{Use: "login", Short: "Login and store token", RunE: a.login})
	cmd.AddCommand(&cobra.Command{Use: "logout", Short: "Forget the stored session", RunE: a.logout})
	return cmd
}

func (a *authClient) signup(cmd *cobra.Command, args []string) error {
	role, _ := cmd.Flags().GetString("role")
	reader := bufio.NewReader(os.Stdin)
	fmt.Fprint(cmd.OutOrStdout(), "Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	fmt.Fprint(cmd.OutOrStdout(), "Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	password, err := promptPassword(cmd, "Password: ")
	if err != nil {
		return err
	}
	body := map[string]string{"email": email, "password": string(password), "name": name, "role": strings.ToUpper(role)}
	b, _ := json.Marshal(body)
	resp, err := http.Post(*a.serverURL+"/api/v1/auth/signup", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("signup failed: %s", readErrorMessage(resp))
	}
	var result struct {
		Token string `json:"token"`
		ID    string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if err := saveSession(result.Token, result.ID); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed up and logged in")
	return nil
}

func (a *authClient) login(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Fprint(cmd.OutOrStdout(), "Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	password, err := promptPassword(cmd, "Password: ")
	if err != nil {
		return err
	}
	body := map[string]string{"email": email, "password": string(password)}
	b, _ := json.Marshal(body)
	resp, err := http.Post(*a.serverURL+"/api/v1/auth/login", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("login failed: %s", readErrorMessage(resp))
	}
	var result struct {
		Token string `json:"token"`
		ID    string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if err := saveSession(result.Token, result.ID); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
	return nil
}

func (a *authClient) logout(cmd *cobra.Command, args []string) error {
	_ = os.Remove(tokenPath())
	_ = os.Remove(accountIDPath())
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func promptPassword(cmd *cobra.Command, prompt string) ([]byte, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	return pass, err
}

func readErrorMessage(resp *http.Response) string {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Error != "" {
		return env.Error
	}
	return resp.Status
}

func tokenPath() string {
	home, _ := os.UserHomeDir()
	return home + string(os.PathSeparator) + ".coursemarket_token"
}

func accountIDPath() string {
	home, _ := os.UserHomeDir()
	return home + string(os.PathSeparator) + ".coursemarket_id"
}

func saveSession(token, accountID string) error {
	if err := os.WriteFile(tokenPath(), []byte(token), 0600); err != nil {
		return err
	}
	return os.WriteFile(accountIDPath(), []byte(accountID), 0600)
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", fmt.Errorf("no stored session, please login")
	}
	return strings.TrimSpace(string(b)), nil
}

func loadAccountID() (string, error) {
	b, err := os.ReadFile(accountIDPath())
	if err != nil {
		return "", fmt.Errorf("no stored session, please login")
	}
	return strings.TrimSpace(string(b)), nil
}
