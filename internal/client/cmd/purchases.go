package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

type purchasesClient struct{ serverURL *string }

func newPurchasesCmd(serverURL *string) *cobra.Command {
	p := &purchasesClient{serverURL: serverURL}
	cmd := &cobra.Command{Use: "purchases", Short: "Buy courses and list purchases"}
	cmd.AddCommand(&cobra.Command{Use: "buy", Short: "Purchase a course (students)", Args: cobra.ExactArgs(1), RunE: p.buy})
	cmd.AddCommand(&cobra.Command{Use: "list", Short: "List your purchases", RunE: p.list})
	return cmd
}

func (p *purchasesClient) buy(cmd *cobra.Command, args []string) error {
	token, err := loadToken()
	if err != nil {
		return err
	}
	body := map[string]string{"course_id": args[0]}
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", *p.serverURL+"/api/v1/purchases", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("buy failed: %s", readErrorMessage(resp))
	}
	return printJSON(resp)
}

func (p *purchasesClient) list(cmd *cobra.Command, args []string) error {
	token, err := loadToken()
	if err != nil {
		return err
	}
	accountID, err := loadAccountID()
	if err != nil {
		return err
	}
	req, _ := http.NewRequest("GET", *p.serverURL+"/api/v1/users/"+accountID+"/purchases", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("list failed: %s", readErrorMessage(resp))
	}
	return printJSON(resp)
}
