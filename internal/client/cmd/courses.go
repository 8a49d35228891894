package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

type coursesClient struct{ serverURL *string }

func newCoursesCmd(serverURL *string) *cobra.Command {
	c := &coursesClient{serverURL: serverURL}
	cmd := &cobra.Command{Use: "courses", Short: "Browse and manage courses"}
	cmd.AddCommand(&cobra.Command{Use: "list", Short: "List all courses", RunE: c.list})
	cmd.AddCommand(&cobra.Command{Use: "get", Short: "Show a course with its lessons", Args: cobra.ExactArgs(1), RunE: c.get})

	create := &cobra.Command{Use: "create", Short: "Create a course (instructors)", Args: cobra.ExactArgs(1), RunE: c.create}
	create.Flags().String("description", "", "Course description")
	create.Flags().Int64("price-cents", 0, "Price in cents")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{Use: "delete", Short: "Delete an owned course", Args: cobra.ExactArgs(1), RunE: c.delete})

	lesson := &cobra.Command{Use: "add-lesson", Short: "Add a lesson to an owned course", Args: cobra.ExactArgs(2), RunE: c.addLesson}
	lesson.Flags().String("content", "", "Lesson content")
	lesson.Flags().Int("position", 0, "Lesson position")
	cmd.AddCommand(lesson)
	return cmd
}

func (c *coursesClient) list(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(*c.serverURL + "/api/v1/courses")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("list failed: %s", readErrorMessage(resp))
	}
	return printJSON(resp)
}

func (c *coursesClient) get(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(*c.serverURL + "/api/v1/courses/" + args[0])
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("get failed: %s", readErrorMessage(resp))
	}
	return printJSON(resp)
}

func (c *coursesClient) create(cmd *cobra.Command, args []string) error {
	token, err := loadToken()
	if err != nil {
		return err
	}
	description, _ := cmd.Flags().GetString("description")
	priceCents, _ := cmd.Flags().GetInt64("price-cents")
	body := map[string]any{"title": args[0], "description": description, "price_cents": priceCents}
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", *c.serverURL+"/api/v1/courses", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("create failed: %s", readErrorMessage(resp))
	}
	return printJSON(resp)
}

func (c *coursesClient) delete(cmd *cobra.Command, args []string) error {
	token, err := loadToken()
	if err != nil {
		return err
	}
	req, _ := http.NewRequest("DELETE", *c.serverURL+"/api/v1/courses/"+args[0], nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete failed: %s", readErrorMessage(resp))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Deleted")
	return nil
}

func (c *coursesClient) addLesson(cmd *cobra.Command, args []string) error {
	token, err := loadToken()
	if err != nil {
		return err
	}
	content, _ := cmd.Flags().GetString("content")
	position, _ := cmd.Flags().GetInt("position")
	body := map[string]any{"course_id": args[0], "title": args[1], "content": content, "position": position}
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", *c.serverURL+"/api/v1/lessons", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("add-lesson failed: %s", readErrorMessage(resp))
	}
	return printJSON(resp)
}

func printJSON(resp *http.Response) error {
	var v any
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
