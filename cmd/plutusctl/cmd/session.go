package cmd

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/plutus-app/plutus/domain"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Short:   "Manage sessions of the signed-in user",
	Aliases: []string{"sessions"},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the signed-in user's sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var views []domain.SessionView
		if err := doRequest(http.MethodGet, "/v1/sessions", nil, &views); err != nil {
			return err
		}
		if len(views) == 0 {
			fmt.Println("No active sessions found.")
			return nil
		}
		out, err := yaml.Marshal(views)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end <session-id>",
	Short: "Terminate one session by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if err := doRequest(http.MethodDelete, "/v1/sessions/"+url.PathEscape(id), nil, nil); err != nil {
			return err
		}
		fmt.Printf("Session %s terminated.\n", id)
		return nil
	},
}

var sessionEndOthersCmd = &cobra.Command{
	Use:   "end-others",
	Short: "Terminate every session except the current one",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doRequest(http.MethodPost, "/v1/sessions/end-others", nil, nil); err != nil {
			return err
		}
		fmt.Println("All other sessions terminated.")
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionCmd.AddCommand(sessionEndOthersCmd)
}
