package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authgate"
)

func newGetCmd(a *app) *cobra.Command {
	var method, data string

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Send an authenticated request and print the JSON response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}

			target, err := url.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid path %q: %w", args[0], err)
			}
			req := authgate.Request{Method: strings.ToUpper(method), Path: target.Path, Query: target.Query()}
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				req.Body = json.RawMessage(data)
			}

			res := a.client.Do(cmd.Context(), a.session, req)
			if res.Err != nil {
				return fmt.Errorf("%s %s: %w", req.Method, req.Path, res.Err)
			}

			if len(res.Data) == 0 {
				pterm.Info.Printf("%d (empty body)\n", res.Status)
				return nil
			}
			var out bytes.Buffer
			if err := json.Indent(&out, res.Data, "", "  "); err != nil {
				return fmt.Errorf("failed to format response: %w", err)
			}
			pterm.Println(out.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}
