package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// dirsClient talks to the watch endpoints of a running `docread serve --watch`.
type dirsClient struct {
	baseURL string
	http    *http.Client
}

func newDirsClient(serverURL string) *dirsClient {
	return &dirsClient{
		baseURL: strings.TrimRight(serverURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *dirsClient) add(path string) error {
	body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
	resp, err := c.http.Post(c.baseURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusCreated, "add")
}

func (c *dirsClient) remove(path string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK, "remove")
}

func (c *dirsClient) list() ([]string, error) {
	resp, err := c.http.Get(c.baseURL + "/api/v1/watch/directories")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK, "list"); err != nil {
		return nil, err
	}
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return out.Directories, nil
}

func expectStatus(resp *http.Response, want int, op string) error {
	if resp.StatusCode == want {
		return nil
	}
	b, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, strings.TrimSpace(string(b)))
}

func newDirsCmd() *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "dirs",
		Short: "Manage the watched directories of a running server",
	}
	cmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "server URL")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <path>",
			Short: "Add a directory to watch",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				if err := newDirsClient(serverURL).add(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added: %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <path>",
			Short: "Stop watching a directory",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				if err := newDirsClient(serverURL).remove(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed: %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List watched directories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				dirs, err := newDirsClient(serverURL).list()
				if err != nil {
					return err
				}
				for _, d := range dirs {
					fmt.Fprintln(cmd.OutOrStdout(), d)
				}
				return nil
			},
		},
	)
	return cmd
}
