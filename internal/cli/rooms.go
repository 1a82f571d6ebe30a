package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRoomsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List active rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			rooms, err := fetchRooms(ctx, v.GetString("server"), v.GetString("token"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), RoomsTable(rooms))
			return nil
		},
	}
}

func fetchRooms(ctx context.Context, server, token string) ([]roomRow, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/rooms"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		if body.Error != "" {
			return nil, fmt.Errorf("list rooms: %s (status %d)", body.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("list rooms: status %d", resp.StatusCode)
	}

	var body struct {
		Rooms []roomRow `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return body.Rooms, nil
}
