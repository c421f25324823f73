package main

import (
	"fmt"
	"os"
	"strings"

	"bf6-tracker/internal/api"
	"bf6-tracker/internal/platform"
	"bf6-tracker/internal/service"

	"github.com/spf13/cobra"
)

func overviewCmd() *cobra.Command {
	var (
		plat    string
		refresh bool
		cookie  string
	)
	cmd := &cobra.Command{
		Use:   "overview <player-id>",
		Short: "Show reconciled lifetime totals for a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ov, err := a.overview.GetOverview(cmd.Context(), service.OverviewRequest{
				PlayerID:  args[0],
				Platform:  plat,
				Refresh:   refresh,
				Forwarded: api.Forwarded{Cookie: cookie},
			})
			if err != nil {
				return err
			}
			renderOverview(os.Stdout, ov)
			return nil
		},
	}
	cmd.Flags().StringVarP(&plat, "platform", "p", platform.Default, "platform: "+strings.Join(platform.Slugs(), ", "))
	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "bypass the cache")
	cmd.Flags().StringVar(&cookie, "cookie", "", "Cookie header to forward upstream")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		plat   string
		stat   string
		cookie string
	)
	cmd := &cobra.Command{
		Use:   "history <player-id>",
		Short: "Show the daily history of K/D or win percentage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !api.SupportedStat(stat) {
				return fmt.Errorf("--stat must be %s or %s", api.StatKDRatio, api.StatWLPercentage)
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			h, err := a.history.GetStatHistory(cmd.Context(), service.StatHistoryRequest{
				PlayerID:  args[0],
				Platform:  plat,
				Stat:      stat,
				Forwarded: api.Forwarded{Cookie: cookie},
			})
			if err != nil {
				return err
			}
			renderHistory(os.Stdout, h)
			return nil
		},
	}
	cmd.Flags().StringVarP(&plat, "platform", "p", platform.Default, "platform: "+strings.Join(platform.Slugs(), ", "))
	cmd.Flags().StringVarP(&stat, "stat", "s", api.StatKDRatio, "stat key: kdRatio or wlPercentage")
	cmd.Flags().StringVar(&cookie, "cookie", "", "Cookie header to forward upstream")
	return cmd
}

func playersCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "players",
		Short: "List cached players, most recently fetched first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			players, err := a.players.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderPlayers(os.Stdout, players)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum players to list")
	return cmd
}
