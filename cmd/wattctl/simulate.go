package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/simulator"
)

func newSimulateCmd(newLogger func() *zap.Logger) *cobra.Command {
	var (
		baseURL      string
		token        string
		step         time.Duration
		day          string
		delay        time.Duration
		seed         int64
		profilesPath string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Post one day of simulated readings for every device through the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("WATTGAZER_TOKEN")
			}
			if token == "" {
				return fmt.Errorf("--token is required")
			}
			if profilesPath == "" {
				profilesPath = os.Getenv("SIMULATOR_PROFILES")
			}

			logger := newLogger()
			defer logger.Sync()

			date := time.Now()
			if day != "" {
				parsed, err := time.ParseInLocation("2006-01-02", day, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --day: %w", err)
				}
				date = parsed
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			profiles, err := simulator.LoadProfiles(profilesPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client := simulator.NewClient(baseURL, token)

			devices, err := client.Devices(ctx)
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No devices found for this user")
				return nil
			}

			readings := simulator.NewGenerator(profiles, seed).Day(devices, date, step)

			var sent, failed int
			for i, r := range readings {
				if err := client.Send(ctx, r); err != nil {
					failed++
					logger.Warn("Failed to send reading", zap.Error(err))
				} else {
					sent++
				}

				// 每个时间点发送完后稍作等待
				if delay > 0 && (i+1)%len(devices) == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(delay):
					}
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Telemetry simulation complete: %d sent, %d failed\n", sent, failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:4000", "Wattgazer server URL")
	cmd.Flags().StringVar(&token, "token", "", "Session token (defaults to WATTGAZER_TOKEN)")
	cmd.Flags().DurationVar(&step, "step", 5*time.Minute, "Interval between simulated readings")
	cmd.Flags().StringVar(&day, "day", "", "Day to simulate as YYYY-MM-DD (defaults to today)")
	cmd.Flags().DurationVar(&delay, "delay", 100*time.Millisecond, "Pause between batches")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 = time based)")
	cmd.Flags().StringVar(&profilesPath, "profiles", "", "TOML load profiles (defaults to SIMULATOR_PROFILES)")

	return cmd
}
