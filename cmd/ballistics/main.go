package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/oxygene76/ballistics-client/pkg/utils"
)

const (
	appName = "ballistics"
	version = "v1.0.0"
)

var (
	// Configuration
	cfgFile   string
	logLevel  string
	appConfig *utils.Config
	logger    zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Ballistic trajectories on a rotating planet",
	Long: `ballistics simulates a point mass launched from the surface of (or above)
a rotating spherical body under inverse-square gravity until it comes back
down. Runs can be driven from the command line or served over HTTP with a
websocket progress stream.

Values accept units: "10 km", "300 km/h", "45" (degrees), "24 h".`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" || cmd.Name() == "version" || cmd.Name() == "help" {
			logger = utils.NewLogger(utils.LogConfig{Level: logLevel})
			return nil
		}

		config, err := utils.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			config.Log.Level = logLevel
		}
		appConfig = config
		logger = utils.NewLogger(config.Log)
		return nil
	},
}

// initCmd writes the default configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path := cfgFile
		if path == "" {
			var err error
			if path, err = utils.GetConfigPath(); err != nil {
				return err
			}
		}
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		written, err := utils.SaveConfig(utils.DefaultConfig(), path)
		if err != nil {
			return err
		}

		fmt.Printf("Configuration saved to: %s\n", written)
		fmt.Println("\nNext steps:")
		fmt.Println("1. Edit the simulation section or pick a preset: ballistics presets")
		fmt.Println("2. Run it: ballistics simulate --summary")
		fmt.Println("3. Or serve the API: ballistics serve")
		return nil
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List body presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range utils.Presets() {
			s := p.Simulation
			fmt.Printf("%-10s %s\n", p.Name, p.Description)
			fmt.Printf("%-10s radius=%s g=%s rotation=%s speed=%s alt=%s azm=%s\n",
				"", s.Radius, s.GSurfaceAcc, s.RotationPeriod, s.Speed, s.Alt, s.Azm)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", appName, version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ballistics/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)

	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
