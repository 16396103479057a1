/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/tarjim/internal/config"
	"github.com/valpere/tarjim/internal/logging"
)

var version = "0.1.0"

var (
	cfgFile string

	v      = viper.New()
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tarjim",
	Short: "English/Arabic document translator",
	Long: `Translate text and documents between English and Arabic.

The translation direction is detected from the script of the input unless
given explicitly with --direction (en2ar or ar2en). Documents are translated
line by line, either directly (translate), through the background job queue
(submit) or over HTTP (serve).

Settings come from tarjim.yaml, TARJIM_* environment variables and flags.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./tarjim.yaml or ~/.config/tarjim/tarjim.yaml)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console or json)")
	flags.StringSlice("services", []string{"mymemory"}, "Translation services to use (comma-separated)")

	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindPFlag("engine.services", flags.Lookup("services"))
}
