package cmd

import (
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "INTAKE"

var rootCmd = &cobra.Command{
	Use:   "intake-workflow-backend",
	Short: "Staged intake workflow backend",
	Long: "Backend for staged intake flows: a stage stepper with a conditional " +
		"validation graph, provider-backed entity verification, document uploads " +
		"and final record submission.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
}

func Execute() error {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	rootCmd.AddCommand(serveCmd())
	return rootCmd.Execute()
}

func initConfig() {
	// A missing .env is fine, environment variables alone are enough.
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	level, err := log.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		log.Warnf("invalid log level %q, defaulting to info", viper.GetString("log-level"))
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
