package main

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danesh-portal/danesh/cmd/danesh/config"
	"github.com/danesh-portal/danesh/storage"
	"github.com/danesh-portal/danesh/storage/model"
)

var rootCmd = &cobra.Command{
	Use:          "daneshctl",
	Short:        "daneshctl can help you manage your danesh portal",
	Long:         "daneshctl can help you manage your danesh portal: accounts, the admin bootstrap and imports of legacy exports",
	SilenceUsage: true,
}

var configFile string

// loaded by openStorage
var (
	backends  model.Backends
	warehouse *storage.Storage
)

// openStorage loads the config and opens the database; it is the
// PersistentPreRunE of all commands that work on the database
func openStorage(*cobra.Command, []string) error {
	if err := config.Load(configFile); err != nil {
		return err
	}
	var err error
	backends, warehouse, err = config.LoadStorageBackends(config.Get())
	return err
}

func closeStorage(*cobra.Command, []string) error {
	if warehouse == nil {
		return nil
	}
	return warehouse.Close()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFile, "config", "c", "", "the config file to use (default $"+config.EnvConfigFile+" or config.yaml)",
	)
	rootCmd.AddCommand(usersCmd, bootstrapCmd, importCmd, remoteCmd)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not load .env file")
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
