package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "contentdiff",
		Short: "Content Diff CLI - migrate new and modified content between WordPress table sets",
		Long: `Content Diff CLI migrates content that was published on a live site while a
staging copy of its database was being worked on. It diffs the live and local
table sets, imports new and modified posts with their full relational closure,
and fixes up IDs embedded in post content afterwards.`,
		Version: "1.0.0",
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.contentdiff.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose output")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.PersistentFlags().String("dsn", "", "MySQL DSN (overrides the db-* flags)")
	rootCmd.PersistentFlags().String("db-host", "127.0.0.1", "database host")
	rootCmd.PersistentFlags().String("db-port", "3306", "database port")
	rootCmd.PersistentFlags().String("db-user", "root", "database user")
	rootCmd.PersistentFlags().String("db-pass", "", "database password")
	rootCmd.PersistentFlags().String("db-name", "wordpress", "database name")
	for _, flag := range []string{"dsn", "db-host", "db-port", "db-user", "db-pass", "db-name"} {
		viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
	}

	// Load environment variables from a .env file in the current directory.
	// If the .env file doesn't exist, that's fine - environment variables can still be set in the shell.
	// Only warn on actual errors (permissions, parse errors, etc.)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".contentdiff")
	}

	viper.SetEnvPrefix("contentdiff")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
