package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dhanwis/tutoradmin/internal/cmd/config"
	appconfig "github.com/dhanwis/tutoradmin/internal/config"
	"github.com/dhanwis/tutoradmin/internal/errors"
)

// NewRootCmd builds the full tutoradmin command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tutoradmin",
		Short: "Admin console for the tutoring platform",
		Long: `tutoradmin manages the tutoring platform from the terminal: list
students and tutors, review tutor applications, assign tutors to students
and students to tutors, and maintain the course catalog.

All records live in the platform's admin API; run 'tutoradmin login' first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/tutoradmin/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format: table, json or yaml")
	rootCmd.PersistentFlags().String("base-url", "", "admin API base URL")

	registerAuthCmds(rootCmd)
	registerStudentsCmd(rootCmd)
	registerTutorsCmd(rootCmd)
	registerAssignCmd(rootCmd)
	registerCategoriesCmd(rootCmd)
	registerReviewsCmd(rootCmd)
	config.Register(rootCmd)

	return rootCmd
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// initConfig rebuilds viper's state for one invocation so flags, environment
// and config file never leak between runs.
func initConfig(cmd *cobra.Command) error {
	// A .env file in the working directory may supply TUTORADMIN_* variables;
	// values already in the environment win.
	_ = godotenv.Load()

	viper.Reset()
	appconfig.SetDefaults()

	flags := cmd.Root().PersistentFlags()
	_ = viper.BindPFlag("api.base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("output.format", flags.Lookup("output"))

	cfgFile, _ := flags.GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
	}

	viper.SetEnvPrefix("TUTORADMIN")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TUTORADMIN_API_BASE_URL for api.base_url
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing default config file is fine; an explicit one must be readable
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return errors.NewValidationError("cannot read config file").WithField("config").WithCause(err)
		}
	}
	return nil
}
