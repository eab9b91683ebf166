package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hatlonely/dbadmin/app"
	"github.com/hatlonely/dbadmin/cfg"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const envPrefix = "DBADMIN"

var configPath string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dbadmin",
		Short:         "Schema-driven database administration",
		Long:          `Browse, filter, edit and delete rows of any table in a SQLite, MySQL or PostgreSQL database, from the command line or over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file (yaml, json, toml or ini)")

	rootCmd.AddCommand(
		newServeCmd(),
		newTablesCmd(),
		newDescribeCmd(),
		newListCmd(),
		newGetCmd(),
		newInsertCmd(),
		newUpdateCmd(),
		newSetCmd(),
		newDeleteCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadOptions() (*app.Options, error) {
	options := &app.Options{}
	if err := cfg.Load(configPath, envPrefix, options); err != nil {
		return nil, errors.WithMessage(err, "cannot load config")
	}
	return options, nil
}

// withApp 加载配置并创建应用，fn 返回后释放连接
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	options, err := loadOptions()
	if err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), options)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
