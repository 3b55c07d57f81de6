package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/torfstack/zenremote/internal/config"
	"github.com/torfstack/zenremote/internal/db"
	"github.com/torfstack/zenremote/internal/logging"
	"github.com/torfstack/zenremote/internal/service"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "zenremote",
		Short:         "Use a Zenodo deposition as remote file storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		debug      bool
		sandbox    bool
		deposition int64
		limit      int
	)
	rootCmd.PersistentFlags().
		BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().
		BoolVar(&sandbox, "sandbox", false, "Use https://sandbox.zenodo.org instead of https://zenodo.org")
	rootCmd.PersistentFlags().
		Int64Var(&deposition, "deposition", 0, "Deposition id (default: remembered or newly created)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.SetDebug(debug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// withService loads the config, applies flags and runs fn against a
	// connected service.
	withService := func(fn func(*cobra.Command, *service.Service, []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sandbox") {
				cfg.Sandbox = sandbox
			}
			if cmd.Flags().Changed("deposition") {
				cfg.Deposition = deposition
			}

			d, err := db.New(ctx)
			if err != nil {
				return fmt.Errorf("could not open state database: %w", err)
			}
			defer func(d *db.Database) {
				if err := d.Close(); err != nil {
					logging.Debugf("Could not close state database: %s", err)
				}
			}(d)

			srv, err := service.NewService(ctx, cfg, d)
			if err != nil {
				return err
			}
			return fn(cmd, srv, args)
		}
	}

	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.GetInteractive(); err != nil {
				return err
			}
			fmt.Printf("Configuration written to %s\n", config.Path())
			return nil
		},
	}

	var createCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a new deposition and use it from now on",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, srv *service.Service, args []string) error {
			id, err := srv.CreateDeposition(ctx)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		}),
	}

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List files of the deposition",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, srv *service.Service, args []string) error {
			files, err := srv.ListFiles(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, name := range files.Names() {
				f := files[name]
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", name, f.Size, f.Checksum, f.ID)
			}
			return tw.Flush()
		}),
	}

	var existsCmd = &cobra.Command{
		Use:   "exists <path>",
		Short: "Check whether a file is in the deposition",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, srv *service.Service, args []string) error {
			ok, err := srv.Object(srv.LocalPath(args[0]), "").Exists(ctx)
			if err != nil {
				return err
			}
			fmt.Println(ok)
			return nil
		}),
	}

	var sizeCmd = &cobra.Command{
		Use:   "size <path>",
		Short: "Print the size of a remote file, or of the local file if it is not uploaded",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, srv *service.Service, args []string) error {
			size, err := srv.Object(srv.LocalPath(args[0]), "").Size(ctx)
			if err != nil {
				return err
			}
			fmt.Println(size)
			return nil
		}),
	}

	var mtimeCmd = &cobra.Command{
		Use:   "mtime <path>",
		Short: "Print the modification time reported for a remote file",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, srv *service.Service, args []string) error {
			mtime, err := srv.Object(srv.LocalPath(args[0]), "").Mtime(ctx)
			if err != nil {
				return err
			}
			fmt.Println(mtime.Format(time.RFC3339))
			return nil
		}),
	}

	var downloadCmd = &cobra.Command{
		Use:   "download <path>...",
		Short: "Download files, verifying their checksums",
		Args:  cobra.MinimumNArgs(1),
		RunE: withService(func(cmd *cobra.Command, srv *service.Service, args []string) error {
			for _, arg := range args {
				path := srv.LocalPath(arg)
				if err := srv.Download(ctx, path); err != nil {
					return fmt.Errorf("could not download '%s': %w", arg, err)
				}
				logging.Infof("Downloaded %s", path)
			}
			return nil
		}),
	}

	var remoteName string
	var uploadCmd = &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file to the deposition",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, srv *service.Service, args []string) error {
			path := srv.LocalPath(args[0])
			name := remoteName
			if name == "" {
				name = args[0]
			}
			if err := srv.Upload(ctx, path, name); err != nil {
				return err
			}
			logging.Infof("Uploaded %s as '%s' to deposition %d", path, name, srv.Deposition())
			return nil
		}),
	}
	uploadCmd.Flags().StringVar(&remoteName, "as", "", "Name of the file in the deposition (default: the given path)")

	var watchCmd = &cobra.Command{
		Use:   "watch [dir]",
		Short: "Upload new files appearing below a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: withService(func(cmd *cobra.Command, srv *service.Service, args []string) error {
			dir := srv.LocalPath(".")
			if len(args) == 1 {
				dir = srv.LocalPath(args[0])
			}
			return srv.Watch(ctx, dir)
		}),
	}

	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recent transfers of the deposition",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, srv *service.Service, args []string) error {
			transfers, err := srv.History(ctx, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, t := range transfers {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					t.At.Local().Format(time.DateTime), t.Direction, t.Filename, strconv.FormatInt(t.Size, 10), t.Checksum)
			}
			return tw.Flush()
		}),
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of transfers to show")

	rootCmd.AddCommand(
		initCmd, createCmd, listCmd, existsCmd, sizeCmd, mtimeCmd,
		downloadCmd, uploadCmd, watchCmd, historyCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		logging.Error("zenremote failed", err)
		os.Exit(1)
	}
}
