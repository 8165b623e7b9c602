package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/mrops-br/instafiche/internal/app/card"
	"github.com/mrops-br/instafiche/internal/app/editor"
	"github.com/mrops-br/instafiche/internal/app/export"
	"github.com/mrops-br/instafiche/internal/app/service"
	"github.com/mrops-br/instafiche/internal/domain"
	apphttp "github.com/mrops-br/instafiche/internal/infrastructure/http"
	"github.com/mrops-br/instafiche/internal/infrastructure/http/handler"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	ephemeral bool
	app       *application
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "instafiche",
		Short:         "Design promotional product cards and export them as JPEG",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApplication(cmd.Context(), opts.ephemeral)
			if err != nil {
				return err
			}
			opts.app = app
			return nil
		},
	}

	// Runs even when a command fails, so the store lock is always released
	cobra.OnFinalize(func() {
		if opts.app != nil {
			opts.app.Close(context.Background())
			opts.app = nil
		}
	})

	cmd.PersistentFlags().BoolVar(&opts.ephemeral, "ephemeral", false, "keep products in memory instead of the local store")

	cmd.AddCommand(
		newServeCommand(opts),
		newProductsCommand(opts),
		newExportCommand(opts),
	)
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := opts.app
			server := apphttp.NewServer(
				&app.cfg.Server,
				handler.NewEditorHandler(app.session, app.logger),
				handler.NewPageHandler(app.session, app.logger),
				app.logger,
				app.telemetry,
			)

			app.logger.Info("Starting InstaFiche editor")
			if err := server.Start(ctx); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			app.logger.Info("Server stopped")
			return nil
		},
	}
}

func newProductsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage stored products",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List products in carousel order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := opts.app.session.Products(cmd.Context())
			if err != nil {
				return err
			}
			return printProducts(cmd.OutOrStdout(), products)
		},
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Create a product with default content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := opts.app.session.NewProduct(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}

	var yes bool
	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", args[0], err)
			}

			confirm := service.ConfirmFunc(func(_ context.Context, prompt string, p domain.Product) (bool, error) {
				if yes {
					return true, nil
				}
				return ask(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("%s %q [y/N] ", prompt, p.Name))
			})

			deleted, err := opts.app.session.DeleteProduct(cmd.Context(), id, confirm)
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
			}
			return nil
		},
	}
	remove.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	set := &cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Edit one field of a product",
		Long: "Edit one field of a product. Fields: name, description, descriptionAr, " +
			"price, originalPrice, promotionText, soldOut.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid product id %q: %w", args[0], err)
			}

			ctx := cmd.Context()
			session := opts.app.session
			if err := session.Select(ctx, id); err != nil {
				return err
			}

			field := editor.Field(args[1])
			if err := session.Form().Set(ctx, field, args[2]); err != nil {
				return err
			}
			if err := session.Form().Blur(ctx, field); err != nil {
				return err
			}

			p, _ := session.Selected()
			return printProducts(cmd.OutOrStdout(), []domain.Product{p})
		},
	}

	cmd.AddCommand(list, add, remove, set)
	return cmd
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		id    int64
		ratio string
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a product card as a JPEG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session := opts.app.session

			if id != 0 {
				if err := session.Select(ctx, id); err != nil {
					return err
				}
			}

			r, err := domain.ParseAspectRatio(ratio)
			if err != nil {
				return err
			}
			if err := session.SetAspectRatio(r); err != nil {
				return err
			}

			if out == "" {
				out = opts.app.cfg.Export.OutputDir
			}

			download, err := session.Export(ctx, export.DirSink{Dir: out})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), download.Filename)
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "product to export (default: first product)")
	cmd.Flags().StringVar(&ratio, "ratio", domain.AspectSquare.String(), "aspect ratio: 1:1, 4:5 or 9:16")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (default: INSTAFICHE_OUTPUT_DIR)")
	return cmd
}

func printProducts(w io.Writer, products []domain.Product) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tORIGINAL\tSOLD OUT\tIMAGES")
	for _, p := range products {
		original := "-"
		if p.OriginalPrice != nil {
			original = card.FormatPrice(*p.OriginalPrice)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%d\n",
			p.ID, p.Name, card.FormatPrice(p.Price), original, p.SoldOut, len(p.Images))
	}
	return tw.Flush()
}

func ask(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
