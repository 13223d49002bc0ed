// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JDLewis4313/genius-edtech/internal/export"
	"github.com/JDLewis4313/genius-edtech/internal/storage"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
)

func (a *app) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "Browse saved transcripts",
		Long: `List, show, export and delete saved chat transcripts.

A transcript can be named by its full ID, an ID prefix, or its number in
'mentari history list'.`,
	}
	cmd.AddCommand(
		a.historyListCommand(),
		a.historyShowCommand(),
		a.historyExportCommand(),
		a.historyDeleteCommand(),
	)
	return cmd
}

func (a *app) historyListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved transcripts, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			metas, err := store.List()
			if err != nil {
				return err
			}
			if asJSON {
				if metas == nil {
					metas = []transcript.Meta{}
				}
				data, err := json.MarshalIndent(metas, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, string(data))
				return err
			}
			_, err = fmt.Fprint(a.out, storage.FormatList(metas))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (a *app) historyShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <ref>",
		Short: "Print a saved transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.loadRecord(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, TitleStyle.Render(rec.Title))
			fmt.Fprintln(a.out, DimStyle.Render(fmt.Sprintf("%s  %s  %d entries",
				storage.ShortID(rec.ID),
				rec.UpdatedAt.Local().Format("2006-01-02 15:04"),
				len(rec.Entries))))
			fmt.Fprintln(a.out)

			p := a.newPrinter(true)
			p.flush(transcript.FromRecord(rec))
			return nil
		},
	}
}

func (a *app) historyExportCommand() *cobra.Command {
	var (
		format       string
		output       string
		open         bool
		noMetadata   bool
		noTimestamps bool
		theme        string
	)
	cmd := &cobra.Command{
		Use:   "export <ref>",
		Short: "Export a saved transcript to a file",
		Example: `  mentari history export 1
  mentari history export 3f2a9c1e --format html --open
  mentari history export 2 --format json --output ./exports`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.DefaultOptions()
			opts.OutputDir = output
			opts.OpenAfterExport = open
			opts.IncludeMetadata = !noMetadata
			opts.IncludeTimestamps = !noTimestamps
			opts.Theme = theme

			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return usageErrorf("%v", err)
			}

			rec, err := a.loadRecord(args[0])
			if err != nil {
				return err
			}

			path, err := export.ExportToFile(rec, exporter, opts)
			if path != "" {
				a.logger.Info("transcript exported", zap.String("id", rec.ID), zap.String("path", path))
				fmt.Fprintln(a.out, SuccessStyle.Render("Exported to "+path))
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md, json or html")
	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&open, "open", false, "open the file afterwards")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "leave out the header block")
	cmd.Flags().BoolVar(&noTimestamps, "no-timestamps", false, "leave out entry times")
	cmd.Flags().StringVar(&theme, "theme", "dark", "html theme: light or dark")
	return cmd
}

func (a *app) historyDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <ref>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved transcript",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := storage.Resolve(store, args[0])
			if err != nil {
				return err
			}

			if !yes {
				if !a.terminal() {
					return usageErrorf("refusing to delete without --yes when not interactive")
				}
				fmt.Fprintf(a.out, "Delete %q (%s)? [y/N] ", rec.Title, storage.ShortID(rec.ID))
				var answer string
				_, _ = fmt.Fscanln(a.in, &answer)
				if answer != "y" && answer != "Y" && answer != "yes" {
					fmt.Fprintln(a.out, "Cancelled.")
					return nil
				}
			}

			if err := store.Delete(rec.ID); err != nil {
				return err
			}
			a.logger.Info("transcript deleted", zap.String("id", rec.ID))
			fmt.Fprintln(a.out, SuccessStyle.Render("Deleted "+storage.ShortID(rec.ID)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
