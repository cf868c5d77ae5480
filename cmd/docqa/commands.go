package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docqa/internal/app"
	"github.com/dgallion1/docqa/internal/qa"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// builder constructs the App lazily so that --help never touches storage.
type builder func(verbose bool) (*app.App, error)

func newRootCmd(build builder) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "docqa",
		Short:         "Index documents and ask questions about them",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	withApp := func(run func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := build(verbose)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, a, args)
		}
	}

	root.AddCommand(
		newIndexCmd(withApp),
		newAskCmd(withApp),
		newSummaryCmd(withApp),
		newPreviewCmd(withApp),
		newPagesCmd(withApp),
		newDeleteCmd(withApp),
	)
	return root
}

type runWithApp func(run func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error

func newIndexCmd(withApp runWithApp) *cobra.Command {
	var id, mimeType string
	cmd := &cobra.Command{
		Use:   "index [file]",
		Short: "Extract and index a document",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if len(data) == 0 {
				return errors.New("file is empty")
			}
			if int64(len(data)) > a.Config.MaxUploadBytes {
				return fmt.Errorf("file exceeds max size (%d bytes)", a.Config.MaxUploadBytes)
			}
			if id == "" {
				id = uuid.NewString()
			}
			filename := filepath.Base(path)
			if mimeType == "" {
				mimeType = detectMIME(filename, data)
			}

			pages, err := a.Orchestrator.Index(cmd.Context(), id, data, filename, mimeType)
			if err != nil {
				return err
			}
			status := "indexed"
			if pages == 0 {
				status = "error"
			}
			cmd.Printf("%s\t%s\t%d pages\t%s\n", id, filename, pages, status)
			return nil
		}),
	}
	cmd.Flags().StringVar(&id, "id", "", "Document id (default: random uuid)")
	cmd.Flags().StringVar(&mimeType, "mime", "", "MIME type (default: detected)")
	return cmd
}

func newAskCmd(withApp runWithApp) *cobra.Command {
	var name string
	var showSources bool
	cmd := &cobra.Command{
		Use:   "ask [doc-id] [question...]",
		Short: "Answer a question from an indexed document",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			question := strings.TrimSpace(strings.Join(args[1:], " "))
			if question == "" {
				return errors.New("question is required")
			}
			answer, sources, err := a.Synthesizer.Answer(cmd.Context(), question, args[0], name)
			if err != nil {
				return err
			}
			cmd.Println(answer)
			if showSources {
				for _, src := range sources {
					cmd.Printf("\n[page %d, score %.2f]\n%s\n", src.Page, src.Score, src.Snippet)
				}
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "Document name shown to the generator")
	cmd.Flags().BoolVar(&showSources, "sources", false, "Print the supporting snippets")
	return cmd
}

func newSummaryCmd(withApp runWithApp) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "summary [doc-id]",
		Short: "Summarize an indexed document",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			sum, ok, err := a.Synthesizer.Summarize(cmd.Context(), args[0], label)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no summary available for %s", args[0])
			}
			cmd.Println(sum.Text)
			if qa.IsFallbackSummary(sum.Text) {
				cmd.PrintErrln("note: built from extracted text; no generation collaborator replied")
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&label, "label", "", "Label used in the summary")
	return cmd
}

func newPreviewCmd(withApp runWithApp) *cobra.Command {
	return &cobra.Command{
		Use:   "preview [doc-id]",
		Short: "Print the preview payload as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			p, err := a.Synthesizer.Preview(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		}),
	}
}

func newPagesCmd(withApp runWithApp) *cobra.Command {
	return &cobra.Command{
		Use:   "pages [doc-id]",
		Short: "Print the stored pages as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			idx, err := a.Store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, idx)
		}),
	}
}

func newDeleteCmd(withApp runWithApp) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [doc-id]",
		Short: "Remove a document's index",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			if err := a.Orchestrator.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("deleted %s\n", args[0])
			return nil
		}),
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// detectMIME guesses from the extension first, then sniffs the content.
func detectMIME(filename string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
