package cli

import (
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/source"
)

// editCommand opens the interactive code editor.
func (c *CLI) editCommand() *cobra.Command {
	var (
		importPath string
		output     string
		skipHeader bool
	)

	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Enter or edit codes interactively",
		Long: `Edit opens a terminal editor with one field per code. Saving (ctrl+s) writes
the non-empty fields, in order, one per line to --output or stdout.

A text file argument pre-fills the fields. With --import the fields show the
imported codes and stay read-only until the import is cleared (ctrl+x).`,
		Example: `  labelsheet edit codes.txt -o codes.txt
  labelsheet edit --import stock.xlsx | labelsheet render - --type ean13`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := source.NewStore()
			if len(args) == 1 {
				fields, err := readFields(args[0])
				if err != nil {
					return err
				}
				if err := store.SetManual(fields); err != nil {
					return err
				}
			}
			if importPath != "" {
				codes, err := source.LoadFile(importPath, source.SpreadsheetOptions{
					SkipHeader: skipHeader || c.settings().Defaults.SkipHeader,
				})
				if err != nil {
					return store.Fail(err)
				}
				if err := store.Import(codes); err != nil {
					return err
				}
			}

			grid, err := c.settings().Grid()
			if err != nil {
				return err
			}
			model := NewEditorModel(store, grid)
			p := tea.NewProgram(model,
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.ErrOrStderr()))
			final, err := p.Run()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "run editor")
			}
			if m, ok := final.(EditorModel); !ok || !m.Saved {
				printInfo(cmd.ErrOrStderr(), "Nothing saved")
				return nil
			}
			return writeCodes(cmd.OutOrStdout(), cmd.ErrOrStderr(), output, store.Codes())
		},
	}

	cmd.Flags().StringVar(&importPath, "import", "", "import codes from a text file or workbook")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write codes to this file instead of stdout")
	cmd.Flags().BoolVar(&skipHeader, "skip-header", false, "skip row 1 of spreadsheets")
	return cmd
}

// readFields reads a text file as raw editor fields, blank lines included.
func readFields(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeImportFailed, err, "read %s", path)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n"), nil
}

// writeCodes writes one code per line to path, or to w when path is empty.
// The confirmation for a file goes to status.
func writeCodes(w, status io.Writer, path string, codes []string) error {
	var b strings.Builder
	for _, code := range codes {
		b.WriteString(code)
		b.WriteByte('\n')
	}
	if path == "" {
		_, err := io.WriteString(w, b.String())
		return err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, err, "write %s", path)
	}
	printSuccess(status, "Saved %s to %s", plural(len(codes), "code"), path)
	return nil
}
