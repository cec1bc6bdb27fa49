package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/SscSPs/bookkeeping_ledger/internal/dto"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPostCmd(app *App) *cobra.Command {
	var (
		file    string
		actorID string
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a journal entry read from a YAML or JSON file",
		Long: `Post validates and records one balanced entry. Posting the same content again
returns the stored transaction.

Example entry (YAML):
  transaction:
    companyId: acme
    transactionNumber: JE-001
    date: "2024-03-10"
    type: JOURNAL_ENTRY
  lines:
    - accountId: cash
      debit: "50000.00"
    - accountId: equity
      credit: "50000.00"
  actor:
    userId: alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readPostRequest(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if actorID != "" {
				req.Actor.UserID = actorID
			}
			return app.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				txn, err := rt.services.Posting.Post(ctx, *req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.ToTransactionResponse(txn))
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "entry file (.yaml, .yml or .json); - reads YAML from stdin")
	cmd.Flags().StringVar(&actorID, "actor", "", "acting user id, overriding the file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readPostRequest(path string, stdin io.Reader) (*dto.PostTransactionRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read entry file: %w", err)
	}

	var req dto.PostTransactionRequest
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &req)
	} else {
		err = yaml.Unmarshal(data, &req)
	}
	if err != nil {
		return nil, fmt.Errorf("parse entry file %s: %w", path, err)
	}
	return &req, nil
}
