package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"smsledger/internal/logger"
	"smsledger/internal/models"
	"smsledger/internal/services"
	"smsledger/internal/smsparser"
)

const maxLineBytes = 1 << 20

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an SMS export into the ledger",
		Long: `Import messages from a file with one message per line. A line is either
plain message text or a JSON string or object with text, sender and timestamp.
Use "-" to read standard input. Messages already in the ledger are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
	cmd.Flags().Int("batch-size", 100, "messages per ingestion batch")
	cmd.Flags().Bool("quiet", false, "hide the progress bar")

	_ = viper.BindPFlag("import.batch_size", cmd.Flags().Lookup("batch-size"))
	_ = viper.BindPFlag("import.quiet", cmd.Flags().Lookup("quiet"))
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	in := io.Reader(os.Stdin)
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open export: %w", err)
		}
		defer f.Close()
		in = f
	}

	messages, err := readMessages(in)
	if err != nil {
		return err
	}

	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.close()

	var bar *progressbar.ProgressBar
	if !viper.GetBool("import.quiet") {
		bar = progressbar.NewOptions(len(messages),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Importing messages..."),
			progressbar.OptionOnCompletion(func() {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr())
			}),
		)
	}

	total, err := importChunks(cmd, l, messages, viper.GetInt("import.batch_size"), bar)
	if err != nil {
		return err
	}

	logger.Get().Infow("Import finished",
		"device_id", l.deviceID,
		"total", total.Total,
		"saved", total.Saved,
		"duplicates", total.Duplicates,
		"errors", len(total.Errors),
	)
	return writeJSON(cmd.OutOrStdout(), total)
}

// importChunks feeds messages to the ledger in batches and merges the outcomes.
func importChunks(cmd *cobra.Command, l *ledger, messages []smsparser.Message, size int, bar *progressbar.ProgressBar) (*services.BatchOutcome, error) {
	if size < 1 {
		size = 100
	}
	total := &services.BatchOutcome{
		Success:        true,
		Transactions:   []*models.Transaction{},
		DuplicateItems: []services.DuplicateItem{},
		Errors:         []smsparser.BatchError{},
	}

	for start := 0; start < len(messages); start += size {
		if err := cmd.Context().Err(); err != nil {
			return total, err
		}
		end := min(start+size, len(messages))
		out, err := l.sms.ProcessBatch(cmd.Context(), l.deviceID, messages[start:end])
		if err != nil {
			return total, err
		}
		mergeOutcome(total, out)
		if bar != nil {
			_ = bar.Add(end - start)
		}
	}
	return total, nil
}

func mergeOutcome(dst, src *services.BatchOutcome) {
	dst.Total += src.Total
	dst.Parsed += src.Parsed
	dst.Saved += src.Saved
	dst.Duplicates += src.Duplicates
	dst.Transactions = append(dst.Transactions, src.Transactions...)
	dst.DuplicateItems = append(dst.DuplicateItems, src.DuplicateItems...)
	dst.Errors = append(dst.Errors, src.Errors...)
}

// readMessages reads one message per non-blank line.
func readMessages(r io.Reader) ([]smsparser.Message, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	messages := []smsparser.Message{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var msg smsparser.Message
		if line[0] == '{' || line[0] == '"' {
			if err := json.Unmarshal([]byte(line), &msg); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		} else {
			msg.Text = line
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return messages, nil
}
