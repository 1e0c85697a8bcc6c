package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"smsledger/internal/smsparser"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <message>",
		Short: "Parse one bank SMS and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runParse,
	}
	cmd.Flags().String("sender", "", "sender ID of the message")
	cmd.Flags().Int64("timestamp", 0, "receive time in Unix milliseconds")
	cmd.Flags().Bool("save", false, "record the transaction in the ledger")

	_ = viper.BindPFlag("parse.sender", cmd.Flags().Lookup("sender"))
	_ = viper.BindPFlag("parse.timestamp", cmd.Flags().Lookup("timestamp"))
	_ = viper.BindPFlag("parse.save", cmd.Flags().Lookup("save"))
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.close()

	msg := smsparser.Message{Text: strings.Join(args, " ")}
	if sender := viper.GetString("parse.sender"); sender != "" {
		msg.Sender = &sender
	}
	if ts := viper.GetInt64("parse.timestamp"); ts != 0 {
		msg.Timestamp = &ts
	}

	outcome, err := l.sms.ParseOne(cmd.Context(), l.deviceID, msg, viper.GetBool("parse.save"))
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), outcome)
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <message>",
		Short: "Report whether a message looks like a bank notification",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			valid := smsparser.IsBankSMS(strings.Join(args, " "))
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%t\n", valid)
			return err
		},
	}
}
