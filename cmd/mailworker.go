/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/notekeeper/apiserver/config"
	"github.com/notekeeper/apiserver/internal/mail"
	"github.com/notekeeper/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

// mailWorkerCmd represents the mail-worker command
var mailWorkerCmd = &cobra.Command{
	Use:   "mail-worker",
	Short: "Delivers queued outbound mail over SMTP",
	Long: `Consumes the outbound mail channel and delivers each message over SMTP.
Run it when the server uses MAIL_TRANSPORT=queue. Usage:

	notekeeper mail-worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		backend, err := mq.NewBackend(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("init mq: %w", err)
		}
		queue := mq.New(backend)
		defer queue.Close()

		worker := mail.NewWorker(queue, mail.NewSMTPSender(cfg.Mail.SMTP), cfg.Mail.Channel, log.With("component", "mail-worker"))
		return worker.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mailWorkerCmd)
}
