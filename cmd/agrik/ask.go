package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/agrik/agrik-dashboard/components/dashboard"
	"github.com/agrik/agrik-dashboard/pkg/exchangelog"
)

type askCmd struct {
	Prompt []string `arg:"" help:"Prompt text."`
	Mock   bool     `help:"Use the built-in mock assistant."`
}

func (cmd *askCmd) Run(ctx context.Context, g *globals) error {
	cfg, _, err := loadConfig(g, cmd.Mock)
	if err != nil {
		return err
	}
	prompt := strings.Join(cmd.Prompt, " ")
	validator, err := dashboard.NewJSONSchemaPromptValidator(cfg.Dashboard.MaxPromptLength)
	if err != nil {
		return err
	}
	if err := validator.ValidatePrompt(prompt); err != nil {
		return err
	}
	client, err := newAssistant(cfg)
	if err != nil {
		return err
	}
	askCtx, cancel := context.WithTimeout(ctx, cfg.Assistant.Timeout)
	defer cancel()
	reply, err := client.Ask(askCtx, prompt)
	if err != nil {
		return fmt.Errorf("%s: %w", dashboard.ClassifyFailure(err), err)
	}
	fmt.Fprintln(os.Stdout, reply)
	return nil
}

type historyCmd struct {
	Session string `help:"Only list exchanges of this session."`
	Limit   int    `default:"20" help:"Maximum number of exchanges."`
}

func (cmd *historyCmd) Run(ctx context.Context, g *globals) error {
	cfg, _, err := loadConfig(g, true)
	if err != nil {
		return err
	}
	if cfg.ExchangeLog.Path == "" {
		return errors.New("exchange_log.path is not configured")
	}
	store, err := exchangelog.Open(cfg.ExchangeLog.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	records, err := store.Recent(ctx, cmd.Session, cmd.Limit)
	if err != nil {
		return err
	}
	for _, rec := range records {
		outcome := rec.Response
		if rec.Status == dashboard.ChatFailed {
			outcome = "failed: " + string(rec.Reason)
		}
		if rec.Stale {
			outcome += " (stale)"
		}
		fmt.Fprintf(os.Stdout, "%s  %s #%d  %q -> %s\n",
			rec.At.Format("2006-01-02 15:04:05"), rec.SessionID, rec.Seq, rec.Prompt, outcome)
	}
	return nil
}
