// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/balance/pkg/admission"
	"github.com/AleutianAI/balance/pkg/clock"
	"github.com/AleutianAI/balance/pkg/escalation"
	"github.com/AleutianAI/balance/pkg/ledger"
	"github.com/AleutianAI/balance/pkg/logging"
	"github.com/AleutianAI/balance/pkg/schedule"
)

var (
	rootCmd = &cobra.Command{
		Use:   "balance",
		Short: "Time and usage gating for your coding assistant",
		Long: `Balance decides when the assistant is available: which weekdays,
which hours, and how many active minutes per day. When you hit a
limit you can request an extension, though repeated requests get
progressively harder to confirm.`,
		SilenceUsage: true,
	}

	hookCmd = &cobra.Command{
		Use:   "hook",
		Short: "Admission hook invoked by the assistant on every prompt",
		Long: `Reads the prompt-submit event on stdin and decides whether the
prompt may proceed. Exit 0 allows; exit 2 blocks with the reason on
stderr. Meant to be wired into the assistant's hook config, not run
by hand.`,
		Hidden: true,
		Run:    runHook,
	}

	extendCmd = &cobra.Command{
		Use:   "extend [type]",
		Short: "Request a temporary extension past the schedule or cap",
		Args:  cobra.MaximumNArgs(1),
		Run:   runExtend,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show today's gate state, usage, and extensions",
		Run:   runStatus,
	}

	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove any active override",
		Run:   runClear,
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a starter balance.json config",
		Run:   runInit,
	}

	statuslineCmd = &cobra.Command{
		Use:    "statusline",
		Short:  "Render the one-line session status from a stdin event",
		Hidden: true,
		Run:    runStatusline,
	}

	statusJSON bool
	initForce  bool
)

func init() {
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(extendCmd)
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status as JSON")
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
	rootCmd.AddCommand(statuslineCmd)
}

// balanceHome returns the state root: BALANCE_HOME if set, otherwise
// ~/.balance.
func balanceHome() string {
	if home := os.Getenv("BALANCE_HOME"); home != "" {
		return logging.ExpandPath(home)
	}
	return logging.ExpandPath("~/.balance")
}

// app bundles the wiring every command needs: config, stores, engine,
// granter, and a logger scoped to the invoking service.
type app struct {
	home         string
	cfg          *schedule.Config
	store        *ledger.Store
	table        *escalation.Table
	granter      *escalation.Granter
	engine       *admission.Engine
	overridePath string
	log          *logging.Logger
}

// newApp loads config and opens the stores. quiet routes logs to file
// only; the hook uses it so stderr stays reserved for block messages.
func newApp(service string, quiet bool) (*app, error) {
	home := balanceHome()

	cfg, err := schedule.Load(filepath.Join(home, "balance.json"))
	if err != nil {
		return nil, err
	}

	store, err := ledger.New(filepath.Join(home, "usage"))
	if err != nil {
		return nil, err
	}

	table, err := escalation.LoadTable(filepath.Join(home, "escalation.yaml"))
	if err != nil {
		return nil, err
	}

	log := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("BALANCE_LOG_LEVEL")),
		LogDir:  filepath.Join(home, "logs"),
		Service: service,
		Quiet:   quiet,
	})

	overridePath := resolveOverridePath(home, cfg.Override.File)

	a := &app{
		home:         home,
		cfg:          cfg,
		store:        store,
		table:        table,
		overridePath: overridePath,
		log:          log,
	}
	a.engine = admission.New(cfg, store, overridePath, log)
	a.granter = &escalation.Granter{
		Config:       cfg,
		Store:        store,
		Table:        table,
		OverridePath: overridePath,
	}
	return a, nil
}

// resolveOverridePath expands ~ in the configured override file path
// and anchors relative paths at the state root.
func resolveOverridePath(home, configured string) string {
	if configured == "" {
		return filepath.Join(home, "override.json")
	}
	path := logging.ExpandPath(configured)
	if !filepath.IsAbs(path) {
		path = filepath.Join(home, path)
	}
	return path
}

func (a *app) close() {
	_ = a.log.Close()
}

// now resolves the current moment in the configured timezone.
func (a *app) now() (clock.Moment, error) {
	return clock.Now(a.cfg.Timezone)
}
