package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const historyFile = ".duality_history"

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl <file>",
		Short: "interactively observe values of an elaborated module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLog(cmd)
			_, table := loadModule(log, args[0])
			if log.HasErrors() {
				return errors.Errorf("%s does not elaborate", args[0])
			}

			home, _ := os.UserHomeDir()
			histPath := filepath.Join(home, historyFile)

			ln := liner.NewLiner()
			defer ln.Close()
			ln.SetCtrlCAborts(true)
			if f, err := os.Open(histPath); err == nil {
				_, _ = ln.ReadHistory(f)
				_ = f.Close()
			}

			for {
				line, err := ln.Prompt("> ")
				if err != nil { // Ctrl+D or Ctrl+C
					fmt.Fprintln(cmd.OutOrStdout())
					break
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == ":quit" || line == ":q" {
					break
				}
				ln.AppendHistory(line)
				out, err := evalLine(table, line, viper.GetUint64("budget"))
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}

			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
			return nil
		},
	}
}
