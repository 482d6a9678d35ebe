package main

import (
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "parse and elaborate a module, printing diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLog(cmd)
			_, table := loadModule(log, args[0])
			if log.HasErrors() {
				return errors.Errorf("%s: %d problem(s)", args[0], len(log.Errors()))
			}
			if dump {
				spew.Fdump(os.Stdout, table)
			}
			log.Trace("%s: ok", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the elaborated signature table")
	return cmd
}
