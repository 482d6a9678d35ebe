package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/duality-lang/duality/internal/pkg/processors"
)

func xfuncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "xfunc <file> <type>",
		Short: "print the module with one type's matrix transposed",
		Long: "Refunctionalizes a data type into a codata type (its defs become\n" +
			"destructors) or defunctionalizes a codata type into a data type\n" +
			"(its codefs become constructors), and prints the resulting module.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLog(cmd)
			_, table := loadModule(log, args[0])
			if log.HasErrors() {
				return errors.Errorf("%s does not elaborate", args[0])
			}
			mod, err := processors.Xfunc(table, ast.Identifier(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), mod.Code())
			return nil
		},
	}
}
