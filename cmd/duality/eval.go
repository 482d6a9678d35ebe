package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func evalCmd() *cobra.Command {
	var expr string
	cmd := &cobra.Command{
		Use:   "eval <file> -e <expr>",
		Short: "normalize an expression against an elaborated module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLog(cmd)
			_, table := loadModule(log, args[0])
			if log.HasErrors() {
				return errors.Errorf("%s does not elaborate", args[0])
			}
			out, err := evalLine(table, expr, viper.GetUint64("budget"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&expr, "expr", "e", "", "expression to normalize")
	_ = cmd.MarkFlagRequired("expr")
	return cmd
}
