// Command duality is the driver around the elaborator and normalizer:
// thin glue that loads a module file, reports diagnostics and answers
// observation requests.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/duality-lang/duality/internal/pkg/ast/source"
	"github.com/duality-lang/duality/internal/pkg/ast/typed"
	"github.com/duality-lang/duality/internal/pkg/common"
	"github.com/duality-lang/duality/internal/pkg/parser"
	"github.com/duality-lang/duality/internal/pkg/processors"
)

func main() {
	root := &cobra.Command{
		Use:           "duality",
		Short:         "elaborator and normalizer for the Duality language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Uint64("budget", 0, "evaluation step budget, 0 for unbounded")
	_ = viper.BindPFlag("budget", root.PersistentFlags().Lookup("budget"))
	viper.SetEnvPrefix("DUALITY")
	viper.AutomaticEnv()

	root.AddCommand(checkCmd(), evalCmd(), replCmd(), xfuncCmd(), watchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLog(cmd *cobra.Command) *common.LogWriter {
	return &common.LogWriter{Out: cmd.ErrOrStderr()}
}

// loadModule parses and elaborates one file, funneling diagnostics into
// the log. The table is returned even when elaboration failed, so the
// repl can still answer questions about the parts that did check.
func loadModule(log *common.LogWriter, filePath string) (*source.Module, *typed.Table) {
	mod, errs := parser.Parse(filePath)
	log.Err(errs...)
	if mod == nil {
		return nil, nil
	}
	table, elabErrs := processors.Elaborate(mod)
	log.Err(elabErrs...)
	return mod, table
}

// evalLine elaborates and normalizes one expression against the table.
func evalLine(table *typed.Table, line string, budget uint64) (string, error) {
	exp, err := parser.ParseExpression(line)
	if err != nil {
		return "", err
	}
	texp, errs := processors.ElaborateExpression(table, exp, nil)
	if len(errs) > 0 {
		return "", errs[0]
	}
	norm := processors.NewNormalizer(table, budget)
	v, err := norm.Eval(texp)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
