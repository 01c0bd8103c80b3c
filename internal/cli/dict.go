package cli

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/labelguard/labelguard/internal/dict"
	"github.com/labelguard/labelguard/internal/rules"
)

// dictCmd represents the dict command
var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Inspect and validate rule dictionaries",
}

var dictValidateCmd = &cobra.Command{
	Use:   "validate <patterns.yaml>",
	Short: "Validate a rule dictionary against the rule catalog",
	Long: `Validate checks a dictionary file the same way a scan run would:
every intent, regex and threshold the rule catalog references must resolve,
every regex must compile, and the severity map must be total over the
registry. A dictionary that fails validation cannot be used for any run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dict.Load(args[0], rules.Requirements())
		if err != nil {
			return eris.Wrap(err, "invalid dictionary")
		}
		fmt.Printf("✓ %s is valid (dict_version %s, %d registered risk types)\n",
			args[0], d.DictVersion, len(d.Registry()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dictCmd)
	dictCmd.AddCommand(dictValidateCmd)
}
