package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/modelcfg/pkg/cfgkind"
	"github.com/ethpandaops/modelcfg/pkg/scaffold"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var newCmd = &cobra.Command{
	Use:   "new <artifact>",
	Short: "Create a default config next to a model artifact",
	Long: `new writes the default configuration of a kind for an artifact. Without
--name it picks the first free name derived from the artifact, e.g.
model.cfg, model(1).cfg, ...`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().String("kind", string(cfgkind.NameStandard), "Config kind (standard, edgecompile)")
	newCmd.Flags().String("name", "", "File name of the new config")
	newCmd.Flags().String("input", "", "Set input_path to this file instead of the artifact")
}

func runNew(cmd *cobra.Command, args []string) error {
	kindName, _ := cmd.Flags().GetString("kind")
	name, _ := cmd.Flags().GetString("name")
	input, _ := cmd.Flags().GetString("input")

	kind, ok := cfgkind.Default().Lookup(cfgkind.Name(kindName))
	if !ok {
		return fmt.Errorf("%w: %s", cfgkind.ErrInvalidKind, kindName)
	}

	artifact, err := absPath(args[0])
	if err != nil {
		return err
	}

	w := scaffold.NewWriter(logger)

	path, err := w.CreateDefault(cmd.Context(), kind, artifact, name)
	if err != nil {
		return err
	}

	if input != "" {
		obj, err := loadConfig(path)
		if err != nil {
			return err
		}

		if err := obj.SetInputPath(input); err != nil {
			return err
		}

		if err := w.Save(cmd.Context(), obj); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)

	return nil
}
