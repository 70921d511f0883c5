package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/modelcfg/pkg/cfgobj"
	"github.com/ethpandaops/modelcfg/pkg/layers"
	"github.com/ethpandaops/modelcfg/pkg/scaffold"
)

// layersCmd represents the layers command group
//
//nolint:gochecknoglobals // Cobra commands are typically global
var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Edit the quantization layers of a config",
	Long: `Commands for listing and editing the per-layer quantization overrides a
config carries. Layers without an explicit entry use the section defaults.`,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var layersListCmd = &cobra.Command{
	Use:   "list <config>",
	Short: "List explicit layers, and with --model every layer of the model",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayersList,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var layersAddCmd = &cobra.Command{
	Use:   "add <config> <layer>...",
	Short: "Add explicit entries using the section defaults",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runLayersAdd,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var layersRemoveCmd = &cobra.Command{
	Use:   "remove <config> <layer>...",
	Short: "Drop explicit entries so the layers fall back to the defaults",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runLayersRemove,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var layersSetCmd = &cobra.Command{
	Use:   "set <config> <layer> <field> <value>",
	Short: "Set one field (dtype, granularity) of an explicit layer",
	Args:  cobra.ExactArgs(4),
	RunE:  runLayersSet,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var layersReplaceCmd = &cobra.Command{
	Use:   "replace <config> [layer]...",
	Short: "Replace every explicit entry with the given layers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLayersReplace,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var layersDefaultCmd = &cobra.Command{
	Use:   "default <config>",
	Short: "Show or change the section defaults",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayersDefault,
}

func init() {
	rootCmd.AddCommand(layersCmd)
	layersCmd.AddCommand(layersListCmd)
	layersCmd.AddCommand(layersAddCmd)
	layersCmd.AddCommand(layersRemoveCmd)
	layersCmd.AddCommand(layersSetCmd)
	layersCmd.AddCommand(layersReplaceCmd)
	layersCmd.AddCommand(layersDefaultCmd)

	layersListCmd.Flags().Bool("model", false, "Enumerate every layer of the quantized model")
	layersReplaceCmd.Flags().String("dtype", "uint8", "Quantization dtype of the new entries")
	layersReplaceCmd.Flags().String("granularity", "channel", "Granularity of the new entries")
	layersDefaultCmd.Flags().String("dtype", "", "New default quantization dtype")
	layersDefaultCmd.Flags().String("granularity", "", "New default granularity")
}

// loadConfig reads a config file from disk.
func loadConfig(arg string) (*cfgobj.ConfigObject, error) {
	path, err := absPath(arg)
	if err != nil {
		return nil, err
	}

	obj, err := cfgobj.Load(path)
	if err != nil {
		return nil, err
	}

	if perr := obj.ParseError(); perr != nil {
		logger.WithError(perr).WithField("path", path).Warn("Config is malformed, editing from empty sections")
	}

	return obj, nil
}

// editConfig applies fn to the config at arg and saves it.
func editConfig(cmd *cobra.Command, arg string, fn func(obj *cfgobj.ConfigObject) error) error {
	obj, err := loadConfig(arg)
	if err != nil {
		return err
	}

	if err := fn(obj); err != nil {
		return err
	}

	return scaffold.NewWriter(logger).Save(cmd.Context(), obj)
}

func runLayersList(cmd *cobra.Command, args []string) error {
	obj, err := loadConfig(args[0])
	if err != nil {
		return err
	}

	entries, err := obj.Layers()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LAYER\tDTYPE\tGRANULARITY")
	for _, l := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", l.Name, l.DType, l.Granularity)
	}

	if withModel, _ := cmd.Flags().GetBool("model"); withModel {
		if err := loadModelLayers(cmd.Context(), obj); err != nil {
			_ = w.Flush()
			return err
		}

		dtype, gran := obj.LayerDefaults()
		for _, n := range obj.GetDefaultModelLayers() {
			_, _ = fmt.Fprintf(w, "%s\t%s (default)\t%s (default)\n", n, dtype, gran)
		}
	}

	return w.Flush()
}

func loadModelLayers(ctx context.Context, obj *cfgobj.ConfigObject) error {
	cfg, err := loadValidatedConfig()
	if err != nil {
		return err
	}

	e, closeFn, err := newEnumerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	return layers.Load(ctx, obj, e)
}

func runLayersAdd(cmd *cobra.Command, args []string) error {
	return editConfig(cmd, args[0], func(obj *cfgobj.ConfigObject) error {
		return obj.AddLayers(args[1:])
	})
}

func runLayersRemove(cmd *cobra.Command, args []string) error {
	return editConfig(cmd, args[0], func(obj *cfgobj.ConfigObject) error {
		return obj.SetLayersToDefault(args[1:])
	})
}

func runLayersSet(cmd *cobra.Command, args []string) error {
	return editConfig(cmd, args[0], func(obj *cfgobj.ConfigObject) error {
		return obj.UpdateSectionOfLayer(args[1], args[2], args[3])
	})
}

func runLayersReplace(cmd *cobra.Command, args []string) error {
	dtype, _ := cmd.Flags().GetString("dtype")
	granularity, _ := cmd.Flags().GetString("granularity")

	return editConfig(cmd, args[0], func(obj *cfgobj.ConfigObject) error {
		return obj.SetLayersSections(args[1:], dtype, granularity)
	})
}

func runLayersDefault(cmd *cobra.Command, args []string) error {
	dtype, _ := cmd.Flags().GetString("dtype")
	granularity, _ := cmd.Flags().GetString("granularity")

	if dtype == "" && granularity == "" {
		obj, err := loadConfig(args[0])
		if err != nil {
			return err
		}

		d, g := obj.LayerDefaults()
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dtype: %s\ngranularity: %s\n", d, g)

		return nil
	}

	return editConfig(cmd, args[0], func(obj *cfgobj.ConfigObject) error {
		if dtype != "" {
			if err := obj.SetSection(cfgobj.DTypeKey, dtype); err != nil {
				return err
			}
		}
		if granularity != "" {
			return obj.SetSection(cfgobj.GranularityKey, granularity)
		}
		return nil
	})
}
