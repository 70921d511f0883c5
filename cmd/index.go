package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/modelcfg/pkg/cfgobj"
	"github.com/ethpandaops/modelcfg/pkg/index"
	"github.com/ethpandaops/modelcfg/pkg/lineage"
	"github.com/ethpandaops/modelcfg/pkg/workspace"
)

// indexCmd represents the index command group
//
//nolint:gochecknoglobals // Cobra commands are typically global
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the artifact/config association index",
	Long:  `Commands for listing configs, looking up the configs of an artifact, and visualizing lineage.`,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every indexed config",
	Long:  `List every config in the workspace with its kind, declared artifact and link status.`,
	Args:  cobra.NoArgs,
	RunE:  runIndexList,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var indexArtifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "List every base model in the workspace",
	Long:  `List every base model found on disk with the configs that use it, including models no config references yet.`,
	Args:  cobra.NoArgs,
	RunE:  runIndexArtifacts,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var indexCfgsCmd = &cobra.Command{
	Use:   "cfgs <artifact>",
	Short: "List the configs that use an artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexCfgs,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var indexShowCmd = &cobra.Command{
	Use:   "show <config>",
	Short: "Show a config's sections, base models and products",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexShow,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var indexLineageCmd = &cobra.Command{
	Use:   "lineage",
	Short: "Visualize artifact → config → product lineage",
	Args:  cobra.NoArgs,
	RunE:  runIndexLineage,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexArtifactsCmd)
	indexCmd.AddCommand(indexCfgsCmd)
	indexCmd.AddCommand(indexShowCmd)
	indexCmd.AddCommand(indexLineageCmd)

	indexLineageCmd.Flags().Bool("dot", false, "Output in DOT format for graphviz")
}

// withWorkspace opens the workspace, runs fn on it and closes it.
func withWorkspace(cmd *cobra.Command, fn func(m *workspace.Manager) error) error {
	cfg, err := loadValidatedConfig()
	if err != nil {
		return err
	}

	m, err := openWorkspace(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.WithError(closeErr).Error("Failed to close workspace")
		}
	}()

	return fn(m)
}

// withIndex runs fn on the index of the opened workspace.
func withIndex(cmd *cobra.Command, fn func(root string, x index.Reader) error) error {
	return withWorkspace(cmd, func(m *workspace.Manager) error {
		return fn(m.Root(), m.Index())
	})
}

// absPath resolves a command argument against the current directory.
func absPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", p, err)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	return abs, nil
}

func relTo(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}

	return p
}

func configStatus(obj *cfgobj.ConfigObject) string {
	switch {
	case obj.ParseError() != nil:
		return "malformed"
	case len(obj.BaseModelsExists()) == 0:
		return "orphan"
	default:
		return "linked"
	}
}

func runIndexList(cmd *cobra.Command, _ []string) error {
	return withIndex(cmd, func(root string, x index.Reader) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CONFIG\tKIND\tARTIFACT\tSTATUS")

		for _, p := range x.ConfigPaths() {
			obj := x.GetCfgObj(p)
			if obj == nil {
				continue
			}

			artifact, ok := obj.DeclaredArtifactPath()
			if !ok {
				artifact = "-"
			} else {
				artifact = relTo(root, artifact)
			}

			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", relTo(root, p), obj.Kind().Name, artifact, configStatus(obj))
		}

		_ = w.Flush()

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d configs, %d linked artifacts\n", x.Size(), len(x.Artifacts()))

		return nil
	})
}

func runIndexArtifacts(cmd *cobra.Command, _ []string) error {
	return withWorkspace(cmd, func(m *workspace.Manager) error {
		root := m.Root()
		models := m.BaseModels()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ARTIFACT\tCONFIGS")

		for _, bm := range models {
			configs := "-"
			if len(bm.Configs) > 0 {
				rel := make([]string, 0, len(bm.Configs))
				for _, p := range bm.Configs {
					rel = append(rel, relTo(root, p))
				}
				configs = strings.Join(rel, ", ")
			}

			_, _ = fmt.Fprintf(w, "%s\t%s\n", relTo(root, bm.Path), configs)
		}

		_ = w.Flush()

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d base models\n", len(models))

		return nil
	})
}

func runIndexCfgs(cmd *cobra.Command, args []string) error {
	artifact, err := absPath(args[0])
	if err != nil {
		return err
	}

	return withIndex(cmd, func(root string, x index.Reader) error {
		for _, p := range x.GetCfgs(artifact) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), relTo(root, p))
		}

		return nil
	})
}

func runIndexShow(cmd *cobra.Command, args []string) error {
	path, err := absPath(args[0])
	if err != nil {
		return err
	}

	return withIndex(cmd, func(root string, x index.Reader) error {
		obj := x.GetCfgObj(path)
		if obj == nil {
			return fmt.Errorf("%s is not an indexed config", args[0])
		}

		printConfig(cmd.OutOrStdout(), root, obj)

		return nil
	})
}

func printConfig(out io.Writer, root string, obj *cfgobj.ConfigObject) {
	_, _ = fmt.Fprintf(out, "Config: %s (%s)\n", relTo(root, obj.Path()), obj.Kind().Name)

	if perr := obj.ParseError(); perr != nil {
		_, _ = fmt.Fprintf(out, "Parse error: %v\n", perr)
	}

	printList(out, "Declared artifacts", root, obj.DeclaredArtifacts())
	printList(out, "Base models", root, obj.BaseModelsExists())
	printList(out, "Products", root, obj.Products())

	_, _ = fmt.Fprintln(out, "\nSections:")
	for _, sec := range obj.Sections() {
		_, _ = fmt.Fprintf(out, "  [%s]\n", sec.Name)
		for _, e := range sec.Entries {
			_, _ = fmt.Fprintf(out, "    %s = %s\n", e.Key, e.Value)
		}
	}
}

func printList(out io.Writer, title, root string, paths []string) {
	if len(paths) == 0 {
		_, _ = fmt.Fprintf(out, "%s: -\n", title)
		return
	}

	_, _ = fmt.Fprintf(out, "%s:\n", title)
	for _, p := range paths {
		_, _ = fmt.Fprintf(out, "  • %s\n", relTo(root, p))
	}
}

func runIndexLineage(cmd *cobra.Command, _ []string) error {
	return withIndex(cmd, func(root string, x index.Reader) error {
		g := lineage.NewGraph()
		if err := g.Build(x); err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		// Generate DOT format if requested
		if dotFlag, _ := cmd.Flags().GetBool("dot"); dotFlag {
			_, _ = fmt.Fprintln(out, g.DOT())
			return nil
		}

		info := g.Info()

		_, _ = fmt.Fprintln(out, "Lineage:")
		_, _ = fmt.Fprintln(out, "========")
		printLineageLevels(out, root, g, info)

		_, _ = fmt.Fprintln(out, "\nStatistics:")
		_, _ = fmt.Fprintln(out, "===========")
		_, _ = fmt.Fprintf(out, "Roots: %d\n", len(info.RootNodes))
		_, _ = fmt.Fprintf(out, "Total nodes: %d\n", info.TotalNodes)
		_, _ = fmt.Fprintf(out, "Max depth: %d\n", info.MaxLevel)

		return nil
	})
}

func printLineageLevels(out io.Writer, root string, g *lineage.Graph, info *lineage.Info) {
	for level := 0; level <= info.MaxLevel; level++ {
		ids, exists := info.Levels[level]
		if !exists {
			continue
		}

		_, _ = fmt.Fprintf(out, "\nLevel %d:\n", level)
		for _, id := range ids {
			_, _ = fmt.Fprintf(out, "  • %s (%s)", relTo(root, id), info.Types[id])

			if children, err := g.Children(id); err == nil && len(children) > 0 {
				rel := make([]string, 0, len(children))
				for _, c := range children {
					rel = append(rel, relTo(root, c))
				}
				_, _ = fmt.Fprintf(out, "\n    → %s", strings.Join(rel, ", "))
			}
			_, _ = fmt.Fprintln(out)
		}
	}
}
