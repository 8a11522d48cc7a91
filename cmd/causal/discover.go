package main

import (
	"fmt"
	"io"
	"strings"

	"causaldiscovery/application/services"

	"github.com/spf13/cobra"
)

var (
	discoverSources     []string
	discoverTargets     []string
	discoverFocus       []string
	discoverDepth       int
	discoverMinEvidence int
	discoverGenetics    map[string]string
	discoverNoCache     bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover a causal graph between source and target entities",
	Example: `  causal discover --source PM2.5 --target CRP
  causal discover --source PM2.5 --focus 8-OHdG --genetic GSTM1=null --format json`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringSliceVarP(&discoverSources, "source", "s", nil, "Source entity names")
	discoverCmd.Flags().StringSliceVarP(&discoverTargets, "target", "t", nil, "Target entity names")
	discoverCmd.Flags().StringSliceVar(&discoverFocus, "focus", nil, "Focus biomarkers, added to the targets")
	discoverCmd.Flags().IntVar(&discoverDepth, "depth", 0, "Maximum path depth (0 uses the configured default)")
	discoverCmd.Flags().IntVar(&discoverMinEvidence, "min-evidence", 0, "Discard paths with an edge below this evidence count")
	discoverCmd.Flags().StringToStringVar(&discoverGenetics, "genetic", nil, "Genetic variants as GENE=VARIANT")
	discoverCmd.Flags().BoolVar(&discoverNoCache, "no-cache", false, "Skip the runtime cache and fixtures")
	_ = discoverCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	container, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Shutdown(ctx)

	res, err := container.Discovery.Discover(ctx, services.DiscoveryRequest{
		Sources:          discoverSources,
		Targets:          discoverTargets,
		FocusBiomarkers:  discoverFocus,
		MaxDepth:         discoverDepth,
		Genetics:         discoverGenetics,
		MinEvidenceCount: discoverMinEvidence,
		DisableCache:     discoverNoCache,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return writeJSON(out, map[string]interface{}{
			"request_id":    res.RequestID,
			"no_path_found": res.NoPathFound,
			"causal_graph":  res.Graph,
			"metadata":      res.Metadata,
			"explanations":  res.Explanations,
			"top_paths":     res.TopPaths,
		})
	}
	printDiscovery(out, res)
	return nil
}

func printDiscovery(w io.Writer, res *services.DiscoveryResult) {
	if res.NoPathFound {
		fmt.Fprintf(w, "No causal path found (request %s)\n", res.RequestID)
		return
	}

	fmt.Fprintf(w, "Causal graph (request %s)\n", res.RequestID)
	fmt.Fprintln(w, "Nodes:")
	for _, n := range res.Graph.Nodes() {
		fmt.Fprintf(w, "  %-20s %-13s %s:%s\n", n.ID, n.Type, n.Grounding.Database, n.Grounding.Identifier)
	}
	fmt.Fprintln(w, "Edges:")
	for _, e := range res.Graph.Edges() {
		fmt.Fprintf(w, "  %s -%s-> %s  papers=%d effect=%.3f lag=%dh\n",
			e.Source, e.Relationship, e.Target, e.Evidence.Count, e.EffectSize, e.TemporalLagHours)
	}
	if mods := res.Graph.GeneticModifiers(); len(mods) > 0 {
		fmt.Fprintln(w, "Genetic modifiers:")
		for _, m := range mods {
			fmt.Fprintf(w, "  %s %s x%.2f on %s\n", m.Variant, m.EffectType, m.Magnitude, strings.Join(m.AffectedNodes, ", "))
		}
	}
	fmt.Fprintln(w, "Explanations:")
	for _, e := range res.Explanations {
		fmt.Fprintf(w, "  - %s\n", e)
	}
	fmt.Fprintf(w, "\n(%d paths explored, %d papers, %dms)\n",
		res.Metadata.PathsExplored, res.Metadata.TotalEvidencePapers, res.Metadata.QueryTimeMs)
}
