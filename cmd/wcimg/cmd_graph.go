package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wcimg/internal/cluster"
	"github.com/nvandessel/wcimg/internal/visualization"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Render a cluster graph as DOT or JSON",
		Long: `Render one cluster graph of a file as Graphviz DOT or JSON. With --node
only the node and its neighbors are rendered.

Examples:
  wcimg graph clusters.json | neato -Tsvg > graph.svg
  wcimg graph --format json --graph 1 clusters.tar.gz
  wcimg graph --node 17 clusters.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			graph, _ := cmd.Flags().GetInt("graph")
			formatFlag, _ := cmd.Flags().GetString("format")
			node, _ := cmd.Flags().GetInt("node")

			if jsonOut && !cmd.Flags().Changed("format") {
				formatFlag = string(visualization.FormatJSON)
			}
			format, err := visualization.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			events, err := a.runner("graph").Load(args[0])
			if err != nil {
				return err
			}
			if graph < 0 || graph >= len(events) {
				return fmt.Errorf("graph %d out of range (%s has %d)", graph, args[0], len(events))
			}

			g := events[graph].Index.Graph()
			if cmd.Flags().Changed("node") {
				g, err = visualization.Subgraph(g, cluster.NodeID(node))
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			switch format {
			case visualization.FormatJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(visualization.RenderJSON(g))
			default:
				fmt.Fprint(out, visualization.RenderDOT(g))
				return nil
			}
		},
	}
	cmd.Flags().Int("graph", 0, "Index of the cluster graph within the file")
	cmd.Flags().String("format", "dot", "Output format: dot or json")
	cmd.Flags().Int("node", 0, "Render only this node and its neighbors")
	addDriftFlags(cmd)
	return cmd
}
