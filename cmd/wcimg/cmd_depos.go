package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wcimg/internal/depo"
	"github.com/nvandessel/wcimg/internal/export"
	"github.com/nvandessel/wcimg/internal/tap"
)

func newDeposCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depos <file>",
		Short: "Undrift and reposition energy depositions",
		Long: `Read a depo dump, convert drift time to x with the drift speed (or
shift times by t0 when no speed is set), then optionally translate the
depositions or center them on a point.

Vector components are unit expressions.

Examples:
  wcimg depos -o out.json depos.json
  wcimg depos --center 0,0,0 -o centered.arrow depos.json.gz
  wcimg depos --speed 0 --t0 10*us --move 1*m,0,0 -o shifted.json depos.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")
			moveFlag, _ := cmd.Flags().GetString("move")
			centerFlag, _ := cmd.Flags().GetString("center")

			if moveFlag != "" && centerFlag != "" {
				return fmt.Errorf("--move and --center are mutually exclusive")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			set, err := tap.LoadDepos(args[0])
			if err != nil {
				return err
			}
			set = depo.Undrift(set, a.params.Drift)

			switch {
			case moveFlag != "":
				v, err := parseVector(moveFlag)
				if err != nil {
					return err
				}
				set = depo.Move(set, v[0], v[1], v[2])
			case centerFlag != "":
				v, err := parseVector(centerFlag)
				if err != nil {
					return err
				}
				set = depo.Center(set, v[0], v[1], v[2])
			}
			a.logger.Debug("processed depos", "source", args[0], "count", len(set), "drift", a.params.Drift.String())

			out := cmd.OutOrStdout()
			write := func(w io.Writer) error {
				if strings.ToLower(filepath.Ext(output)) == ".arrow" {
					return export.WriteArrow(w, export.DepoColumns(set))
				}
				return export.WriteDeposJSON(w, set)
			}
			if output == "" {
				return write(out)
			}
			if err := writeOutput(output, write); err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"depos":  len(set),
					"charge": set.TotalCharge(),
					"output": output,
				})
			}
			fmt.Fprintf(out, "Wrote %d depos (charge %g) to %s\n", len(set), set.TotalCharge(), output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file (.json or .arrow, default stdout JSON)")
	cmd.Flags().String("move", "", "Translate by x,y,z")
	cmd.Flags().String("center", "", "Move the mean position to x,y,z")
	addDriftFlags(cmd)
	return cmd
}
