// Clawdump prints the contents of a simulation frame file: the patch
// groups, their metadata attributes, and the shapes (optionally the
// values) of their datasets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clawgo/clawio/internal/hdf5"
)

var showData bool

func main() {
	cmd := &cobra.Command{
		Use:   "clawdump <frame-file>",
		Short: "Inspect a simulation frame file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dump(cmd, args[0])
		},
		SilenceUsage: true,
	}
	cmd.Flags().BoolVar(&showData, "data", false, "print dataset values")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func dump(cmd *cobra.Command, path string) error {
	f, err := hdf5.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", path)

	for _, name := range f.Root().Members() {
		grp, err := f.Root().OpenGroup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s/\n", name)
		for _, a := range grp.Attrs() {
			fmt.Fprintf(out, "    @%s = %v\n", a.Name, a.Value)
		}
		for _, member := range grp.Members() {
			ds, err := grp.OpenDataset(member)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "    %s %v\n", member, ds.Dims())
			if showData {
				values, err := ds.ReadFloat64()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "      %v\n", values)
			}
		}
	}
	return nil
}
