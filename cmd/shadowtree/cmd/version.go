package cmd

import "fmt"

func init() {
	RegisterCommand(&Command{
		Name:  "version",
		Short: "Show version information",
		Long:  "Print the shadowtree version and build time.",
		Usage: "shadowtree version",
		Run:   runVersion,
	})
}

func runVersion(args []string) error {
	fmt.Fprintf(stdout, "shadowtree version %s (built %s)\n", Version, BuildTime)
	return nil
}
