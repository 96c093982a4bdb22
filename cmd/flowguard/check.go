package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridianiam/flowguard/internal/loopcheck"
	"github.com/meridianiam/flowguard/internal/store"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <model-set.json>",
		Short: "Run the loop checker over a model set file and print the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args[0])
		},
	}
}

func runCheck(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	set, err := store.DecodeModelSet(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if loopcheck.Check(set.Models) {
		fmt.Println("PASS: no unbounded state cycle detected")
		return nil
	}

	fmt.Println("FAIL: an unbounded state cycle was detected across the composed transitions")
	os.Exit(1)
	return nil
}
