package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"retarget/internal/metadata"
)

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack -o OUT.rmd files...",
		Short: "Pack assembly manifests into one binary image",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPack,
	}
	cmd.Flags().StringP("output", "o", "", "image path (.rmd)")
	cmd.Flags().Bool("verify", false, "read the image back and check it binds")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runPack(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(output), ".rmd") {
		return fmt.Errorf("output %q must have the .rmd extension", output)
	}
	verify, err := cmd.Flags().GetBool("verify")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	bundle := &metadata.Bundle{Schema: metadata.BundleSchema}
	defs, err := metadata.LoadFiles(args)
	if err != nil {
		return err
	}
	for _, d := range defs {
		bundle.Assemblies = append(bundle.Assemblies, *d)
	}
	// Binding catches duplicates before anything is written.
	if _, err := metadata.NewUniverse(defs); err != nil {
		return err
	}
	if err := metadata.WriteImage(output, bundle); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	if verify {
		back, err := metadata.LoadFile(output)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if len(back.Assemblies) != len(bundle.Assemblies) {
			return errors.New("verify: assembly count changed in the image")
		}
	}
	if !quiet {
		info, err := os.Stat(output)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "packed %d assemblies into %s (%d bytes)\n", len(bundle.Assemblies), output, info.Size())
	}
	return nil
}
