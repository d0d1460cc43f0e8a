// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/notescan/internal/spancache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear cached annotation spans",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print the cached spans for a note file as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := spancache.NewStore(loadConfig(cmd).Store)
		if err != nil {
			return err
		}
		defer cache.Close()

		row, ok, err := cache.GetCached(cmd.Context(), docID(args[0]))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("No cached spans.")
			return nil
		}

		data, err := yaml.Marshal(row)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [file]",
	Short: "Remove the cached spans for a note file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := spancache.NewStore(loadConfig(cmd).Store)
		if err != nil {
			return err
		}
		defer cache.Close()

		if err := cache.Clear(cmd.Context(), docID(args[0])); err != nil {
			return err
		}
		fmt.Printf("Cleared cached spans for %s\n", args[0])
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
