package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"seqlink/internal/config"
	"seqlink/internal/indexstore"
	"seqlink/internal/preflight"
	"seqlink/internal/sequence"
)

type bucketJSON struct {
	Dir        string `json:"dir"`
	Identifier string `json:"identifier"`
	Files      int    `json:"files"`
	FirstFrame *int   `json:"first_frame,omitempty"`
	LastFrame  *int   `json:"last_frame,omitempty"`
}

type indexJSON struct {
	Root    string       `json:"root"`
	Store   string       `json:"store"`
	Buckets []bucketJSON `json:"buckets"`
}

func newIndexCommand(ctx *commandContext) *cobra.Command {
	var force, reset, forget, asJSON bool

	cmd := &cobra.Command{
		Use:   "index [root]",
		Short: "Walk a search root and save its sequences to the index store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var rootArg string
			if len(args) == 1 {
				rootArg = args[0]
			}
			root, err := resolveRoot(rootArg, cfg)
			if err != nil {
				return err
			}
			if forget {
				return forgetRoot(cmd, cfg, root)
			}
			if result := preflight.CheckDirectoryAccess("Search root", root); !result.Passed {
				return fmt.Errorf("preflight: search root %s", result.Detail)
			}

			if reset {
				if err := indexstore.Remove(cfg.Index.StorePath); err != nil {
					return fmt.Errorf("reset index store: %w", err)
				}
			}

			sess, err := ctx.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := sess.close(cmd.Context()); closeErr != nil {
					err = errors.Join(err, fmt.Errorf("save index store: %w", closeErr))
				}
			}()

			if err := sess.cache.Index(root, force); err != nil {
				return err
			}
			buckets := sess.cache.Buckets(root)

			if asJSON {
				return writeJSON(cmd, indexJSON{Root: root, Store: sess.store.Path(), Buckets: bucketsJSON(buckets)})
			}
			printBuckets(cmd, root, buckets)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Walk the root again even if it is already indexed")
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete the index store before indexing")
	cmd.Flags().BoolVar(&forget, "forget", false, "Remove the root from the index store instead of indexing it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.MarkFlagsMutuallyExclusive("forget", "force")
	cmd.MarkFlagsMutuallyExclusive("forget", "reset")
	return cmd
}

// forgetRoot drops root from the store without loading or walking anything,
// so a root that no longer exists can still be removed.
func forgetRoot(cmd *cobra.Command, cfg *config.Config, root string) (err error) {
	root, err = filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve search root: %w", err)
	}
	store, err := indexstore.Open(cfg)
	if err != nil {
		return fmt.Errorf("open index store: %w", err)
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()
	if err := store.Forget(cmd.Context(), root); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", root)
	return nil
}

func bucketsJSON(buckets []*sequence.Bucket) []bucketJSON {
	out := make([]bucketJSON, 0, len(buckets))
	for _, b := range buckets {
		item := bucketJSON{Dir: b.Dir, Identifier: b.Identifier, Files: len(b.Files)}
		if first, ok := b.FirstFrame(); ok {
			item.FirstFrame = &first
		}
		if last, ok := b.LastFrame(); ok {
			item.LastFrame = &last
		}
		out = append(out, item)
	}
	return out
}

func printBuckets(cmd *cobra.Command, root string, buckets []*sequence.Bucket) {
	out := cmd.OutOrStdout()
	if len(buckets) == 0 {
		fmt.Fprintf(out, "No files found under %s\n", root)
		return
	}
	rows := make([][]string, 0, len(buckets))
	dirs := make(map[string]struct{})
	for _, b := range buckets {
		dirs[b.Dir] = struct{}{}
		frames := "-"
		if first, ok := b.FirstFrame(); ok {
			frames = strconv.Itoa(first)
			if last, ok := b.LastFrame(); ok && last != first {
				frames = fmt.Sprintf("%d-%d", first, last)
			}
		}
		rows = append(rows, []string{b.Dir, b.Identifier, strconv.Itoa(len(b.Files)), frames})
	}
	headers := []string{"Directory", "Sequence", "Files", "Frames"}
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight}))
	fmt.Fprintf(out, "Indexed %s: %d sequence(s) in %d director(ies)\n", root, len(buckets), len(dirs))
}
