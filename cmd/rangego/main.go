// Command rangego runs an all-points range neighbor search over a point
// cloud and prints one result row per point.
//
// The point cloud may live on the local filesystem or on S3 (s3://bucket/key).
// Result rows go to stdout, diagnostics to stderr.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/hupe1980/rangego"
	"github.com/hupe1980/rangego/blobstore"
	s3store "github.com/hupe1980/rangego/blobstore/s3"
)

const usage = `Usage  : rangego [options]
Options: --file | -f <filename>      File for point cloud input
         --radius | -r               Search radius
         --knn | -k                  Max K returned
         --help | -h                 Print this usage message
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rangego: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		file   string
		radius float32
		knn    int
	)

	cmd := &cobra.Command{
		Use:           "rangego",
		Short:         "All-points range neighbor search over a point cloud",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				printUsage()
				os.Exit(0)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return &rangego.ConfigError{Option: "file", Reason: "point cloud source is required"}
			}
			return run(cmd.Context(), file, radius, knn)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "File for point cloud input")
	cmd.Flags().Float32VarP(&radius, "radius", "r", 2.0, "Search radius")
	cmd.Flags().IntVarP(&knn, "knn", "k", 50, "Max K returned")

	// Usage errors exit 0, a contract inherited from the original tool.
	cmd.SetFlagErrorFunc(func(*cobra.Command, error) error {
		printUsage()
		os.Exit(0)
		return nil
	})
	cmd.SetHelpFunc(func(*cobra.Command, []string) {
		printUsage()
	})
	cmd.SetUsageFunc(func(*cobra.Command) error {
		printUsage()
		return nil
	})

	return cmd
}

func printUsage() {
	fmt.Fprint(os.Stderr, usage)
}

func run(ctx context.Context, file string, radius float32, knn int) error {
	store, name, err := resolveStore(ctx, file)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	ds, err := rangego.LoadDataset(ctx, store, name)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	fmt.Fprintf(os.Stderr, "dim: %d\n", ds.PaddedDim())
	fmt.Fprintf(os.Stderr, "batch: %d\n", ds.NumBatches())
	fmt.Fprintf(os.Stderr, "numPrims: %d\n", ds.N())
	fmt.Fprintf(os.Stderr, "radius: %g\n", radius)
	fmt.Fprintf(os.Stderr, "K: %d\n", knn)

	eng, err := rangego.New(ds, func(o *rangego.Options) {
		o.Radius = radius
		o.K = knn
	})
	if err != nil {
		return fmt.Errorf("index build: %w", err)
	}
	defer eng.Close()

	rs, err := eng.Run(ctx)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if err := rs.WriteRows(os.Stdout); err != nil {
		return fmt.Errorf("query: %w", err)
	}

	stats, err := eng.Verify(rs)
	if err != nil {
		return fmt.Errorf("verification: %w", err)
	}

	return stats.Report(os.Stderr)
}

// resolveStore maps an s3://bucket/key path onto the S3 store and
// anything else onto the local filesystem store.
func resolveStore(ctx context.Context, file string) (blobstore.BlobStore, string, error) {
	if rest, ok := strings.CutPrefix(file, "s3://"); ok {
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return nil, "", &rangego.ConfigError{Option: "file", Reason: "s3 path must be s3://bucket/key"}
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, "", err
		}
		return s3store.NewStore(awss3.NewFromConfig(cfg), bucket), key, nil
	}

	return blobstore.NewLocalStore(filepath.Dir(file)), filepath.Base(file), nil
}
