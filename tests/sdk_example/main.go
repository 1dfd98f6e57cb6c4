package main

import (
	"context"
	"fmt"
	"os"

	"github.com/osvaldoandrade/gitfixture/pkg/fixturesdk"
)

func main() {
	root := os.Getenv("GITFIXTURE_ROOT")
	if root == "" {
		fmt.Fprintln(os.Stderr, "GITFIXTURE_ROOT is required (empty target directory)")
		os.Exit(1)
	}

	cfg := fixturesdk.DefaultConfig(root)
	cfg.LogOutput = os.Stderr

	client, err := fixturesdk.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new client: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	built, err := client.BuildPreset(ctx, "basic-git", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("built %s\n", built.Root())

	for _, key := range built.Keys() {
		if file, ok := built.File(key); ok {
			fmt.Printf("file %s status=%s\n", key, file.Status())
		}
	}

	if err := client.Verify(ctx, built); err != nil {
		if fixturesdk.IsIntegrityError(err) {
			fmt.Fprintf(os.Stderr, "fixture diverged: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Println("verified")
}
