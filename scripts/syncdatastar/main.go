// Package main downloads the pinned Datastar client bundle into the embedded
// static files, so the dashboard works without internet access.
//
// Usage (from web/assets, or through go generate ./web/assets):
//
//	go run ../../scripts/syncdatastar
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sethvargo/go-retry"
)

// Configuration.
const (
	datastarVersion = "1.0.0"
	bundleURL       = "https://cdn.jsdelivr.net/gh/starfederation/datastar@" + datastarVersion + "/bundles/datastar.js"
	outputPath      = "static/js/datastar.js"
)

func main() {
	log.Printf("Fetching Datastar %s from %s", datastarVersion, bundleURL)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backoff := retry.WithMaxRetries(3, retry.NewExponential(time.Second))

	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return download(ctx, bundleURL, outputPath)
	}); err != nil {
		log.Fatalf("Failed to fetch Datastar bundle: %v", err)
	}

	log.Printf("Saved %s", outputPath)
}

func download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return retry.RetryableError(fmt.Errorf("HTTP %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".datastar-*.js")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bar := progressbar.DefaultBytes(resp.ContentLength, "datastar.js")

	if _, err := io.Copy(io.MultiWriter(tmp, bar), resp.Body); err != nil {
		tmp.Close()

		return retry.RetryableError(err)
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dest)
}
