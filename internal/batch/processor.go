// Package batch renders many model files to WebP snapshots on a worker
// pool.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vim-scene-renderer/internal/camera"
	"vim-scene-renderer/internal/config"
	"vim-scene-renderer/internal/postprocess"
	"vim-scene-renderer/internal/raster"
	"vim-scene-renderer/internal/vim"

	"github.com/HugoSmits86/nativewebp"
)

// Result holds the outcome of processing one file.
type Result struct {
	File    string
	Image   string
	Success bool
	Error   string
}

// Run processes all model files using a worker pool. The context cancels
// in-flight loads; files not yet started report a canceled result.
func Run(ctx context.Context, cfg config.Config, files []string) []Result {
	total := len(files)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f models/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	fileChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{File: files[idx], Error: err.Error()}
					continue
				}
				results[idx] = processFile(ctx, cfg, files[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range files {
		fileChan <- i
	}
	close(fileChan)

	wg.Wait()
	close(done)

	return results
}

func processFile(ctx context.Context, cfg config.Config, path string) Result {
	doc, err := vim.Load(ctx, path, vim.Options{
		MmapThreshold: cfg.MmapThreshold(),
		Workers:       1, // file-level parallelism already saturates the pool
	})
	if err != nil {
		return Result{File: path, Error: err.Error()}
	}
	defer doc.Close()

	cam := camera.Frame(doc.Model.Bounds, camera.Orbit{
		Azimuth:   float32(cfg.CameraAzimuth),
		Elevation: float32(cfg.CameraElevation),
	})
	img := raster.RenderScene(doc.Model, doc.Tree, cam, raster.Options{
		Size:        cfg.RenderSize,
		Supersample: cfg.Supersample,
	})
	if cfg.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.RenderSize)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".webp"
	outPath := filepath.Join(cfg.OutputDir, name)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return Result{File: path, Error: err.Error()}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return Result{File: path, Error: err.Error()}
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return Result{File: path, Error: fmt.Sprintf("WebP encode: %v", err)}
	}

	return Result{File: path, Image: name, Success: true}
}
