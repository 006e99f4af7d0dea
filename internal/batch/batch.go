// Package batch converts many HMP files concurrently on a worker pool.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/hmp-terrain/internal/assets"
	"github.com/Faultbox/hmp-terrain/internal/export"
	"github.com/Faultbox/hmp-terrain/pkg/formats"
)

// Config holds the shared settings for a batch run.
type Config struct {
	Workers   int
	OutputDir string // empty writes next to each input

	// Format is "glb" or "gltf".
	Format string
	// TextureFormat is used when ExtractTextures is set.
	TextureFormat   string
	ExtractTextures bool

	GLTF   export.GLTFOptions
	Decode []formats.Option

	Log *zap.Logger
	// Progress, when set, is called after each file with the number done so far.
	Progress func(done, total int)
}

// Result holds the outcome of converting one file.
type Result struct {
	ID       uuid.UUID     `json:"id"`
	Input    string        `json:"input"`
	Output   string        `json:"output,omitempty"`
	Textures []string      `json:"textures,omitempty"`
	Variant  string        `json:"variant,omitempty"`
	Vertices int           `json:"vertices"`
	Faces    int           `json:"faces"`
	Duration time.Duration `json:"duration_ns"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

// Success reports whether the file converted without error.
func (r Result) Success() bool {
	return r.Err == nil
}

// FindFiles lists files under dir whose base name matches pattern,
// case-insensitively, in sorted order.
func FindFiles(dir, pattern string) ([]string, error) {
	pattern = strings.ToLower(pattern)
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, strings.ToLower(d.Name())); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Run converts files and returns one result per input, in input order.
// Files not yet started when ctx is cancelled report ctx.Err().
func Run(ctx context.Context, cfg Config, files []string) []Result {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(files))
	if len(files) == 0 {
		return results
	}

	if cfg.GLTF.Textures == nil {
		cfg.GLTF.Textures = sharedTextures(files, cfg.GLTF.TextureDir)
	}

	pool := worker.NewDynamicWorkerPool(workers, len(files), time.Second)
	defer pool.Stop()

	var (
		wg        sync.WaitGroup
		processed atomic.Int64
	)
	for i, path := range files {
		wg.Add(1)
		idx, input := i, path
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()

				res := convert(ctx, cfg, log, input)
				results[idx] = res

				n := int(processed.Add(1))
				if cfg.Progress != nil {
					cfg.Progress(n, len(files))
				}
				return res, res.Err
			},
		})
	}
	wg.Wait()

	if m, ok := cfg.GLTF.Textures.(*assets.Manager); ok {
		hits, misses := m.Stats()
		log.Debug("external texture cache", zap.Int("hits", hits), zap.Int("misses", misses))
	}
	return results
}

// sharedTextures builds one texture store for the whole run. It searches
// every input directory, with textureDir taking priority.
func sharedTextures(files []string, textureDir string) *assets.Manager {
	m := assets.NewManager()
	seen := make(map[string]bool)
	for _, f := range files {
		dir := filepath.Dir(f)
		if !seen[dir] {
			seen[dir] = true
			m.AddDir(dir)
		}
	}
	m.AddDir(textureDir)
	return m
}

func convert(ctx context.Context, cfg Config, log *zap.Logger, input string) Result {
	res := Result{ID: uuid.Must(uuid.NewV7()), Input: input}
	start := time.Now()

	fail := func(err error) Result {
		res.Err = err
		res.Error = err.Error()
		res.Duration = time.Since(start)
		log.Warn("conversion failed",
			zap.Stringer("id", res.ID), zap.String("input", input), zap.Error(err))
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fail(err)
	}
	if _, v, err := formats.ParseHMPHeader(data); err == nil {
		res.Variant = v.String()
	}

	sc, err := formats.ParseHMP(data, cfg.Decode...)
	if err != nil {
		return fail(err)
	}
	for _, m := range sc.Meshes {
		res.Vertices += len(m.Vertices)
		res.Faces += len(m.Faces)
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	ext := ".glb"
	if strings.EqualFold(cfg.Format, "gltf") {
		ext = ".gltf"
	}
	res.Output = filepath.Join(outDir, base+ext)

	gltfOpts := cfg.GLTF
	gltfOpts.Log = log
	if err := export.SaveGLTF(res.Output, sc, gltfOpts); err != nil {
		return fail(err)
	}

	if cfg.ExtractTextures {
		format := cfg.TextureFormat
		if format == "" {
			format = export.TexturePNG
		}
		for i, tex := range sc.Textures {
			path := filepath.Join(outDir, fmt.Sprintf("%s_skin%d", base, i))
			if !tex.Compressed() {
				path += "." + format
			}
			written, err := export.SaveTexture(path, tex)
			if err != nil {
				return fail(err)
			}
			res.Textures = append(res.Textures, written)
		}
	}

	res.Duration = time.Since(start)
	log.Debug("converted",
		zap.Stringer("id", res.ID),
		zap.String("input", input),
		zap.String("output", res.Output),
		zap.Int("faces", res.Faces),
		zap.Duration("took", res.Duration))
	return res
}
