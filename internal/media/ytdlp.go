package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/m3rciful/vidgate/core/logger"
)

// ErrNoArtifact is returned when a download finished without leaving a file.
var ErrNoArtifact = errors.New("media: download produced no file")

const outputTemplate = "%(title).80s.%(ext)s"

// YTDLPOptions configures the extractor process.
type YTDLPOptions struct {
	// Binary overrides the yt-dlp executable; empty means PATH lookup.
	Binary      string
	MergeFormat string
}

// YTDLP probes and fetches media by running yt-dlp.
type YTDLP struct {
	opts YTDLPOptions
}

func NewYTDLP(opts YTDLPOptions) *YTDLP {
	if opts.MergeFormat == "" {
		opts.MergeFormat = "mp4"
	}
	return &YTDLP{opts: opts}
}

func (y *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New().NoPlaylist().NoProgress()
	if y.opts.Binary != "" {
		cmd = cmd.SetExecutable(y.opts.Binary)
	}
	return cmd
}

// Probe lists the formats available for url without downloading anything.
func (y *YTDLP) Probe(ctx context.Context, url string) (Info, error) {
	start := time.Now()
	res, err := y.command().
		DumpSingleJSON().
		SkipDownload().
		Run(ctx, url)
	if err != nil {
		logger.Warn(ctx, logger.CompMedia, "media.probe",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.Duration("duration", logger.Took(start)),
		)
		return Info{}, fmt.Errorf("media: probe: %w", err)
	}

	info, err := ParseInfo([]byte(res.Stdout))
	if err != nil {
		return Info{}, err
	}
	logger.Debug(ctx, logger.CompMedia, "media.probe",
		slog.String("status", "ok"),
		slog.Int("formats", len(info.Formats)),
		slog.Duration("duration", logger.Took(start)),
	)
	return info, nil
}

// Fetch downloads the selection into dir and returns the path of the file.
// dir is expected to be empty and owned by the caller.
func (y *YTDLP) Fetch(ctx context.Context, url, selector, dir string) (string, error) {
	start := time.Now()
	res, err := y.command().
		ForceOverwrites().
		RestrictFilenames().
		Format(selector).
		MergeOutputFormat(y.opts.MergeFormat).
		Output(filepath.Join(dir, outputTemplate)).
		Run(ctx, url)
	if err != nil {
		return "", fmt.Errorf("media: fetch: %w", err)
	}

	path, err := artifactPath(res, dir)
	if err != nil {
		return "", err
	}
	logger.Debug(ctx, logger.CompMedia, "media.fetch",
		slog.String("status", "ok"),
		slog.String("file", filepath.Base(path)),
		slog.Duration("duration", logger.Took(start)),
	)
	return path, nil
}

func artifactPath(res *ytdlp.Result, dir string) (string, error) {
	if res != nil {
		if info, err := res.GetExtractedInfo(); err == nil && len(info) > 0 && info[0].Filename != nil {
			if p := *info[0].Filename; p != "" && fileExists(p) {
				return p, nil
			}
		}
	}
	return FindArtifact(dir)
}

// FindArtifact returns the single finished file in dir, ignoring partial
// downloads and fragments.
func FindArtifact(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("media: read workspace: %w", err)
	}
	var best string
	var bestSize int64 = -1
	for _, e := range entries {
		if e.IsDir() || isPartial(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		if fi.Size() > bestSize {
			best, bestSize = filepath.Join(dir, e.Name()), fi.Size()
		}
	}
	if best == "" {
		return "", ErrNoArtifact
	}
	return best, nil
}

func isPartial(name string) bool {
	return strings.HasSuffix(name, ".part") ||
		strings.HasSuffix(name, ".ytdl") ||
		strings.Contains(name, ".part-Frag")
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
