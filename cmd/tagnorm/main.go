// Command tagnorm prints the canonical metadata record for one or more
// audio files, as text or JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/veldran/tagnorm"
)

func main() {
	var (
		jsonOut     = flag.Bool("json", false, "emit one JSON object per file")
		noArtwork   = flag.Bool("no-artwork", false, "skip embedded cover art")
		strict      = flag.Bool("strict", false, "treat dialect parse failures as errors")
		concurrency = flag.Int("c", 0, "max concurrent extractions (0 = NumCPU)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tagnorm [flags] file...\n\nsupported extensions: %v\n\n", tagnorm.Formats())
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println("tagnorm", tagnorm.Version)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var opts []tagnorm.Option
	if *noArtwork {
		opts = append(opts, tagnorm.WithoutArtwork())
	}
	if *strict {
		opts = append(opts, tagnorm.WithStrict())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := tagnorm.ExtractMany(ctx, flag.Args(), *concurrency, opts...)
	if err != nil {
		logger.Error("extraction aborted", "error", err)
		os.Exit(1)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			logger.Error("extraction failed", "path", res.Path, "error", res.Err)
			failed++
			continue
		}
		for _, w := range res.Record.Warnings {
			logger.Warn("partial extraction", "path", res.Path, "stage", w.Stage, "detail", w.Message)
		}
		if *jsonOut {
			printJSON(res.Path, res.Record)
		} else {
			printText(res.Path, res.Record)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func printText(path string, rec *tagnorm.Record) {
	fmt.Printf("%s\n", path)
	printField("title", rec.Title)
	printField("artist", rec.Artist)
	printField("album", rec.Album)
	printField("album artist", rec.AlbumArtist)
	printField("genre", rec.Genre)
	printField("year", rec.Year)
	printField("codec", rec.Codec)
	if rec.TrackNumber > 0 || rec.TrackTotal > 0 {
		fmt.Printf("  %-14s %d/%d\n", "track", rec.TrackNumber, rec.TrackTotal)
	}
	if rec.DiscNumber > 0 || rec.DiscTotal > 0 {
		fmt.Printf("  %-14s %d/%d\n", "disc", rec.DiscNumber, rec.DiscTotal)
	}
	if rec.Duration > 0 {
		fmt.Printf("  %-14s %.1fs, %d kbps, %d Hz, %d ch\n",
			"audio", rec.Duration, rec.Bitrate, rec.SampleRate, rec.Channels)
	}
	if rec.Artwork != nil {
		fmt.Printf("  %-14s %d bytes (%s)\n", "artwork", len(rec.Artwork), rec.ArtworkMIME)
	}
	fmt.Println()
}

func printField(name, value string) {
	if value != "" {
		fmt.Printf("  %-14s %s\n", name, value)
	}
}

// jsonRecord trims the record for display: artwork bytes are summarized
// rather than inlined.
type jsonRecord struct {
	Path string `json:"path"`
	*tagnorm.Record
	Artwork     *jsonArtwork `json:"artwork,omitempty"`
	ArtworkMIME string       `json:"-"`
}

type jsonArtwork struct {
	Bytes int    `json:"bytes"`
	MIME  string `json:"mime"`
}

func printJSON(path string, rec *tagnorm.Record) {
	out := jsonRecord{Path: path, Record: rec}
	if rec.Artwork != nil {
		out.Artwork = &jsonArtwork{Bytes: len(rec.Artwork), MIME: rec.ArtworkMIME}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
	}
}
