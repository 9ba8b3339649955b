package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.senan.xyz/flagconf"
	"go.senan.xyz/natcmp"
	"go.senan.xyz/table/table"

	usdxdl "github.com/sanderr/usdx-yt-dl"
	"github.com/sanderr/usdx-yt-dl/id3"
	"github.com/sanderr/usdx-yt-dl/notifications"
	"github.com/sanderr/usdx-yt-dl/replaygain"
	"github.com/sanderr/usdx-yt-dl/ytdlp"
)

func init() {
	flag := flag.CommandLine
	flag.Usage = func() {
		fmt.Fprintf(flag.Output(), "Usage:\n")
		fmt.Fprintf(flag.Output(), "  $ %s [<options>] <library-dir>\n", flag.Name())
		fmt.Fprintf(flag.Output(), "\n")
		fmt.Fprintf(flag.Output(), "Options:\n")
		flag.PrintDefaults()
	}
}

var dmp = diffmatchpatch.New()

func main() {
	var logLevel slog.LevelVar
	flag.TextVar(&logLevel, "log-level", &logLevel, "Set the logging level")

	var notifs notifications.Notifications
	flag.Var(&notificationsParser{&notifs}, "notification-uri", "Add a shoutrrr notification URI for an event, eg \"complete,errors ntfy://...\" (stackable)")

	var (
		downloaderCmd = flag.String("downloader", "", "Override the downloader command line (default \""+ytdlp.Command+"\")")
		useID3        = flag.Bool("id3", true, "Embed ID3 tags into downloaded mp3 files")
		useGain       = flag.Bool("replaygain", true, "Apply replaygain tags to downloaded mp3 files when "+replaygain.Command+" is available")
		configPath    = flag.String("config-path", defaultConfigPath(), "Path to config file")
		printVersion  = flag.Bool("version", false, "Print the version and exit")
	)

	flag.Parse()
	flagconf.ReadEnvPrefix = func(_ *flag.FlagSet) string { return usdxdl.Name }
	flagconf.ParseEnv()
	flagconf.ParseConfig(*configPath)

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel})))
	slog.SetLogLoggerLevel(slog.LevelError)

	if *printVersion {
		fmt.Printf("%s %s\n", flag.CommandLine.Name(), usdxdl.Version)
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	libraryDir := flag.Arg(0)

	fetcher := ytdlp.New()
	if *downloaderCmd != "" {
		var err error
		if fetcher, err = ytdlp.NewCommand(*downloaderCmd); err != nil {
			slog.Error("parsing downloader command", "err", err)
			os.Exit(1)
		}
	}
	if err := fetcher.Detect(); err != nil {
		slog.Error("downloader not available", "err", err)
		os.Exit(1)
	}

	cfg := &usdxdl.Config{Fetcher: fetcher}
	if *useID3 {
		cfg.Tagger = id3.Writer{}
	}
	if *useGain {
		if err := replaygain.Detect(); err != nil {
			slog.Warn("continuing without replaygain tagging", "err", err)
		} else {
			cfg.Gain = replaygain.Normalizer{}
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	entries, err := os.ReadDir(libraryDir)
	if err != nil {
		slog.Error("reading library dir", "err", err)
		os.Exit(1)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(libraryDir, entry.Name()))
		}
	}
	slices.SortFunc(dirs, natcmp.Compare)

	type songError struct {
		dir string
		err error
	}
	var processed int
	var skipped []songError
	for _, dir := range dirs {
		slog.InfoContext(ctx, "processing", "dir", dir)
		err := processSong(ctx, cfg, dir)
		if ctx.Err() != nil {
			slog.ErrorContext(ctx, "interrupted")
			os.Exit(1)
		}
		switch {
		case usdxdl.IsSkip(err):
			slog.WarnContext(ctx, "skipping song", "dir", dir, "err", err)
			skipped = append(skipped, songError{dir, err})
			continue
		case err != nil:
			// not a per-song condition, the environment is broken
			slog.ErrorContext(ctx, "processing song", "dir", dir, "err", err)
			os.Exit(1)
		}
		processed++
	}

	fmt.Printf("successfully processed %d songs\n", processed)
	if len(skipped) > 0 {
		fmt.Printf("encountered errors for the following %d songs:\n", len(skipped))
		t := table.NewStringWriter()
		for _, s := range skipped {
			fmt.Fprintf(t, "%s\t%v\n", s.dir, s.err)
		}
		for _, row := range strings.Split(strings.TrimRight(t.String(), "\n"), "\n") {
			fmt.Printf("  %s\n", row)
		}
		notifs.Sendf(ctx, notifications.Errors, "finished, %d processed, %d skipped", processed, len(skipped))
	} else {
		notifs.Sendf(ctx, notifications.Complete, "finished, %d processed", processed)
	}
	if cfg.Tagger == nil {
		fmt.Println("skipped ID3 tagging of mp3 files. run again with -id3 to fix tags, media will not be downloaded again")
	}
}

func processSong(ctx context.Context, cfg *usdxdl.Config, dir string) error {
	song, err := usdxdl.LoadSong(dir)
	if err != nil {
		return err
	}

	before, _ := os.ReadFile(song.TxtPath)
	if err := song.Process(ctx, cfg); err != nil {
		return err
	}

	if after, _ := os.ReadFile(song.TxtPath); !bytes.Equal(before, after) {
		diff := dmp.DiffMain(string(before), string(after), false)
		slog.DebugContext(ctx, "updated header", "file", song.TxtPath, "diff", dmp.DiffPrettyText(diff))
	}
	return nil
}

func defaultConfigPath() string {
	userConfig, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(userConfig, usdxdl.Name, "config")
}

var _ flag.Value = (*notificationsParser)(nil)

type notificationsParser struct{ *notifications.Notifications }

func (n *notificationsParser) Set(value string) error {
	eventsRaw, uri, ok := strings.Cut(value, " ")
	if !ok {
		return fmt.Errorf("invalid notification uri format. expected eg \"ev1,ev2 uri\"")
	}
	var lineErrs []error
	for _, ev := range strings.Split(eventsRaw, ",") {
		ev, uri = strings.TrimSpace(ev), strings.TrimSpace(uri)
		lineErrs = append(lineErrs, n.AddURI(notifications.Event(ev), uri))
	}
	return errors.Join(lineErrs...)
}

func (n notificationsParser) String() string {
	if n.Notifications == nil {
		return ""
	}
	var parts []string
	n.IterMappings(func(e notifications.Event, uri string) {
		u, _ := url.Parse(uri)
		parts = append(parts, fmt.Sprintf("%s: %s://%s/...", e, u.Scheme, u.Host))
	})
	return strings.Join(parts, ", ")
}
