package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/catalog"
	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/navigation"
	"github.com/wellness-in-schools/video-library/pkg/client"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

const usage = `usage: wisctl <command> [flags]

commands:
  categories                         list the categories
  browse [-category c] [-sub s]      list a category, featured or saved view
  search <query>                     search titles, descriptions, instructors and tags
  saved                              list your saved videos
  watch [-category c] [-sub s] [-search q] <video-id>
                                     record a view, then return to the previous list
  leaderboard [-limit n]             show the top viewers
  verify <password>                  unlock the site and remember it

settings (env):
  WISCTL_API_URL     API base url (default http://localhost:8080/api)
  WISCTL_TOKEN       bearer token for user commands
  WISCTL_GATE_FILE   where the site gate session is kept
  WISCTL_GATE_TTL    how long an unlock is remembered (default 24h)
  WISCTL_LOG_LEVEL   log level (default warn)
`

// settings are read from WISCTL_* variables.
type settings struct {
	APIURL   string
	Token    string
	GateFile string
	GateTTL  time.Duration
	LogLevel string
}

func loadSettings() settings {
	v := viper.New()
	v.SetEnvPrefix("WISCTL")
	v.AutomaticEnv()
	v.SetDefault("api_url", "http://localhost:8080/api")
	v.SetDefault("token", "")
	v.SetDefault("gate_file", defaultGateFile())
	v.SetDefault("gate_ttl", client.DefaultGateTTL)
	v.SetDefault("log_level", "warn")

	return settings{
		APIURL:   v.GetString("api_url"),
		Token:    v.GetString("token"),
		GateFile: v.GetString("gate_file"),
		GateTTL:  v.GetDuration("gate_ttl"),
		LogLevel: v.GetString("log_level"),
	}
}

func defaultGateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".wisctl-gate.json"
	}
	return filepath.Join(dir, "wisctl", "gate.json")
}

func main() {
	s := loadSettings()
	if err := logger.Init(s.LogLevel, ""); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(s.APIURL, client.WithToken(s.Token))
	if err := run(ctx, api, s, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Log.Error("command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "wisctl: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, api *client.Client, s settings, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "categories":
		return runCategories(ctx, api, out)
	case "browse":
		return runBrowse(ctx, api, rest, out)
	case "search":
		if len(rest) == 0 {
			return errUsage
		}
		return runList(ctx, api, navigation.Search{Query: strings.Join(rest, " ")}, out)
	case "saved":
		return runList(ctx, api, navigation.SelectCategory{Category: catalog.ViewSaved}, out)
	case "watch":
		return runWatch(ctx, api, rest, out)
	case "leaderboard":
		return runLeaderboard(ctx, api, rest, out)
	case "verify":
		if len(rest) != 1 {
			return errUsage
		}
		return runVerify(ctx, api, s.GateFile, s.GateTTL, rest[0], time.Now(), out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return errUsage
	}
}

func runCategories(ctx context.Context, api *client.Client, out io.Writer) error {
	cats, err := api.Categories(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOLOR")
	for _, c := range cats {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Color)
	}
	return w.Flush()
}

// selectorFlags registers -category, -sub and -search on fs.
func selectorFlags(fs *flag.FlagSet) func() catalog.Selector {
	category := fs.String("category", catalog.ViewFeatured, "category id, featured or saved")
	sub := fs.String("sub", "", "subcategory selector, e.g. grades-3-4-5min")
	search := fs.String("search", "", "search query")
	return func() catalog.Selector {
		if *search != "" {
			return catalog.Selector{Category: catalog.ViewSearch, SearchQuery: *search}
		}
		return catalog.Selector{Category: *category, Subcategory: *sub}
	}
}

func runBrowse(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	selector := selectorFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return runList(ctx, api, navigation.Replace{Selector: selector()}, out)
}

func runList(ctx context.Context, api *client.Client, action navigation.Action, out io.Writer) error {
	store := navigation.NewStore(api)
	store.Dispatch(action)
	view := store.Load(ctx)
	if view.Err != "" {
		return errors.New(view.Err)
	}
	return printVideos(out, view.Videos)
}

func runWatch(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	selector := selectorFlags(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	videoID, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid video id %q", fs.Arg(0))
	}

	machine := navigation.NewMachine(api)
	machine.SaveSnapshot(selector())

	video, err := api.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Now playing: %s (%s)\n", video.Title, video.ExternalContentURL)

	view, err := api.TrackView(ctx, videoID)
	if err != nil {
		// A failed view must not block returning to the list.
		logger.L().Warn("failed to track view", zap.String("videoId", videoID.String()), zap.Error(err))
	} else {
		fmt.Fprintf(out, "Views: %d (you: %d)\n", view.ViewCount, view.TotalViews)
		if view.Stale {
			fmt.Fprintln(out, "Leaderboard will catch up shortly.")
		}
	}

	restored, err := machine.Restore(ctx)
	if err != nil {
		return err
	}
	if snap, ok := machine.Snapshot(); ok && !restored.FellBack && snap.SearchQuery != "" {
		fmt.Fprintf(out, "Back to search: %q\n", snap.SearchQuery)
	} else {
		fmt.Fprintf(out, "Back to: %s\n", describe(restored.Selector))
	}
	machine.Consume()

	return printVideos(out, restored.Videos)
}

func runLeaderboard(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("limit", 0, "number of users (server default when 0)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	entries, err := api.Leaderboard(ctx, *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tUSER\tSCHOOL\tVIEWS")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", i+1, e.Username, e.SchoolName, e.TotalViews)
	}
	return w.Flush()
}

func runVerify(ctx context.Context, api *client.Client, path string, ttl time.Duration, password string, now time.Time, out io.Writer) error {
	if session, err := readGateSession(path); err == nil && session.IsValid(now) {
		fmt.Fprintln(out, "Site already unlocked.")
		return nil
	}

	ok, err := api.VerifySitePassword(ctx, password)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("incorrect password")
	}

	if err := writeGateSession(path, client.NewGateSession(now, ttl)); err != nil {
		logger.L().Warn("failed to remember site gate session", zap.String("path", path), zap.Error(err))
	}
	fmt.Fprintln(out, "Site unlocked.")
	return nil
}

func readGateSession(path string) (client.GateSession, error) {
	var s client.GateSession
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	err = json.Unmarshal(b, &s)
	return s, err
}

func writeGateSession(path string, s client.GateSession) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func describe(sel catalog.Selector) string {
	if sel.Subcategory != "" {
		return sel.Category + " / " + sel.Subcategory
	}
	return sel.Category
}

func printVideos(out io.Writer, videos []*models.Video) error {
	if len(videos) == 0 {
		fmt.Fprintln(out, "No videos found.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tLENGTH\tVIEWS")
	for _, v := range videos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", v.ID, v.Title, v.Category, length(v.DurationSeconds), v.ViewCount)
	}
	return w.Flush()
}

func length(seconds *int) string {
	if seconds == nil {
		return "-"
	}
	return (time.Duration(*seconds) * time.Second).String()
}
