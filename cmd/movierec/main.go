// Command movierec 是推荐系统的离线/在线命令行入口：
//
//	movierec fit -data interactions.csv -out artifacts
//	movierec recommend -config movierec.yaml -ids 27205,603,496243,550,335984
//	movierec search -q matrix
//	movierec list -page 1 -size 20
//	movierec info
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/rushteam/movierec/config"
	"github.com/rushteam/movierec/pkg/logging"
	"github.com/rushteam/movierec/recommend"
)

const usage = `usage: movierec <command> [flags]

commands:
  fit        build the feature bundle and training matrices from an interaction log
  recommend  recommend movies for five seed movie ids
  search     search the catalog by title
  list       list the catalog by popularity
  info       show bundle and classifier information
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logging.Error().Err(err).Msg("movierec failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "fit":
		return runFit(ctx, rest, stdout, stderr)
	case "recommend":
		return runRecommend(ctx, rest, stdout, stderr)
	case "search":
		return runSearch(ctx, rest, stdout, stderr)
	case "list":
		return runList(ctx, rest, stdout, stderr)
	case "info":
		return runInfo(ctx, rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// engineFlags 是在线命令共用的参数
type engineFlags struct {
	config    string
	artifacts string
	logLevel  string
}

func (f *engineFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "application config file (yaml)")
	fs.StringVar(&f.artifacts, "artifacts", "", "artifacts directory, overrides the config file")
	fs.StringVar(&f.logLevel, "log-level", "", "log level, overrides the config file")
}

// load 读取配置（未给出时使用默认配置），应用命令行覆盖并创建引擎
func (f *engineFlags) load(ctx context.Context, stderr io.Writer) (*recommend.Engine, error) {
	cfg := config.Default()
	if f.config != "" {
		loaded, err := config.Load(f.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if f.artifacts != "" {
		cfg.ArtifactsDir = f.artifacts
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	cfg.Logging.Output = stderr
	logging.Init(cfg.Logging)
	return recommend.NewEngineFromConfig(ctx, cfg)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runRecommend(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("recommend", stderr)
	var ef engineFlags
	ef.register(fs)
	ids := fs.String("ids", "", "five comma-separated seed movie ids")
	top := fs.Int("top", 0, "number of recommendations (default from config)")
	candidates := fs.String("candidates", "", "optional comma-separated candidate movie ids")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := &recommend.RecommendRequest{TopN: *top}
	var err error
	if req.MovieIDs, err = parseIDs(*ids); err != nil {
		return fmt.Errorf("-ids: %w", err)
	}
	if *candidates != "" {
		if req.Candidates, err = parseIDs(*candidates); err != nil {
			return fmt.Errorf("-candidates: %w", err)
		}
	}

	e, err := ef.load(ctx, stderr)
	if err != nil {
		return err
	}
	defer e.Close()

	resp, err := e.Recommend(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(stdout, resp)
}

func runSearch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("search", stderr)
	var ef engineFlags
	ef.register(fs)
	q := fs.String("q", "", "title substring (case-insensitive)")
	page := fs.Int("page", 1, "page number, starting at 1")
	size := fs.Int("size", recommend.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := ef.load(ctx, stderr)
	if err != nil {
		return err
	}
	defer e.Close()
	return printJSON(stdout, e.Search(*q, *page, *size))
}

func runList(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("list", stderr)
	var ef engineFlags
	ef.register(fs)
	page := fs.Int("page", 1, "page number, starting at 1")
	size := fs.Int("size", recommend.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := ef.load(ctx, stderr)
	if err != nil {
		return err
	}
	defer e.Close()
	return printJSON(stdout, e.List(*page, *size))
}

func runInfo(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("info", stderr)
	var ef engineFlags
	ef.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := ef.load(ctx, stderr)
	if err != nil {
		return err
	}
	defer e.Close()
	return printJSON(stdout, e.Info())
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("no movie ids given")
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid movie id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
