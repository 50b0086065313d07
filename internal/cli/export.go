package cli

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackreport/pkg/cache"
	"github.com/matzehuels/stackreport/pkg/capture"
	"github.com/matzehuels/stackreport/pkg/collect"
	"github.com/matzehuels/stackreport/pkg/document"
	"github.com/matzehuels/stackreport/pkg/export"
	"github.com/matzehuels/stackreport/pkg/export/delivery"
)

// exportOpts holds the export command flags. Empty values leave the
// config file setting in place.
type exportOpts struct {
	snapshot   string
	configPath string

	csv, pdf, xlsx bool

	out      string
	basename string
	title    string
	noCache  bool

	s3Bucket   string
	s3Prefix   string
	s3Endpoint string
	s3Region   string

	redisAddr   string
	redisPrefix string
	series      []string
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a report as CSV, PDF and/or XLSX",
		Long: `Export collects the monitored subject, its time series and metrics table
from a snapshot file (and optionally Redis), then writes one file per selected
format. A format that fails does not stop the others.`,
		Example: `  stackreport export --snapshot host.json --csv --pdf --out reports/
  stackreport export --snapshot host.json --pdf --redis-addr localhost:6379 --series cpu,mem
  stackreport export --snapshot host.json --xlsx --s3-bucket reports --s3-prefix weekly`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.snapshot, "snapshot", "", "snapshot JSON file with subject, timeframe, series and metrics")
	f.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/stackreport/stackreport.toml)")
	f.BoolVar(&opts.csv, "csv", false, "export the metrics table as CSV")
	f.BoolVar(&opts.pdf, "pdf", false, "export the full report as PDF")
	f.BoolVar(&opts.xlsx, "xlsx", false, "export the metrics table as XLSX")
	f.StringVarP(&opts.out, "out", "o", "", "output directory")
	f.StringVar(&opts.basename, "basename", "", "file basename (default \"report\")")
	f.StringVar(&opts.title, "title", "", "report title")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the capture cache")
	f.StringVar(&opts.s3Bucket, "s3-bucket", "", "upload to this S3 bucket instead of --out")
	f.StringVar(&opts.s3Prefix, "s3-prefix", "", "S3 key prefix")
	f.StringVar(&opts.s3Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL")
	f.StringVar(&opts.s3Region, "s3-region", "", "S3 region")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "read additional series from Redis at host:port")
	f.StringVar(&opts.redisPrefix, "redis-prefix", "", "Redis key prefix for series")
	f.StringSliceVar(&opts.series, "series", nil, "series that always get a section (read from Redis when --redis-addr is set)")

	return cmd
}

// apply overlays the flags onto cfg.
func (o exportOpts) apply(cfg *Config) {
	if o.csv || o.pdf || o.xlsx {
		cfg.Formats = nil
		if o.csv {
			cfg.Formats = append(cfg.Formats, string(export.FormatCSV))
		}
		if o.pdf {
			cfg.Formats = append(cfg.Formats, string(export.FormatDocument))
		}
		if o.xlsx {
			cfg.Formats = append(cfg.Formats, string(export.FormatXLSX))
		}
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.OutDir, o.out)
	set(&cfg.Basename, o.basename)
	set(&cfg.Title, o.title)
	set(&cfg.S3.Bucket, o.s3Bucket)
	set(&cfg.S3.Prefix, o.s3Prefix)
	set(&cfg.S3.Endpoint, o.s3Endpoint)
	set(&cfg.S3.Region, o.s3Region)
	set(&cfg.Redis.Addr, o.redisAddr)
	set(&cfg.Redis.Prefix, o.redisPrefix)
	if len(o.series) > 0 {
		cfg.Redis.Series = o.series
	}
	if o.noCache {
		cfg.Capture.NoCache = true
	}
}

func (c *CLI) runExport(ctx context.Context, opts exportOpts) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(&cfg)
	formats, err := parseFormats(cfg.Formats)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	snap, err := c.loadState(ctx, opts.snapshot, cfg.Redis)
	if err != nil {
		return err
	}

	targets := capture.NewRegistry()
	collector := &collect.Collector{
		Subjects:    snap,
		TimeRanges:  snap,
		Series:      snap,
		Tables:      snap,
		Title:       cfg.Title,
		Expect:      cfg.Redis.Series,
		Targets:     targets,
		ChartWidth:  cfg.Capture.ChartWidth,
		ChartHeight: cfg.Capture.ChartHeight,
		Logger:      c.Logger,
	}
	model, err := collector.Collect(ctx)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Collected %d sections", len(model.Sections)))

	store, err := newCache(cfg.Capture.NoCache)
	if err != nil {
		return err
	}
	defer store.Close()
	keyer := cache.NewDefaultKeyer()
	if model.Meta.SubjectID != "" {
		keyer = cache.NewScopedKeyer(keyer, "subject:"+model.Meta.SubjectID+":")
	}

	builder := document.NewBuilder(document.Options{
		Layout: cfg.layout(),
		Capture: capture.New(capture.Options{
			NativeTimeout: cfg.Capture.NativeTimeout,
			RasterTimeout: cfg.Capture.RasterTimeout,
			RasterScale:   cfg.Capture.RasterScale,
			Cache:         store,
			Keyer:         keyer,
			CacheTTL:      cfg.Capture.CacheTTL,
			Logger:        c.Logger,
		}),
		Targets: targets,
		Waiter:  cfg.waiter(),
		Logger:  c.Logger,
	})

	sink, dest, err := newSink(cfg)
	if err != nil {
		return err
	}

	table, _ := snap.Table()
	req := export.Request{
		Rows:         table.Rows,
		Columns:      table.Columns,
		Formats:      formats,
		FileBasename: cfg.Basename,
		Title:        model.Meta.Title,
		Sheet:        table.Heading,
		Model:        model,
	}

	orch := export.New(export.Options{
		Document: builder,
		Store:    delivery.TempStore{},
		Sink:     sink,
		Logger:   c.Logger,
	})

	spinner := newSpinnerWithContext(ctx, "Exporting "+model.Meta.Title+"...")
	spinner.Start()
	res, err := orch.Export(ctx, req)
	spinner.Stop()

	printExportResult(res, dest)
	return err
}

// loadState reads the snapshot and merges series from Redis when an
// address is configured. Redis being unreachable only costs its series.
func (c *CLI) loadState(ctx context.Context, snapshotPath string, rc RedisConfig) (*collect.Snapshot, error) {
	snap := &collect.Snapshot{}
	if snapshotPath != "" {
		s, err := collect.LoadSnapshot(snapshotPath)
		if err != nil {
			return nil, err
		}
		snap = s
	}
	if rc.Addr == "" || len(rc.Series) == 0 {
		return snap, nil
	}

	client := redis.NewClient(&redis.Options{Addr: rc.Addr})
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	series, err := collect.LoadRedisSeries(ctx, client, rc.Prefix, rc.Series)
	if err != nil {
		c.Logger.Warn("redis series unavailable", "addr", rc.Addr, "error", err)
		return snap, nil
	}
	c.Logger.Debug("loaded redis series", "addr", rc.Addr, "count", len(series))
	snap.MergeSeries(series)
	return snap, nil
}

// newSink returns the configured destination and a display name for it.
func newSink(cfg Config) (delivery.Sink, string, error) {
	if cfg.S3.Bucket != "" {
		client, err := delivery.NewS3Client(cfg.S3)
		if err != nil {
			return nil, "", err
		}
		dest := "s3://" + path.Join(cfg.S3.Bucket, cfg.S3.Prefix)
		s3 := delivery.S3{Client: client, Bucket: cfg.S3.Bucket, Prefix: cfg.S3.Prefix}
		return delivery.Retry{Sink: s3, Attempts: 3, Delay: 500 * time.Millisecond}, dest, nil
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create output directory: %w", err)
	}
	return delivery.Dir{Path: cfg.OutDir}, cfg.OutDir, nil
}

func printExportResult(res *export.Result, dest string) {
	if res == nil {
		return
	}
	if res.State == export.StateFailedValidation {
		printError("Export rejected")
		return
	}
	for _, f := range []export.Format{export.FormatCSV, export.FormatDocument, export.FormatXLSX} {
		out, ok := res.Outcomes[f]
		if !ok {
			continue
		}
		if !out.OK() {
			printError("%s failed: %v", f, out.Err)
			continue
		}
		printSuccess("%s %s", f, StyleDim.Render(fmt.Sprintf("(%d bytes, %s)", out.Bytes, out.Duration.Round(time.Millisecond))))
		if strings.HasPrefix(dest, "s3://") {
			printFile(dest + "/" + out.Filename)
		} else {
			printFile(filepath.Join(dest, out.Filename))
		}
	}
	printDetail("Export %s", res.ID)
}
