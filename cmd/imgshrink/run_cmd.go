package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/hsuyc/imgshrink/internal/i18n"
	"github.com/hsuyc/imgshrink/internal/pipeline"
	"github.com/hsuyc/imgshrink/internal/report"
)

const csvTimestampLayout = "2006-01-02-15-04-05"

func runCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Recompress every image under a folder",
		Long: `Walks the folder, backs up each image into the backup folder beside it,
recompresses the image in place, and prints a localized summary. Files whose
names carry the original or skip suffix are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfgFile, viper.GetString("path")); err != nil {
				return err
			}
			return runBatch()
		},
	}

	f := cmd.Flags()

	f.StringP("path", "p", ".", "Folder whose images are processed")
	f.IntP("quality", "q", 85, "Lossy compression quality (1-100)")
	f.Bool("backup", true, "Back up each original before compressing")
	f.String("backup-folder", "original image", "Per-directory folder name for backups")
	f.String("original-suffix", "_original", "Suffix appended to backup filenames")
	f.String("skip-suffix", "_skip", "Filename suffix that marks a file untouchable")
	f.Bool("skip-original", true, "Skip files already carrying the original suffix")
	f.Bool("skip-skip", true, "Skip files carrying the skip suffix")
	f.Bool("backup-zstd", false, "Store backups as zstd streams instead of plain copies")
	f.IntP("threads", "t", runtime.NumCPU(), "Max concurrent workers")
	f.Bool("print-files", true, "Print the per-file result lines")
	f.Bool("print-summary", true, "Print the summary report")
	f.Bool("csv", true, "Save the report as a CSV file under the summary folder")
	f.String("summary-folder", "summary", "Folder (under the root) that receives CSV reports")
	f.String("summary-filename", "summary", "Base name for CSV report files")
	f.String("lang", "en", "Report language code")
	f.String("lang-dir", "", "Directory with extra language packs (overrides built-ins)")
	f.BoolP("quiet", "Q", false, "No progress bars or console report")
	f.StringVarP(&cfgFile, "config", "c", "", "Config file (default: config.yaml in the folder or cwd)")

	// Config keys stay snake_case so hand-written config files read naturally.
	viper.BindPFlag("path", f.Lookup("path"))
	viper.BindPFlag("compress_quality", f.Lookup("quality"))
	viper.BindPFlag("backup", f.Lookup("backup"))
	viper.BindPFlag("backup_folder", f.Lookup("backup-folder"))
	viper.BindPFlag("original_suffix", f.Lookup("original-suffix"))
	viper.BindPFlag("skip_suffix", f.Lookup("skip-suffix"))
	viper.BindPFlag("skip_original", f.Lookup("skip-original"))
	viper.BindPFlag("skip_skip", f.Lookup("skip-skip"))
	viper.BindPFlag("backup_zstd", f.Lookup("backup-zstd"))
	viper.BindPFlag("threads", f.Lookup("threads"))
	viper.BindPFlag("print_image_reduced", f.Lookup("print-files"))
	viper.BindPFlag("print_summary", f.Lookup("print-summary"))
	viper.BindPFlag("save_summary_to_csv", f.Lookup("csv"))
	viper.BindPFlag("summary_folder", f.Lookup("summary-folder"))
	viper.BindPFlag("summary_filename", f.Lookup("summary-filename"))
	viper.BindPFlag("lang_code", f.Lookup("lang"))
	viper.BindPFlag("lang_dir", f.Lookup("lang-dir"))
	viper.BindPFlag("quiet", f.Lookup("quiet"))

	return cmd
}

// loadConfig merges an optional YAML config file under the bound flags.
// Explicit flags win over the file, the file wins over defaults.
func loadConfig(cfgFile, root string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		return viper.ReadInConfig()
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(root)
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

func runBatch() error {
	opts := pipeline.DefaultOptions()
	opts.Root = viper.GetString("path")
	opts.Quality = viper.GetInt("compress_quality")
	opts.Backup = viper.GetBool("backup")
	opts.BackupFolder = viper.GetString("backup_folder")
	opts.OriginalSuffix = viper.GetString("original_suffix")
	opts.SkipSuffix = viper.GetString("skip_suffix")
	opts.SkipOriginal = viper.GetBool("skip_original")
	opts.SkipSkip = viper.GetBool("skip_skip")
	opts.ZstdBackups = viper.GetBool("backup_zstd")
	opts.MaxThreads = viper.GetInt("threads")
	if err := opts.Validate(); err != nil {
		return err
	}

	pack, err := i18n.Load(viper.GetString("lang_code"), viper.GetString("lang_dir"))
	if err != nil {
		return err
	}

	quiet := viper.GetBool("quiet")
	say := func(key string, args map[string]any) error {
		if quiet {
			return nil
		}
		s, err := pack.Render(key, args)
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	}

	info, err := os.Stat(opts.Root)
	if err != nil || !info.IsDir() {
		if msgErr := say("general.folder_not_found", map[string]any{"folder": opts.Root}); msgErr != nil {
			return msgErr
		}
		return fmt.Errorf("folder not found: %s", opts.Root)
	}

	files, err := pipeline.Discover(opts.Root, opts.BackupFolder)
	if err != nil {
		return err
	}
	if err := say("general.start_processing", map[string]any{"count": len(files)}); err != nil {
		return err
	}

	// Writable destinations are checked before any image is touched.
	saveCSV := viper.GetBool("save_summary_to_csv")
	summaryDir := filepath.Join(opts.Root, viper.GetString("summary_folder"))
	if saveCSV {
		if err := os.MkdirAll(summaryDir, 0o755); err != nil {
			return fmt.Errorf("cannot create summary folder: %w", err)
		}
	}
	if opts.Backup {
		if err := os.MkdirAll(filepath.Join(opts.Root, opts.BackupFolder), 0o755); err != nil {
			return fmt.Errorf("cannot create backup folder: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The interrupt message must fire on signal delivery only, never on the
	// run's own cancel.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			say("general.interrupted", nil)
			cancel()
		case <-ctx.Done():
		}
	}()

	progress, progressCb := progressBar(pack, quiet)
	snap := pipeline.Run(ctx, files, opts, progressCb)
	if progress != nil {
		progress.Wait()
	}
	cancel()

	if err := say("general.finished_processing", map[string]any{"folder": opts.Root}); err != nil {
		return err
	}

	if !quiet && viper.GetBool("print_summary") {
		out, err := report.Console(snap, pack, viper.GetBool("print_image_reduced"))
		if err != nil {
			return err
		}
		fmt.Print(out)
	}

	if saveCSV {
		name := fmt.Sprintf("%s_%s.csv", viper.GetString("summary_filename"), snap.End.Format(csvTimestampLayout))
		path := filepath.Join(summaryDir, name)
		if err := writeCSVReport(path, snap, pack); err != nil {
			return err
		}
		if err := say("general.saved_report", map[string]any{"path": path}); err != nil {
			return err
		}
	}

	if failed := snap.Unreadable + snap.Errors; failed > 0 {
		return fmt.Errorf("finished with %d errors", failed)
	}
	return nil
}

// progressBar wires run events into an overall mpb bar. EventFile arrives
// from worker goroutines; the bar handles concurrent increments.
func progressBar(pack *i18n.Pack, quiet bool) (*mpb.Progress, pipeline.ProgressFunc) {
	if quiet {
		return nil, nil
	}

	progress := mpb.New(
		mpb.WithWidth(60),
		mpb.WithRefreshRate(100),
	)
	label, err := pack.Render("general.processing", nil)
	if err != nil {
		label = "Processing"
	}

	var overallBar *mpb.Bar
	callback := func(event pipeline.Event) {
		switch event.Type {
		case pipeline.EventStart:
			overallBar = progress.AddBar(int64(event.Total),
				mpb.PrependDecorators(
					decor.Name(label, decor.WC{C: decor.DindentRight | decor.DextraSpace}),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Percentage(decor.WC{W: 5}),
				),
			)
		case pipeline.EventFile:
			if overallBar != nil {
				overallBar.Increment()
			}
		case pipeline.EventComplete:
			if overallBar != nil {
				overallBar.SetTotal(int64(event.Total), true)
			}
		}
	}
	return progress, callback
}

func writeCSVReport(path string, snap *pipeline.Snapshot, pack *i18n.Pack) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(f, snap, pack); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
