package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/export"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/screening"
)

const (
	PromptExportCSV    = "Export CSV"
	PromptExportExcel  = "Export Excel"
	PromptDumpToFile   = "Dump results to file"
	PromptReportByType = "Report by analysis type"
	PromptSaveResume   = "Save résumé of a ranked candidate"
	PromptExit         = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptExportCSV, PromptExportExcel, PromptDumpToFile, PromptReportByType, PromptSaveResume, PromptExit},
}

// chooseCandidate asks which ranked candidate to act on and returns its file name.
var chooseCandidate = func(ranked []*candidates.Result) (string, error) {
	if len(ranked) == 0 {
		return "", errors.New("no screened candidates")
	}

	items := make([]string, len(ranked))
	for i, res := range ranked {
		items[i] = fmt.Sprintf("%d. %s (%d) %s", i+1, res.Name, res.Score, res.File)
	}

	choice := promptui.Select{Label: "Which candidate?", Items: items}
	idx, _, err := choice.Run()
	if err != nil {
		return "", err
	}
	return ranked[idx].File, nil
}

// exportActions maps --export values to menu actions.
var exportActions = map[string]string{
	"csv":  PromptExportCSV,
	"xlsx": PromptExportExcel,
	"json": PromptDumpToFile,
}

var runCmd = &cobra.Command{
	Use:   "run [files or directories...]",
	Short: "Screen PDF résumés against a job description",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("job-file", "", "file with the job description")
	runCmd.Flags().String("job", "", "job description text, takes precedence over --job-file")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before screening")
	runCmd.Flags().StringP("export", "e", "", "export the results and exit: csv, xlsx or json")
	runCmd.Flags().String("export-dir", "", "directory for exported files")

	viper.BindPFlag("job-description-file", runCmd.Flags().Lookup("job-file"))
	viper.BindPFlag("export.dir", runCmd.Flags().Lookup("export-dir"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command, args []string) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.AI == nil || config.Screening == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the cv-screener", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	format := strings.ToLower(strings.TrimSpace(cmd.Flag("export").Value.String()))
	if _, ok := exportActions[format]; format != "" && !ok {
		logger.Fatal("unsupported export format", zap.String("format", format), zap.String("hint", "use csv, xlsx or json"))
	}

	job, err := readJob(cmd.Flag("job").Value.String(), config.JobDescriptionFile)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err),
			zap.String("hint", "pass --job, --job-file or set job-description-file in the configuration file"))
	}

	files, err := collectFiles(args)
	if err != nil {
		logger.Fatal("collecting documents", zap.Error(err))
	}
	if len(files) == 0 {
		logger.Info("exiting", zap.String("reason", "no pdf documents found"))
		return
	}

	docs, err := loadDocuments(files)
	if err != nil {
		logger.Fatal("reading documents", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := newProvider(ctx, config.AI)
	if err != nil {
		logger.Fatal("building the ai provider", zap.Error(err))
	}
	gateway := ai.NewGateway(provider, gatewayOptions(config.AI), logger)

	lookup, err := newLookup(config.Search, logger)
	if err != nil {
		logger.Fatal("building the web search", zap.Error(err))
	}

	extractor := extract.New(config.Screening.MinTextLength)
	settings := screeningSettings(config.Screening)

	var pipeline *screening.Pipeline
	if lookup != nil {
		pipeline = screening.New(gateway, extractor, lookup, settings, logger)
	} else {
		logger.Info("web presence lookup is disabled")
		pipeline = screening.New(gateway, extractor, nil, settings, logger)
	}
	pipeline.OnProgress = func(done, total int, document string) {
		logger.Info("document finished", zap.String("document", document), zap.Int("done", done), zap.Int("total", total))
	}

	batch := screening.NewBatch(job, docs)

	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"
	if !autoApprove {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Screen %d documents with %s/%s", len(docs), gateway.Provider().Name(), gateway.Provider().Model()),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	results, err := pipeline.Run(ctx, batch)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("screening interrupted, keeping partial results", zap.Int("results", results.Len()))
	case err != nil:
		logger.Fatal("screening failed", zap.Error(err))
	}
	stop()

	reportRanked(results, logger)

	if format != "" {
		if err := handleAction(exportActions[format], config, results, batch, logger); err != nil {
			logger.Fatal("exporting results", zap.Error(err))
		}
		return
	}
	if autoApprove {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, config, results, batch, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, config *Config, results *candidates.Results, batch *screening.Batch, logger *zap.Logger) error {
	dir := "."
	if config.Export != nil && config.Export.Dir != "" {
		dir = config.Export.Dir
	}

	switch action {
	case PromptExportCSV:
		path, err := export.SaveCSV(dir, results.RunID, results)
		if err != nil {
			return fmt.Errorf("csv export: %w", err)
		}
		logger.Info("results exported", zap.String("format", "csv"), zap.String("path", path))
	case PromptExportExcel:
		path, err := export.SaveExcelInDir(dir, results, batch.JobDescription)
		if err != nil {
			return fmt.Errorf("excel export: %w", err)
		}
		logger.Info("results exported", zap.String("format", "xlsx"), zap.String("path", path))
	case PromptDumpToFile:
		path, err := results.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results: %w", err)
		}
		logger.Info("results dumped", zap.String("path", path))
	case PromptReportByType:
		logger.Info("report by analysis type", zap.Any("report", results.ReportByType()))
	case PromptSaveResume:
		file, err := chooseCandidate(results.Ranked())
		if err != nil {
			return fmt.Errorf("choose candidate: %w", err)
		}
		path, err := saveDocument(dir, batch, file)
		if err != nil {
			return err
		}
		logger.Info("résumé saved", zap.String("document", file), zap.String("path", path))
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	return nil
}

// saveDocument copies the original bytes of a screened document into dir,
// prefixed with the run id so the source file is never overwritten.
func saveDocument(dir string, batch *screening.Batch, file string) (string, error) {
	content, ok := batch.Content(file)
	if !ok {
		return "", fmt.Errorf("document %q is not part of run %s", file, batch.RunID)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("screening_%s_%s", batch.RunID, filepath.Base(file)))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", fmt.Errorf("save résumé: %w", err)
	}
	return path, nil
}

func reportRanked(results *candidates.Results, logger *zap.Logger) {
	for i, res := range results.Ranked() {
		logger.Info("ranked candidate",
			zap.Int("rank", i+1),
			zap.String("name", res.Name),
			zap.Int("score", res.Score),
			zap.String("file", res.File),
			zap.String("analysis_type", res.Type.String()),
			zap.Strings("missing_keywords", res.ATS.MissingKeywords),
		)
	}

	counts := results.CountByType()
	fields := []zap.Field{
		zap.Int("documents", results.Len()),
		zap.Float64("average_score", results.AverageScore()),
	}
	for _, t := range candidates.AnalysisTypes {
		fields = append(fields, zap.Int(t.String(), counts[t]))
	}
	logger.Info("screening summary", fields...)
}

// readJob prefers inline text over the file.
func readJob(text, file string) (string, error) {
	if text = strings.TrimSpace(text); text != "" {
		return text, nil
	}

	file = strings.TrimSpace(file)
	if file == "" {
		return "", errors.New("job description is not provided")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading job description file: %w", err)
	}
	if text = strings.TrimSpace(string(data)); text == "" {
		return "", fmt.Errorf("job description file %q is empty", file)
	}
	return text, nil
}

// collectFiles expands directories to the PDF files they contain, sorted by
// name. Files given explicitly are kept as is so the extractor can reject them.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
				continue
			}
			found = append(found, filepath.Join(arg, entry.Name()))
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func loadDocuments(files []string) ([]screening.Document, error) {
	docs := make([]screening.Document, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, screening.Document{Name: filepath.Base(path), Content: data})
	}
	return docs, nil
}
