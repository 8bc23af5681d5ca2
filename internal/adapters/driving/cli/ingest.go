package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

var (
	ingestType  string
	ingestMeta  []string
	ingestDocID string
	ingestTitle string

	bulkJobPosts     string
	bulkApplications string
	bulkWorkers      int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a document file",
	Long: `Extracts text from a PDF, DOCX, Markdown, HTML, CSV, XLSX or text file,
splits it into overlapping chunks and stores them with their embeddings.

Ingesting the same doc_id again replaces the previous version.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestTextCmd = &cobra.Command{
	Use:   "ingest-text [text]",
	Short: "Ingest text from an argument or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIngestText,
}

var bulkCmd = &cobra.Command{
	Use:   "bulk [dir...]",
	Short: "Ingest every supported file in directories",
	Long: `Ingests directories of documents concurrently. Files that fail are
reported at the end and do not stop the run.

  qpro bulk --job-posts ./job_posts --applications ./my_applications`,
	RunE: runBulk,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-ingest files as they change",
	Long:  `Ingests a directory, then keeps it in sync until interrupted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestType, "type", "t", "", "document type (job_post, application, ...)")
	ingestCmd.Flags().StringArrayVarP(&ingestMeta, "meta", "m", nil, "metadata key=value (repeatable)")
	ingestCmd.Flags().StringVar(&ingestDocID, "doc-id", "", "document ID (default: file name)")

	ingestTextCmd.Flags().StringVarP(&ingestType, "type", "t", "", "document type")
	ingestTextCmd.Flags().StringArrayVarP(&ingestMeta, "meta", "m", nil, "metadata key=value (repeatable)")
	ingestTextCmd.Flags().StringVar(&ingestTitle, "title", "", "document title")
	ingestTextCmd.Flags().StringVar(&ingestDocID, "doc-id", "", "document ID")

	bulkCmd.Flags().StringVar(&bulkJobPosts, "job-posts", "", "directory of job posts")
	bulkCmd.Flags().StringVar(&bulkApplications, "applications", "", "directory of past applications")
	bulkCmd.Flags().IntVarP(&bulkWorkers, "workers", "w", 0, "concurrent files (default 4)")

	watchCmd.Flags().StringVarP(&ingestType, "type", "t", "", "document type for every file")

	rootCmd.AddCommand(ingestCmd, ingestTextCmd, bulkCmd, watchCmd)
}

// ingestMetadata combines --meta, --type, --doc-id and --title.
func ingestMetadata() (map[string]any, error) {
	meta, err := parseMeta(ingestMeta)
	if err != nil {
		return nil, err
	}
	if ingestType != "" {
		meta[domain.MetaType] = ingestType
	}
	if ingestDocID != "" {
		meta[domain.MetaDocID] = ingestDocID
	}
	if ingestTitle != "" {
		meta["title"] = ingestTitle
	}
	return meta, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	meta, err := ingestMetadata()
	if err != nil {
		return err
	}

	res, err := ingestService.IngestFile(cmd.Context(), args[0], meta)
	if err != nil {
		return err
	}
	cmd.Printf("Ingested %s: %d chunks\n", res.DocumentID, res.ChunksAdded)
	return nil
}

func runIngestText(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	meta, err := ingestMetadata()
	if err != nil {
		return err
	}

	var text string
	if len(args) == 1 {
		text = args[0]
	} else if text, err = readInput(cmd, nil); err != nil {
		return err
	}

	res, err := ingestService.IngestText(cmd.Context(), text, meta)
	if err != nil {
		return err
	}
	cmd.Printf("Ingested %s: %d chunks\n", res.DocumentID, res.ChunksAdded)
	return nil
}

// bulkTarget is one directory and the type its files are given.
type bulkTarget struct {
	dir     string
	docType string
}

func runBulk(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	var targets []bulkTarget
	if bulkJobPosts != "" {
		targets = append(targets, bulkTarget{bulkJobPosts, domain.TypeJobPost})
	}
	if bulkApplications != "" {
		targets = append(targets, bulkTarget{bulkApplications, domain.TypeApplication})
	}
	for _, dir := range args {
		targets = append(targets, bulkTarget{dir: dir})
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: give --job-posts, --applications or a directory", domain.ErrInvalidInput)
	}

	var total domain.BulkResult
	for _, target := range targets {
		res, err := ingestService.IngestDirectory(cmd.Context(), target.dir, driving.BulkOptions{
			Type:    target.docType,
			Workers: bulkWorkers,
			OnFile: func(path string, r domain.IngestResult, err error) {
				if err != nil {
					cmd.PrintErrf("  failed %s: %v\n", path, err)
					return
				}
				cmd.Printf("  %s: %d chunks\n", path, r.ChunksAdded)
			},
		})
		total.Files += res.Files
		total.Chunks += res.Chunks
		total.Failed = append(total.Failed, res.Failed...)
		if err != nil {
			return err
		}
	}

	cmd.Printf("\nIngested %d files, %d chunks\n", total.Files, total.Chunks)
	if len(total.Failed) > 0 {
		cmd.Printf("%d files failed:\n", len(total.Failed))
		for _, f := range total.Failed {
			cmd.Printf("  %s [%s]: %v\n", f.Path, domain.KindOf(f.Err), f.Err)
		}
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := driving.BulkOptions{
		Type: ingestType,
		OnFile: func(path string, r domain.IngestResult, err error) {
			switch {
			case err != nil:
				cmd.PrintErrf("  failed %s: %v\n", path, err)
			case r.DocumentID == "":
				cmd.Printf("  removed %s\n", path)
			default:
				cmd.Printf("  %s: %d chunks\n", path, r.ChunksAdded)
			}
		},
	}

	res, err := ingestService.IngestDirectory(ctx, args[0], opts)
	if err != nil {
		return err
	}
	cmd.Printf("Ingested %d files, %d failed. Watching %s (Ctrl+C to stop)\n", res.Files, len(res.Failed), args[0])
	return ingestService.Watch(ctx, args[0], opts)
}
