// Package cli implements the qpro command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
	"github.com/custodia-labs/qpro/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Services are the core services the commands drive.
type Services struct {
	Ingest    driving.IngestService
	Draft     driving.DraftService
	Document  driving.DocumentService
	Retrieval driving.RetrievalService
	Settings  driving.SettingsService

	// Close releases stores and providers. May be nil.
	Close func() error
}

// Bootstrap builds the services for a data directory. It runs once,
// after flags are parsed and before the first command that needs them.
type Bootstrap func(ctx context.Context, dataDir string) (*Services, error)

var (
	bootstrap Bootstrap
	services  *Services

	ingestService    driving.IngestService
	draftService     driving.DraftService
	documentService  driving.DocumentService
	retrievalService driving.RetrievalService
	settingsService  driving.SettingsService

	verbose bool
	dataDir string
)

// annotationNoServices marks commands that run without a data directory.
const annotationNoServices = "qpro/no-services"

var rootCmd = &cobra.Command{
	Use:   "qpro",
	Short: "Career document retrieval and drafting",
	Long: `qpro stores your CVs, past applications and job posts locally,
retrieves the passages most relevant to a new job post, and drafts a
cover letter, CV bullets and an ATS keyword report grounded on them.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.qpro)")
}

// SetBootstrap sets the function that builds services on first use.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	services = s
	if s == nil {
		s = &Services{}
	}
	ingestService = s.Ingest
	draftService = s.Draft
	documentService = s.Document
	retrievalService = s.Retrieval
	settingsService = s.Settings
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if services != nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}
	if bootstrap == nil {
		return errors.New("qpro is not configured: no service bootstrap")
	}
	s, err := bootstrap(cmd.Context(), dataDir)
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if services != nil && services.Close != nil {
		if cerr := services.Close(); cerr != nil {
			logger.Warn("close: %v", cerr)
		}
	}
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error [%s]: %v\n", domain.KindOf(err), err)
		return 1
	}
	return 0
}

// parseMeta turns repeated key=value flags into metadata.
func parseMeta(pairs []string) (map[string]any, error) {
	meta := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: metadata must be key=value, got %q", domain.ErrInvalidInput, pair)
		}
		meta[key] = strings.TrimSpace(value)
	}
	return meta, nil
}

// readInput returns the file named by args[0], or stdin when there is
// no argument or it is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.NewNotFound(args[0])
		}
		return "", domain.NewInfrastructure("read", err)
	}
	return string(data), nil
}
