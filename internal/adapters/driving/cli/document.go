package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

const timeLayout = "2006-01-02 15:04:05"

var errNoDocumentService = errors.New("document service not configured")

var documentCollection string

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage stored documents",
	Long:    `List, inspect, print, open or delete ingested documents.`,
}

type docHandler func(cmd *cobra.Command, svc driving.DocumentService, args []string) error

// withDocuments resolves the document service before running h.
func withDocuments(h docHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if documentService == nil {
			return errNoDocumentService
		}
		return h(cmd, documentService, args)
	}
}

func byID(use, short string, h docHandler) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <doc-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE:  withDocuments(h),
	}
}

func init() {
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE:  withDocuments(listDocuments),
	}
	list.Flags().StringVarP(&documentCollection, "collection", "c", "", "only list this collection")

	documentCmd.AddCommand(
		list,
		byID("get", "Show document details", showDocument),
		byID("content", "Print extracted document text", printDocument),
		byID("delete", "Delete a document and its chunks", deleteDocument),
		byID("open", "Open the source file in the default application", openDocument),
	)
	rootCmd.AddCommand(documentCmd)
}

func listDocuments(cmd *cobra.Command, svc driving.DocumentService, _ []string) error {
	docs, err := svc.List(cmd.Context(), documentCollection)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents stored.")
		return nil
	}

	for _, d := range docs {
		kind := d.Type
		if kind == "" {
			kind = "-"
		}
		cmd.Printf("  %-40s %-12s %s\n", d.ID, kind, d.Filename())
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func showDocument(cmd *cobra.Command, svc driving.DocumentService, args []string) error {
	d, err := svc.GetDetails(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("document %s: %w", args[0], err)
	}

	cmd.Printf("Document: %s\n\n", d.ID)
	for _, row := range [][2]string{
		{"Title", d.Title},
		{"Type", d.Type},
		{"Collection", d.Collection},
		{"URI", d.URI},
		{"Chunks", fmt.Sprint(d.ChunkCount)},
		{"Created", d.CreatedAt.Format(timeLayout)},
		{"Updated", d.UpdatedAt.Format(timeLayout)},
	} {
		cmd.Printf("  %-11s %s\n", row[0]+":", row[1])
	}

	if len(d.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for _, k := range slices.Sorted(maps.Keys(d.Metadata)) {
			cmd.Printf("    %s: %s\n", k, d.Metadata[k])
		}
	}
	return nil
}

func printDocument(cmd *cobra.Command, svc driving.DocumentService, args []string) error {
	text, err := svc.GetContent(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("document %s content: %w", args[0], err)
	}
	cmd.Println(text)
	return nil
}

func deleteDocument(cmd *cobra.Command, svc driving.DocumentService, args []string) error {
	if err := svc.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete %s: %w", args[0], err)
	}
	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func openDocument(cmd *cobra.Command, svc driving.DocumentService, args []string) error {
	if err := svc.Open(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	cmd.Printf("Opened document %s in default application.\n", args[0])
	return nil
}
