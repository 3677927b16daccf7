package main

import (
	"errors"

	"github.com/orchestria/corpus/internal/config"
	"github.com/orchestria/corpus/internal/store"
	"github.com/orchestria/corpus/internal/vectorindex"
	"github.com/spf13/cobra"
)

var (
	docsLang    string
	docsType    string
	docsYearMin int
	docsYearMax int

	updTitle   string
	updAuthors string
	updYear    int
	updLang    string
	updType    string
	updJournal string
	updDOI     string
	updAPA     string
)

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsGetCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	docsCmd.AddCommand(docsUpdateCmd)

	docsListCmd.Flags().StringVar(&docsLang, "lang", "", "Filter by language")
	docsListCmd.Flags().StringVar(&docsType, "type", "", "Filter by document type")
	docsListCmd.Flags().IntVar(&docsYearMin, "year-min", 0, "Filter by minimum year")
	docsListCmd.Flags().IntVar(&docsYearMax, "year-max", 0, "Filter by maximum year")

	docsUpdateCmd.Flags().StringVar(&updTitle, "title", "", "Set the document title")
	docsUpdateCmd.Flags().StringVar(&updAuthors, "authors", "", "Set the document authors")
	docsUpdateCmd.Flags().IntVar(&updYear, "year", 0, "Set the publication year")
	docsUpdateCmd.Flags().StringVar(&updLang, "lang", "", "Set the document language")
	docsUpdateCmd.Flags().StringVar(&updType, "type", "", "Set the document type")
	docsUpdateCmd.Flags().StringVar(&updJournal, "journal", "", "Set the journal name")
	docsUpdateCmd.Flags().StringVar(&updDOI, "doi", "", "Set the DOI")
	docsUpdateCmd.Flags().StringVar(&updAPA, "apa", "", "Set the APA reference")
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage corpus documents",
}

// DocsListResponse is the response for the docs list command.
type DocsListResponse struct {
	Documents []store.DocumentMetadata `json:"documents"`
	Total     int                      `json:"total"`
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List corpus documents",
	RunE:  runDocsList,
}

func runDocsList(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	st := mustOpenStore(root)
	defer st.Close()

	filter := store.DocumentFilter{
		Language: docsLang,
		DocType:  docsType,
		YearMin:  docsYearMin,
		YearMax:  docsYearMax,
	}
	docs, err := st.SearchDocuments(filter)
	if err != nil {
		exitWithError(ExitError, "listing documents: %v", err)
	}

	if humanOutput {
		for _, d := range docs {
			title := d.Title
			if title == "" {
				title = d.Filename
			}
			outputHuman("%s  %s (%d pages, %d tokens)\n",
				d.DocID, truncateString(title, ListTitleMaxLen), d.PageCount, d.TokenCount)
		}
		outputHuman("%d documents\n", len(docs))
	} else {
		outputJSON(DocsListResponse{Documents: docs, Total: len(docs)})
	}
	return nil
}

var docsGetCmd = &cobra.Command{
	Use:   "get <doc_id>",
	Short: "Show one document's metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsGet,
}

func runDocsGet(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	st := mustOpenStore(root)
	defer st.Close()

	doc, err := st.GetDocument(args[0])
	if err != nil {
		exitWithError(ExitError, "loading document: %v", err)
	}
	if doc == nil {
		exitWithError(ExitDataError, "document not found: %s", args[0])
	}

	if humanOutput {
		outputHuman("%s\n  file: %s\n  title: %s\n  authors: %s\n  year: %d\n  pages: %d, tokens: %d\n",
			doc.DocID, doc.Filepath, doc.Title, doc.Authors, doc.Year, doc.PageCount, doc.TokenCount)
	} else {
		outputJSON(doc)
	}
	return nil
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <doc_id>",
	Short: "Delete a document and all its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	st := mustOpenStore(root)
	defer st.Close()

	docID := args[0]
	doc, err := st.GetDocument(docID)
	if err != nil {
		exitWithError(ExitError, "loading document: %v", err)
	}
	if doc == nil {
		exitWithError(ExitDataError, "document not found: %s", docID)
	}

	if err := st.DeleteDocument(docID); err != nil {
		exitWithError(ExitError, "deleting document: %v", err)
	}

	// Drop the document's vectors when an index exists.
	idx, err := vectorindex.Load(config.IndexPath(root))
	if err == nil {
		if idx.RemoveDoc(docID) > 0 {
			if err := idx.Save(config.IndexPath(root)); err != nil {
				exitWithError(ExitError, "saving index: %v", err)
			}
		}
	} else if !errors.Is(err, vectorindex.ErrIndexNotFound) {
		exitWithError(ExitError, "loading index: %v", err)
	}

	if humanOutput {
		outputHuman("Deleted %s\n", docID)
	} else {
		outputJSON(StatusResponse{Status: "deleted", DocID: docID})
	}
	return nil
}

var docsUpdateCmd = &cobra.Command{
	Use:   "update <doc_id>",
	Short: "Update document metadata fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsUpdate,
}

func runDocsUpdate(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	st := mustOpenStore(root)
	defer st.Close()

	docID := args[0]
	doc, err := st.GetDocument(docID)
	if err != nil {
		exitWithError(ExitError, "loading document: %v", err)
	}
	if doc == nil {
		exitWithError(ExitDataError, "document not found: %s", docID)
	}

	upd := store.DocumentUpdate{
		Title:        updTitle,
		Authors:      updAuthors,
		Year:         updYear,
		Language:     updLang,
		DocType:      updType,
		Journal:      updJournal,
		DOI:          updDOI,
		APAReference: updAPA,
	}
	if err := st.UpdateDocument(docID, upd); err != nil {
		exitWithError(ExitError, "updating document: %v", err)
	}

	if humanOutput {
		outputHuman("Updated %s\n", docID)
	} else {
		outputJSON(StatusResponse{Status: "updated", DocID: docID})
	}
	return nil
}
