package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/polli-labs/repoexport/internal/export"
	"github.com/polli-labs/repoexport/internal/types"
	"github.com/polli-labs/repoexport/internal/utils"
)

const (
	summaryExportedToFormat  = "\nExported to: %s\n"
	summaryTotalLinesFormat  = "Total number of lines exported: %d\n"
	summaryTotalTokensFormat = "Total number of tokens exported (estimated, %s): %d (%s)\n"
	summaryByExtensionHeader = "\nExported content summary by extension:"
	summaryNoFilesMessage    = "  (No files exported)"
)

// printSummary renders the run totals and the per-extension breakdown table.
// The token line only appears when a tokenizer was available for the run.
func printSummary(writer io.Writer, result export.Result) {
	fmt.Fprintf(writer, summaryExportedToFormat, result.OutputFilePath)
	fmt.Fprintf(writer, summaryTotalLinesFormat, result.TotalLines)
	if result.TokenizerName != utils.EmptyString {
		fmt.Fprintf(writer, summaryTotalTokensFormat, result.TokenizerName, result.TotalTokens, utils.FormatCount(result.TotalTokens))
	}
	fmt.Fprintln(writer, summaryByExtensionHeader)
	if len(result.ExtensionStatistics) == 0 {
		fmt.Fprintln(writer, summaryNoFilesMessage)
		return
	}
	summaryTable := tablewriter.NewWriter(writer)
	summaryTable.Header("Extension", "Files", "Lines", "Tokens")
	for _, extensionKey := range sortedExtensionKeys(result.ExtensionStatistics) {
		extensionEntry := result.ExtensionStatistics[extensionKey]
		summaryTable.Append(
			extensionKey,
			strconv.Itoa(extensionEntry.FileCount),
			utils.FormatCount(extensionEntry.TotalLines),
			utils.FormatCount(extensionEntry.TotalTokens),
		)
	}
	summaryTable.Render()
}

func sortedExtensionKeys(statisticsByExtension map[string]types.ExtensionStats) []string {
	extensionKeys := make([]string, 0, len(statisticsByExtension))
	for extensionKey := range statisticsByExtension {
		extensionKeys = append(extensionKeys, extensionKey)
	}
	sort.Strings(extensionKeys)
	return extensionKeys
}
