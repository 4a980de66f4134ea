package iocache

import (
	"fmt"
	"io"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/parquet"
	"github.com/rotisserie/eris"
)

// ExecuteRunsExport exports run history from store to <outputFile>.runs.parquet
// and <outputFile>.student_results.parquet.
func ExecuteRunsExport(w io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return eris.New("export: --output-file is required for export command")
	}
	if store == nil {
		return eris.New("export: run store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return eris.Wrap(err, "export: get run status")
	}
	if status.TotalRuns == 0 {
		return eris.New("export: no run data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total student results: %d\n", status.TableSizes[studentResultsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return eris.Wrap(err, "export: retrieve runs")
	}
	results, err := store.GetAllStudentResults()
	if err != nil {
		return eris.Wrap(err, "export: retrieve student results")
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return eris.Wrap(err, "export: write runs")
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	parquetResults := parquet.ConvertStudentResultRecords(results)
	resultsFile := outputFile + ".student_results.parquet"
	if err := parquet.WriteStudentResultsParquet(parquetResults, resultsFile); err != nil {
		return eris.Wrap(err, "export: write student results")
	}
	_, _ = fmt.Fprintf(w, "Exported %d student results to: %s\n", len(parquetResults), resultsFile)
	return nil
}
