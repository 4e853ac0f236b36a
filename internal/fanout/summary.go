package fanout

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

const (
	summaryRepositoryHeaderConstant = "Repository"
	summaryStatusHeaderConstant     = "Status"
	summaryExitCodeHeaderConstant   = "Exit Code"
	summaryStatusSucceededConstant  = "ok"
	summaryStatusFailedConstant     = "failed"
	summaryStatusNotStartedConstant = "not started"
	summaryStatusUnchangedConstant  = "unchanged"
	summaryStatusAbortedConstant    = "failed (aborted run)"
	summaryEmptyExitCodeConstant    = "-"
)

// RenderSummary writes one table row per processed repository.
func RenderSummary(writer io.Writer, report Report) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{summaryRepositoryHeaderConstant, summaryStatusHeaderConstant, summaryExitCodeHeaderConstant})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, result := range report.Results {
		table.Append([]string{result.RepositoryPath, summaryStatus(report, result), summaryExitCode(result)})
	}

	table.Render()
}

func summaryStatus(report Report, result ExecutionResult) string {
	switch {
	case result.Skipped:
		return summaryStatusUnchangedConstant
	case result.LaunchError != nil:
		return summaryStatusNotStartedConstant
	case result.ExitCode != 0 && report.Aborted && report.AbortedRepository == result.RepositoryPath:
		return summaryStatusAbortedConstant
	case result.ExitCode != 0:
		return summaryStatusFailedConstant
	default:
		return summaryStatusSucceededConstant
	}
}

func summaryExitCode(result ExecutionResult) string {
	if result.Skipped || result.LaunchError != nil {
		return summaryEmptyExitCodeConstant
	}
	return strconv.Itoa(result.ExitCode)
}
