package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"reelhouse/internal/queue"
)

// jobView is the JSON shape of a conversion job.
type jobView struct {
	ID             int64  `json:"id"`
	SourceFilename string `json:"source_filename"`
	Operation      string `json:"operation"`
	Status         string `json:"status"`
	TimeRequested  int64  `json:"time_requested"`
	TimeCompleted  *int64 `json:"time_completed,omitempty"`
	TimesTried     int    `json:"times_tried"`
}

func newJobView(job *queue.Job) jobView {
	return jobView{
		ID:             job.ID,
		SourceFilename: job.SourceFilename,
		Operation:      job.Operation,
		Status:         string(job.Status),
		TimeRequested:  job.TimeRequested,
		TimeCompleted:  job.TimeCompleted,
		TimesTried:     job.TimesTried,
	}
}

func buildJobRows(jobs []*queue.Job, now time.Time) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			filepath.Base(job.SourceFilename),
			formatOperationLabel(job.Operation),
			formatStatusLabel(job.Status),
			humanize.RelTime(job.RequestedAt(), now, "ago", "from now"),
			strconv.Itoa(job.TimesTried),
		})
	}
	return rows
}

func buildStatsRows(stats map[queue.Status]int) [][]string {
	rows := make([][]string, 0, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		rows = append(rows, []string{formatStatusLabel(status), strconv.Itoa(stats[status])})
	}
	return rows
}

func formatStatusLabel(status queue.Status) string {
	value := strings.TrimSpace(string(status))
	if value == "" {
		return "Unknown"
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

// formatOperationLabel marks stored operations the dispatcher does not know.
func formatOperationLabel(operation string) string {
	if _, known := queue.ParseOperation(operation); known {
		return queue.CanonicalOperation(operation)
	}
	return fmt.Sprintf("%s (unknown)", operation)
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
