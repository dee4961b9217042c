package bot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/xgrabbot/internal/worker"
)

const errorReportFile = "error_report.txt"

// Reporter logs handler failures and forwards them to the developer chat.
type Reporter struct {
	api         API
	developerID int64
	logger      *slog.Logger
}

// NewReporter creates a reporter. A zero developerID only logs.
func NewReporter(api API, developerID int64, logger *slog.Logger) *Reporter {
	return &Reporter{
		api:         api,
		developerID: developerID,
		logger:      logger,
	}
}

// JobError is a worker.Config OnError hook. Returned errors carry no stack.
func (r *Reporter) JobError(job worker.Job, err error) {
	r.Report(job.Payload, err, nil)
}

// JobPanic is a worker.Config OnPanic hook.
func (r *Reporter) JobPanic(job worker.Job, recovered any, stack []byte) {
	r.Report(job.Payload, fmt.Errorf("panic: %v", recovered), stack)
}

// Report logs err and, when the update is known, sends the developer an
// error_report.txt document with the update payload and stack.
func (r *Reporter) Report(update any, err error, stack []byte) {
	if isForbidden(err) {
		// Blocked by the user or kicked from the chat.
		return
	}
	if isConflict(err) {
		r.logger.Error("telegram requests conflict", "error", err)
		return
	}

	if len(stack) > 0 {
		r.logger.Error("exception while handling an update", "error", err, "stack", string(stack))
	} else {
		r.logger.Error("exception while handling an update", "error", err)
	}

	if update == nil || r.developerID == 0 {
		return
	}

	doc := tgbotapi.NewDocument(r.developerID, tgbotapi.FileBytes{
		Name:  errorReportFile,
		Bytes: []byte(buildReport(update, err, stack)),
	})
	doc.Caption = fmt.Sprintf("#error_report\nAn exception was raised:\n%T: %v", err, err)

	if _, sendErr := r.api.Send(doc); sendErr != nil {
		r.logger.Error("failed to send error report", "error", sendErr)
	}
}

func buildReport(update any, err error, stack []byte) string {
	payload, jerr := json.MarshalIndent(update, "", "  ")
	if jerr != nil {
		payload = []byte(fmt.Sprintf("%+v", update))
	}

	var b strings.Builder
	b.WriteString("#error_report\n")
	b.WriteString("An exception was raised in runtime\n")
	fmt.Fprintf(&b, "update = %s\n\n", payload)
	fmt.Fprintf(&b, "error = %v\n", err)
	if len(stack) > 0 {
		b.WriteString("\n")
		b.Write(stack)
	}
	return b.String()
}
