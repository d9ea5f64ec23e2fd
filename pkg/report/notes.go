package report

import (
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"blmne/pkg/errs"
	"blmne/pkg/files"
	"blmne/pkg/logger"
)

// Notebook is an externally owned report that accepts free-text notes.
type Notebook interface {
	AddNote(title, text string)
}

// OptionalFilesNoteTitle is the title of notes describing supplied inputs.
const OptionalFilesNoteTitle = "Optional files"

// reportKeys are the message keys existing apps template their reports with.
var reportKeys = map[files.Role]string{
	files.RoleCrosstalk:   "report_cross_talk_file",
	files.RoleCalibration: "report_calibration_file",
	files.RoleEvents:      "report_events_file",
	files.RoleHeadshape:   "report_head_pos_file",
	files.RoleChannels:    "report_channels_file",
	files.RoleDestination: "report_destination",
}

// ReportKey is the MessageOptionalFilesInReports key for role.
func ReportKey(role files.Role) string {
	if key, ok := reportKeys[role]; ok {
		return key
	}
	return "report_" + string(role) + "_file"
}

// MessageOptionalFilesInReports returns a message for every optional role,
// keyed by ReportKey, stating whether it was supplied, and adds a note to nb
// for each supplied one. nb may be nil.
func MessageOptionalFilesInReports(nb Notebook, desc files.OptionalFiles, outDir string) map[string]string {
	messages := make(map[string]string, len(files.Roles))
	for _, role := range files.Roles {
		key := ReportKey(role)
		if _, ok := desc.Path(role); !ok {
			messages[key] = "No " + role.Label() + " file provided"
			continue
		}
		messages[key] = titleWords(role.Label()) + " file provided"
		if nb == nil {
			continue
		}
		text := messages[key]
		if outDir != "" {
			text += " (copied to " + filepath.Join(outDir, role.DestName()) + ")"
		}
		nb.AddNote(OptionalFilesNoteTitle, text)
	}
	return messages
}

func titleWords(s string) string {
	out := []rune(s)
	upper := true
	for i, r := range out {
		if upper && unicode.IsLetter(r) {
			out[i] = unicode.ToUpper(r)
		}
		upper = !unicode.IsLetter(r)
	}
	return string(out)
}

// Note is one titled paragraph of an HTMLReport.
type Note struct {
	Title string
	Text  string
}

// HTMLReport is a minimal Notebook rendered as a standalone HTML page.
type HTMLReport struct {
	Title   string
	Created time.Time
	notes   []Note
}

func NewHTMLReport(title string) *HTMLReport {
	return &HTMLReport{Title: title, Created: time.Now().UTC()}
}

func (r *HTMLReport) AddNote(title, text string) {
	r.notes = append(r.notes, Note{Title: title, Text: text})
}

func (r *HTMLReport) Notes() []Note {
	return append([]Note(nil), r.notes...)
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p class="created">{{.Created.Format "2006-01-02 15:04:05 MST"}}</p>
{{- range .Notes}}
<section>
<h2>{{.Title}}</h2>
<p>{{.Text}}</p>
</section>
{{- end}}
</body>
</html>
`))

// Render writes the report as HTML.
func (r *HTMLReport) Render(w io.Writer) error {
	data := struct {
		Title   string
		Created time.Time
		Notes   []Note
	}{r.Title, r.Created, r.notes}
	if err := reportTemplate.Execute(w, data); err != nil {
		return errs.IO("rendering report %q: %v", r.Title, err)
	}
	return nil
}

// Save renders the report to path, creating its directory.
func (r *HTMLReport) Save(path string) error {
	if strings.TrimSpace(path) == "" {
		return errs.Validation("report path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.FromOS(err, "creating report directory for %s", path)
	}
	var buf strings.Builder
	if err := r.Render(&buf); err != nil {
		return err
	}
	if err := files.WriteFileAtomic(path, []byte(buf.String()), 0o644); err != nil {
		return err
	}
	logger.Infof("report saved to %s (%d notes)", path, len(r.notes))
	return nil
}
