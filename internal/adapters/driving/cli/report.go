package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// reportStyles holds the styles of the human readable report.
type reportStyles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	classes map[domain.Classification]lipgloss.Style
}

// newReportStyles returns coloured styles, or plain ones when colour is false.
func newReportStyles(colour bool) reportStyles {
	plain := lipgloss.NewStyle()
	if !colour {
		return reportStyles{title: plain, label: plain, muted: plain}
	}

	return reportStyles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		label: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		muted: lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		classes: map[domain.Classification]lipgloss.Style{
			domain.ClassValid:    lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
			domain.ClassReview:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
			domain.ClassCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8")),
			domain.ClassSpelling: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")),
			domain.ClassGrammar:  lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA")),
		},
	}
}

func (s reportStyles) class(c domain.Classification) string {
	text := "[" + c.String() + "]"
	if style, ok := s.classes[c]; ok {
		return style.Render(text)
	}
	return text
}

// stylesFor colours output only when w is the terminal.
func stylesFor(w io.Writer) reportStyles {
	f, ok := w.(*os.File)
	return newReportStyles(ok && term.IsTerminal(int(f.Fd())))
}

// jsonReport is the --json output of one analysis.
type jsonReport struct {
	File            string                `json:"file"`
	Path            string                `json:"path"`
	Fingerprint     string                `json:"fingerprint"`
	FellBack        bool                  `json:"fell_back"`
	PercentChanged  float64               `json:"percent_changed"`
	ChangedSegments []domain.Segment      `json:"changed_segments,omitempty"`
	DurationMS      int64                 `json:"duration_ms"`
	Result          domain.AnalysisResult `json:"result"`
}

func writeJSONReport(w io.Writer, file string, o *domain.Outcome) error {
	report := jsonReport{
		File:        file,
		Path:        o.Path.String(),
		Fingerprint: o.Key.String(),
		FellBack:    o.FellBack,
		DurationMS:  o.Duration.Milliseconds(),
		Result:      o.Result,
	}
	if report.Result.Terms == nil {
		report.Result.Terms = []domain.Term{}
	}
	if o.Profile != nil {
		report.PercentChanged = o.Profile.PercentChanged
		report.ChangedSegments = o.Profile.ChangedSegments
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeReport(w io.Writer, file string, o *domain.Outcome, s reportStyles) {
	fmt.Fprintln(w, s.title.Render("Analysis of "+file))
	fmt.Fprintln(w)

	path := o.Path.String()
	if o.Profile != nil {
		path += fmt.Sprintf(" (%.1f%% changed, %d segments)", o.Profile.PercentChanged, len(o.Profile.ChangedSegments))
	}
	if o.FellBack {
		path += ", fell back to full"
	}
	fmt.Fprintf(w, "%s %s\n", s.label.Render("Path:"), path)
	fmt.Fprintf(w, "%s %s\n", s.label.Render("Took:"), o.Duration.Round(time.Millisecond))
	fmt.Fprintln(w)

	terms := o.Result.Terms
	if len(terms) == 0 {
		fmt.Fprintln(w, "No terms flagged.")
	} else {
		fmt.Fprintln(w, s.label.Render("Terms:"))
		for i := range terms {
			t := &terms[i]
			fmt.Fprintf(w, "  %s %q %s score %.0f\n",
				s.class(t.Classification), t.Text, s.muted.Render(fmt.Sprintf("@%d-%d", t.Start, t.End)), t.Score)
			if len(t.Suggestions) > 0 {
				fmt.Fprintf(w, "      suggest: %s\n", strings.Join(t.Suggestions, ", "))
			}
			if t.Rationale != "" {
				fmt.Fprintf(w, "      %s\n", s.muted.Render(t.Rationale))
			}
		}
	}
	fmt.Fprintln(w)

	st := o.Result.Statistics
	fmt.Fprintln(w, s.label.Render("Statistics:"))
	fmt.Fprintf(w, "  Total: %d  Valid: %d  Review: %d  Critical: %d  Spelling: %d  Grammar: %d\n",
		st.TotalTerms, st.ValidTerms, st.ReviewTerms, st.CriticalTerms, st.SpellingIssues, st.GrammarIssues)
	fmt.Fprintf(w, "  Quality: %.1f  Coverage: %.1f%%\n", st.QualityScore, st.Coverage)
}
