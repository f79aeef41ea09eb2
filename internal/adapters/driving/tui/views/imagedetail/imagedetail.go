// Package imagedetail lists every piece of text recognised in one photo.
package imagedetail

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// chrome is the rows around the span list: title, rule, record fields,
// the span header and the footer.
const chrome = 14

type field struct{ label, value string }

// View shows a photo's record and its spans. Spans that matched the search
// are starred.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	images driving.ImageService
	ctx    context.Context

	image   *domain.ImageRecord
	spans   []domain.TextSpan
	matched map[string]bool

	// offset is the first span drawn.
	offset        int
	width, height int
	loading       bool
	err           error
}

// NewView creates an empty detail view. Without an image service only the
// spans that came with the search result are shown.
func NewView(s *styles.Styles, images driving.ImageService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		images: images,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context lookups run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetResult shows result straight away and returns a command fetching the
// photo's full span list.
func (v *View) SetResult(result domain.SearchResult) tea.Cmd {
	rec := result.Image
	v.image, v.spans = &rec, result.Spans
	v.matched = make(map[string]bool, len(result.Spans))
	for _, sp := range result.Spans {
		v.matched[sp.ID] = true
	}
	v.offset, v.err = 0, nil

	if v.images == nil || rec.ID == "" {
		return nil
	}
	v.loading = true
	ctx, images, id := v.ctx, v.images, rec.ID
	return func() tea.Msg {
		img, spans, err := images.GetByID(ctx, id)
		return messages.ImageLoaded{Image: img, Spans: spans, Err: err}
	}
}

func (v *View) Init() tea.Cmd { return nil }

// Update scrolls the span list and applies the loaded photo.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.onKey(msg.String())
	case messages.ImageLoaded:
		v.loading = false
		switch {
		case msg.Err != nil:
			v.err = msg.Err
		case msg.Image != nil:
			v.image, v.spans = msg.Image, msg.Spans
		}
	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) onKey(k string) tea.Cmd {
	switch {
	case keymap.Matches(k, v.keys.Up):
		v.scroll(-1)
	case keymap.Matches(k, v.keys.Down):
		v.scroll(1)
	case keymap.Matches(k, v.keys.Back):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} }
	}
	return nil
}

func (v *View) scroll(step int) {
	v.offset = max(min(v.offset+step, len(v.spans)-v.rows()), 0)
}

// rows is how many spans fit on screen.
func (v *View) rows() int { return max(v.height-chrome, 1) }

func (v *View) fields() []field {
	rec := v.image
	out := []field{{"Path", rec.Path}, {"Status", rec.Status.String()}}
	if rec.Engine != "" {
		out = append(out, field{"Engine", rec.Engine})
	}
	if rec.Width > 0 {
		out = append(out, field{"Size", fmt.Sprintf("%dx%d", rec.Width, rec.Height)})
	}
	if !rec.ProcessedAt.IsZero() {
		out = append(out, field{"Processed", rec.ProcessedAt.Local().Format(time.DateTime)})
	}
	if rec.Error != "" {
		out = append(out, field{"Error", rec.Error})
	}
	return out
}

// View renders the record then the visible spans.
func (v *View) View() string {
	title := "Photo"
	if v.image != nil {
		title = v.image.Name
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(title) + "\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)) + "\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: "+v.err.Error()) + "\n")
	case v.image == nil:
		b.WriteString(v.styles.Muted.Render("No photo selected") + "\n")
	default:
		v.writeRecord(&b)
	}

	b.WriteString("\n" + v.styles.Help.Render("[↑/↓] scroll  [esc] back"))
	return b.String()
}

func (v *View) writeRecord(b *strings.Builder) {
	for _, f := range v.fields() {
		fmt.Fprintf(b, "%s %s\n",
			v.styles.Subtitle.Render(fmt.Sprintf("%-10s", f.label+":")), v.styles.Normal.Render(f.value))
	}

	header := fmt.Sprintf("Text (%d spans)", len(v.spans))
	if v.loading {
		header += "  loading..."
	}
	b.WriteString("\n" + v.styles.Subtitle.Render(header) + "\n")

	end := min(v.offset+v.rows(), len(v.spans))
	for i := v.offset; i < end; i++ {
		b.WriteString(v.span(&v.spans[i]) + "\n")
	}
	if len(v.spans) > v.rows() {
		pos := fmt.Sprintf("  [Span %d-%d of %d]", v.offset+1, end, len(v.spans))
		b.WriteString(v.styles.Muted.Render(pos) + "\n")
	}
}

// span is one line: match marker, confidence, text and pixel region.
func (v *View) span(sp *domain.TextSpan) string {
	marker, style := "  ", v.styles.Normal
	if v.matched[sp.ID] {
		marker, style = "* ", v.styles.Match
	}
	conf := v.styles.Confidence(sp.Confidence).Render(fmt.Sprintf("%3.0f%%", sp.Confidence*100))
	r := sp.Region
	region := v.styles.Muted.Render(fmt.Sprintf("[%d,%d %dx%d]", r.X, r.Y, r.Width, r.Height))
	return marker + conf + " " + style.Render(strings.Join(strings.Fields(sp.Text), " ")) + " " + region
}

// SetDimensions sets the area the view may draw in.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
}

// Image returns the photo on show.
func (v *View) Image() *domain.ImageRecord { return v.image }

// Spans returns the spans on show.
func (v *View) Spans() []domain.TextSpan { return v.spans }

// Loading reports whether the full span list is still being fetched.
func (v *View) Loading() bool { return v.loading }

// ScrollOffset returns the index of the first span drawn.
func (v *View) ScrollOffset() int { return v.offset }

func (v *View) Err() error { return v.err }
