package memory

import (
	"context"
	"sort"
	"sync"

	"uems/internal/sheets"
	"uems/internal/views"
)

// Publisher keeps published grids in memory. uemsctl uses it for dry runs.
type Publisher struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

var _ sheets.TablePublisher = (*Publisher)(nil)

func New() *Publisher {
	return &Publisher{sheets: make(map[string][][]string)}
}

// PublishTable replaces the sheet's content with the table grid.
func (p *Publisher) PublishTable(ctx context.Context, sheet string, m views.TableModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sheet == "" {
		sheet = sheets.SheetTitle(m)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sheets[sheet] = sheets.Grid(m)
	return nil
}

// Sheet returns a copy of the rows last published to sheet.
func (p *Publisher) Sheet(name string) ([][]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	grid, ok := p.sheets[name]
	if !ok {
		return nil, false
	}
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string(nil), row...)
	}
	return out, true
}

// Names lists the published sheets in sorted order.
func (p *Publisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.sheets))
	for n := range p.sheets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
