package core

// Series maps a data key to a display label and colour. For charts drawn
// by row the key is the entity name; by column it is a field key. Source
// names the table the series reads from when a chart spans tables.
type Series struct {
	Key    string
	Label  string
	Color  string
	Source string
}

// Dataset is one plotted series. Nil values are gaps.
type Dataset struct {
	Label  string     `json:"label"`
	Color  string     `json:"color"`
	Values []*float64 `json:"values"`
}

// ChartKind selects the renderer.
type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartBar  ChartKind = "bar"
	ChartPie  ChartKind = "pie"
)

// ChartData is the render-ready payload for one chart.
type ChartData struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Kind     ChartKind `json:"kind"`
	YLabel   string    `json:"y_label,omitempty"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
	// SliceColors colours each label of a pie chart.
	SliceColors []string `json:"slice_colors,omitempty"`
}

// Pie builds a single-dataset pie chart. Values are rounded like every
// other chart value.
func Pie(labels []string, values []float64, colors []string) ChartData {
	ds := Dataset{Values: make([]*float64, len(values))}
	for i, v := range values {
		r := Round2(v)
		ds.Values[i] = &r
	}
	return ChartData{
		Kind:        ChartPie,
		Labels:      append([]string(nil), labels...),
		Datasets:    []Dataset{ds},
		SliceColors: append([]string(nil), colors...),
	}
}

// PointOptions controls how raw values become points.
type PointOptions struct {
	// ZeroFill plots missing values as 0 instead of a gap.
	ZeroFill bool
	// ZeroAsGap treats 0 like a missing value.
	ZeroAsGap bool
	// Blank lists x keys whose values are always gaps.
	Blank map[string]struct{}
}

func (o PointOptions) point(key string, v any) *float64 {
	if _, blank := o.Blank[key]; blank {
		return nil
	}
	n, ok := Coerce(v)
	if ok && n == 0 && o.ZeroAsGap {
		ok = false
	}
	if !ok {
		if o.ZeroFill {
			zero := 0.0
			return &zero
		}
		return nil
	}
	r := Round2(n)
	return &r
}

// ByRow plots one dataset per named entity row across the x keys. Rows are
// found by exact match of nameField against Series.Key; a missing entity
// yields an empty (or zero-filled) dataset.
func ByRow(rows []Row, nameField string, series []Series, xKeys []string, opts PointOptions) ChartData {
	byName := make(map[string]Row, len(rows))
	for _, r := range rows {
		name := r.String(nameField)
		if _, dup := byName[name]; !dup {
			byName[name] = r
		}
	}
	cd := ChartData{Kind: ChartLine, Labels: make([]string, len(xKeys))}
	for i, k := range xKeys {
		cd.Labels[i] = SpaceLabel(k)
	}
	for _, s := range series {
		ds := Dataset{Label: s.Label, Color: s.Color, Values: make([]*float64, len(xKeys))}
		row := byName[s.Key]
		for i, k := range xKeys {
			var v any
			if row != nil {
				v = row[k]
			}
			ds.Values[i] = opts.point(k, v)
		}
		cd.Datasets = append(cd.Datasets, ds)
	}
	return cd
}

// ByColumn plots one dataset per field, one point per row. label names each
// row on the x axis.
func ByColumn(rows []Row, label func(Row) string, series []Series, opts PointOptions) ChartData {
	cd := ChartData{Kind: ChartLine, Labels: make([]string, len(rows))}
	for i, r := range rows {
		cd.Labels[i] = label(r)
	}
	for _, s := range series {
		ds := Dataset{Label: s.Label, Color: s.Color, Values: make([]*float64, len(rows))}
		for i, r := range rows {
			ds.Values[i] = opts.point(s.Key, r[s.Key])
		}
		cd.Datasets = append(cd.Datasets, ds)
	}
	return cd
}

// CompactGaps drops x positions where every dataset has a gap.
func (c ChartData) CompactGaps() ChartData {
	keep := make([]int, 0, len(c.Labels))
	for i := range c.Labels {
		for _, ds := range c.Datasets {
			if i < len(ds.Values) && ds.Values[i] != nil {
				keep = append(keep, i)
				break
			}
		}
	}
	out := c
	out.Labels = make([]string, len(keep))
	out.Datasets = make([]Dataset, len(c.Datasets))
	for j, i := range keep {
		out.Labels[j] = c.Labels[i]
	}
	for d, ds := range c.Datasets {
		vals := make([]*float64, len(keep))
		for j, i := range keep {
			vals[j] = ds.Values[i]
		}
		out.Datasets[d] = Dataset{Label: ds.Label, Color: ds.Color, Values: vals}
	}
	return out
}

// Empty reports whether the chart has nothing to plot.
func (c ChartData) Empty() bool {
	for _, ds := range c.Datasets {
		for _, v := range ds.Values {
			if v != nil {
				return false
			}
		}
	}
	return true
}
