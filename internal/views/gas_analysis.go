package views

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"uems/internal/core"
)

const gasAnalysisTab = "Data Insight and Analysis"

// NoAnalysisText is shown when the analysis document is missing or empty.
const NoAnalysisText = "No analysis data available. Please ensure the data is properly loaded."

const gasAnalysisIntro = "Based on the automated meter readings available through November 2024, " +
	"comprehensive data analysis and visualization have been performed. Missing records were " +
	"handled through statistical imputation to ensure data continuity and reliability. The " +
	"following insights are derived from this processed dataset, focusing on consumption " +
	"patterns, cluster analysis, and significant consumption changes."

var (
	clusterColors    = []string{"#8884d8", "#82ca9d", "#ffc658", "#ff7300"}
	clusterMonths    = core.MonthRange("Jan_2022", "Nov_2024")
	collegeYears     = []string{"2022", "2023", "2024"}
	collegeYearColor = map[string]string{"2022": "#4394E5", "2023": "#87BB62", "2024": "#876FD4"}
)

// ErrNoAnalysis reports an analysis document without content.
var ErrNoAnalysis = errors.New("no analysis data")

// textValue accepts both JSON strings and numbers.
type textValue string

func (t *textValue) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = textValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*t = textValue(n.String())
	return nil
}

type GasCluster struct {
	ClusterID int      `json:"cluster_id"`
	Meters    []string `json:"meters"`
	Size      int      `json:"size"`
}

type GasPattern struct {
	ClusterID          int                 `json:"cluster_id"`
	ConsumptionPattern map[string]*float64 `json:"consumption_pattern"`
}

type GasAnomaly struct {
	Meter         string    `json:"meter"`
	Year          textValue `json:"year"`
	Value         float64   `json:"value"`
	PreviousValue float64   `json:"previous_value"`
	PercentChange float64   `json:"percent_change"`
}

type GasAnomalyAnalysis struct {
	Anomalies []GasAnomaly `json:"anomalies"`
	Threshold float64      `json:"threshold"`
}

// CollegeConsumption is one college with its yearly totals keyed by year.
type CollegeConsumption struct {
	Name  string
	Years map[string]*float64
}

func (c *CollegeConsumption) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.Years = make(map[string]*float64)
	for k, v := range raw {
		if k == "name" {
			var name textValue
			if err := json.Unmarshal(v, &name); err != nil {
				return fmt.Errorf("college name: %w", err)
			}
			c.Name = string(name)
			continue
		}
		var n *float64
		if err := json.Unmarshal(v, &n); err != nil {
			continue
		}
		c.Years[k] = n
	}
	return nil
}

// GasAnalysis is the precomputed analysis document served by the API.
type GasAnalysis struct {
	ClusterResults      []GasCluster         `json:"cluster_results"`
	ConsumptionPatterns []GasPattern         `json:"consumption_patterns"`
	AnomalyAnalysis     GasAnomalyAnalysis   `json:"anomaly_analysis"`
	CollegeConsumption  []CollegeConsumption `json:"college_consumption"`
}

// DecodeGasAnalysis parses an analysis document. null and {} give
// ErrNoAnalysis.
func DecodeGasAnalysis(body []byte) (*GasAnalysis, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrNoAnalysis
	}
	var a GasAnalysis
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return nil, fmt.Errorf("decode gas analysis: %w", err)
	}
	if len(a.ClusterResults) == 0 && len(a.ConsumptionPatterns) == 0 &&
		len(a.AnomalyAnalysis.Anomalies) == 0 && len(a.CollegeConsumption) == 0 {
		return nil, ErrNoAnalysis
	}
	return &a, nil
}

type ClusterModel struct {
	Name   string
	Size   int
	Meters []string
}

type AnomalyRow struct {
	Year     string
	Value    string
	Previous string
	Change   string
	Class    string
}

type AnomalyGroup struct {
	Meter string
	Rows  []AnomalyRow
}

// AnalysisModel is the analysis section ready for a template.
type AnalysisModel struct {
	Title     string
	Intro     string
	Clusters  []ClusterModel
	Threshold string
	Anomalies []AnomalyGroup
}

// BuildAnalysis shapes the analysis document for display. Anomalies are
// grouped by meter in order of first appearance.
func BuildAnalysis(title string, a *GasAnalysis) AnalysisModel {
	m := AnalysisModel{
		Title:     title,
		Intro:     gasAnalysisIntro,
		Threshold: core.TrimZeros(core.Fixed(a.AnomalyAnalysis.Threshold, 2)),
	}
	for _, c := range a.ClusterResults {
		m.Clusters = append(m.Clusters, ClusterModel{
			Name:   clusterName(c.ClusterID),
			Size:   c.Size,
			Meters: c.Meters,
		})
	}

	index := make(map[string]int)
	for _, an := range a.AnomalyAnalysis.Anomalies {
		i, ok := index[an.Meter]
		if !ok {
			i = len(m.Anomalies)
			index[an.Meter] = i
			m.Anomalies = append(m.Anomalies, AnomalyGroup{Meter: an.Meter})
		}
		m.Anomalies[i].Rows = append(m.Anomalies[i].Rows, AnomalyRow{
			Year:     string(an.Year),
			Value:    core.Grouped(an.Value, 2),
			Previous: core.Grouped(an.PreviousValue, 2),
			Change:   core.FormatPercentChange(an.PercentChange),
			Class:    changeClass(an.PercentChange, a.AnomalyAnalysis.Threshold),
		})
	}
	return m
}

func clusterName(id int) string {
	return "Cluster " + strconv.Itoa(id+1)
}

// changeClass colours increases red and decreases green. Changes beyond the
// threshold are marked significant.
func changeClass(pct, threshold float64) string {
	class := "change-down"
	if pct > 0 {
		class = "change-up"
	}
	if math.Abs(pct) > threshold {
		class += " significant"
	}
	return class
}

func analysisDoc(in Inputs) (*GasAnalysis, error) {
	return DecodeGasAnalysis(in.Docs[gasAnalysisPath])
}

func buildClusterPatterns(in Inputs) (core.ChartData, error) {
	a, err := analysisDoc(in)
	if err != nil {
		return core.ChartData{}, err
	}
	cd := core.ChartData{Kind: core.ChartLine, Labels: make([]string, len(clusterMonths))}
	for i, k := range clusterMonths {
		cd.Labels[i] = core.SpaceLabel(k)
	}
	for i, p := range a.ConsumptionPatterns {
		ds := core.Dataset{
			Label:  clusterName(p.ClusterID),
			Color:  clusterColors[i%len(clusterColors)],
			Values: make([]*float64, len(clusterMonths)),
		}
		for j, k := range clusterMonths {
			if v := p.ConsumptionPattern[k]; v != nil {
				r := core.Round2(*v)
				ds.Values[j] = &r
			}
		}
		cd.Datasets = append(cd.Datasets, ds)
	}
	return cd, nil
}

func buildCollegeComparison(in Inputs) (core.ChartData, error) {
	a, err := analysisDoc(in)
	if err != nil {
		return core.ChartData{}, err
	}
	cd := core.ChartData{Kind: core.ChartBar, Labels: make([]string, len(a.CollegeConsumption))}
	for i, c := range a.CollegeConsumption {
		cd.Labels[i] = c.Name
	}
	for _, y := range collegeYears {
		ds := core.Dataset{Label: y, Color: collegeYearColor[y], Values: make([]*float64, len(a.CollegeConsumption))}
		for i, c := range a.CollegeConsumption {
			if v := c.Years[y]; v != nil {
				r := core.Round2(*v)
				ds.Values[i] = &r
			}
		}
		cd.Datasets = append(cd.Datasets, ds)
	}
	return cd, nil
}
