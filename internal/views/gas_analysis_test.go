package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analysisFixture = `{
  "cluster_results": [
    {"cluster_id": 0, "meters": ["ARANA", "AQUINAS"], "size": 2},
    {"cluster_id": 1, "meters": ["PLAZA"], "size": 1}
  ],
  "consumption_patterns": [
    {"cluster_id": 0, "consumption_pattern": {"Jan_2022": 1234.5678, "Feb_2022": null}}
  ],
  "anomaly_analysis": {
    "threshold": 50,
    "anomalies": [
      {"meter": "ARANA", "year": 2023, "value": 20000.5, "previous_value": 10000, "percent_change": 100.005},
      {"meter": "PLAZA", "year": "2023", "value": 90, "previous_value": 100, "percent_change": -10},
      {"meter": "ARANA", "year": 2024, "value": 15000, "previous_value": 20000.5, "percent_change": -25}
    ]
  },
  "college_consumption": [
    {"name": "Arana", "2022": 100.123, "2023": null, "2024": 300}
  ]
}`

func TestDecodeGasAnalysisEmpty(t *testing.T) {
	for _, body := range []string{"", "  ", "null", "{}", `{"cluster_results": []}`} {
		_, err := DecodeGasAnalysis([]byte(body))
		assert.ErrorIs(t, err, ErrNoAnalysis, "body %q", body)
	}

	_, err := DecodeGasAnalysis([]byte(`{"cluster_results": 5}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoAnalysis)
}

func TestBuildAnalysis(t *testing.T) {
	a, err := DecodeGasAnalysis([]byte(analysisFixture))
	require.NoError(t, err)

	m := BuildAnalysis("Gas Analysis", a)
	assert.Equal(t, "Gas Analysis", m.Title)
	assert.Equal(t, "50", m.Threshold)
	require.Len(t, m.Clusters, 2)
	assert.Equal(t, "Cluster 1", m.Clusters[0].Name)
	assert.Equal(t, []string{"ARANA", "AQUINAS"}, m.Clusters[0].Meters)

	require.Len(t, m.Anomalies, 2)
	arana := m.Anomalies[0]
	assert.Equal(t, "ARANA", arana.Meter)
	require.Len(t, arana.Rows, 2)
	assert.Equal(t, AnomalyRow{
		Year:     "2023",
		Value:    "20,000.5",
		Previous: "10,000",
		Change:   "+100.01%",
		Class:    "change-up significant",
	}, arana.Rows[0])
	assert.Equal(t, "change-down", arana.Rows[1].Class)
	assert.Equal(t, "2023", m.Anomalies[1].Rows[0].Year)
	assert.Equal(t, "-10.00%", m.Anomalies[1].Rows[0].Change)
}

func TestGasAnalysisCharts(t *testing.T) {
	in := Inputs{Docs: map[string][]byte{gasAnalysisPath: []byte(analysisFixture)}}

	cd, err := buildClusterPatterns(in)
	require.NoError(t, err)
	assert.Equal(t, "Jan 2022", cd.Labels[0])
	require.Len(t, cd.Datasets, 1)
	assert.Equal(t, "Cluster 1", cd.Datasets[0].Label)
	assert.Equal(t, 1234.57, *cd.Datasets[0].Values[0])
	assert.Nil(t, cd.Datasets[0].Values[1])

	cd, err = buildCollegeComparison(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arana"}, cd.Labels)
	require.Len(t, cd.Datasets, 3)
	assert.Equal(t, 100.12, *cd.Datasets[0].Values[0])
	assert.Nil(t, cd.Datasets[1].Values[0])
	assert.Equal(t, "#876FD4", cd.Datasets[2].Color)
}
