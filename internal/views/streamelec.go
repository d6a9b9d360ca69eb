package views

import (
	"strings"

	"uems/internal/core"
)

const streamGraphsTab = "Electricity Graphs"

// kp is the usual kWh and power factor pair of a stream meter.
func kp(title, base string) core.HeaderGroup {
	return kpLabel(title, base, "kWh")
}

func kpLabel(title, base, kwh string) core.HeaderGroup {
	return group(title, col(base+"_kwh", kwh), col(base+"_pf", "PF"))
}

func total(key string) core.HeaderGroup {
	return group("Total", col(key, "kWh"))
}

func periodGroups(groups ...core.HeaderGroup) []core.HeaderGroup {
	return append([]core.HeaderGroup{
		spanning("Month", "meter_reading_month"),
		spanning("Year", "meter_reading_year"),
	}, groups...)
}

// seriesList parses "key|label|color" triples.
func seriesList(specs ...string) []core.Series {
	out := make([]core.Series, len(specs))
	for i, s := range specs {
		parts := strings.SplitN(s, "|", 3)
		out[i] = core.Series{Key: parts[0], Label: parts[1], Color: parts[2]}
	}
	return out
}

type streamCategory struct {
	id     string
	tab    string
	title  string
	total  string
	groups []core.HeaderGroup
	series []core.Series
}

func (c streamCategory) path() string {
	return "/api/stream-elec/" + c.id
}

var streamCategories = []streamCategory{
	{
		id: "ring-mains", tab: "Ring Mains", title: "Ring Mains Stream", total: "ring_mains_total_kwh",
		groups: periodGroups(
			kp("Ring Main #1 MP4889", "ring_main_1_mp4889"),
			kp("Ring Main #2", "ring_main_2"),
			kp("Ring Main #3", "ring_main_3"),
			total("ring_mains_total_kwh"),
		),
		series: seriesList(
			"ring_main_1_mp4889_kwh|Ring Main #1 MP4889|#0066cc",
			"ring_main_2_kwh|Ring Main #2|#00cc66",
			"ring_main_3_kwh|Ring Main #3|#cc6600",
			"ring_mains_total_kwh|Total|#ff0000",
		),
	},
	{
		id: "libraries", tab: "Libraries", title: "Libraries Stream", total: "libraries_total_kwh",
		groups: periodGroups(
			kp("E902 Hocken Library", "hocken_library"),
			kp("F813 UOCOE Robertson Library", "robertson_library"),
			group("F813 Bill Robertson Library", col("bill_robertson_library_msb", "MSB")),
			group("D203 Sayers", col("sayers_adams_msb", "Adams MSB")),
			group("F419 ISB West", col("isb_west_excluding_shops", "Excluding Shops")),
			group("F505 Richardson Library", col("richardson_library_block_rising_main", "Block Rising Main")),
			total("libraries_total_kwh"),
		),
		series: seriesList(
			"hocken_library_kwh|Hocken Library|#0066cc",
			"robertson_library_kwh|UOCOE Robertson Library|#00cc66",
			"bill_robertson_library_msb|Bill Robertson Library MSB|#ff9900",
			"sayers_adams_msb|Sayers Adams MSB|#9933cc",
			"isb_west_excluding_shops|ISB West|#ff6666",
			"richardson_library_block_rising_main|Richardson Library|#66ccff",
			"libraries_total_kwh|Total|#ff0000",
		),
	},
	{
		id: "colleges", tab: "Colleges", title: "Colleges Stream", total: "colleges_total_kwh",
		groups: periodGroups(
			kp("C405 192 Castle College", "castle_college"),
			kp("D402 Hayward College", "hayward_college"),
			kp("D40X Cumberland College", "cumberland_college"),
			kp("F711 Executive Residence", "executive_residence"),
			kp("F812 UOCOE Owheo Building", "owheo_building"),
			kp("G608 St Margarets College", "st_margarets_college"),
			kpLabel("H41X Selwyn College", "selwyn_college", "kWh E2"),
			kp("H633 Arana College", "arana_college_main"),
			kpLabel("H71X Studholm College", "studholm_college", "kWh E2"),
			kp("J126 Carrington College", "carrington_college"),
			kp("J14X Aquinas College", "aquinas_college"),
			kp("J303 Caroline Freeman College", "caroline_freeman_college"),
			kp("K427 Abbey College", "abbey_college"),
			total("colleges_total_kwh"),
		),
		series: seriesList(
			"castle_college_kwh|Castle College|#1f77b4",
			"hayward_college_kwh|Hayward College|#ff7f0e",
			"cumberland_college_kwh|Cumberland College|#2ca02c",
			"executive_residence_kwh|Executive Residence|#d62728",
			"owheo_building_kwh|Owheo Building|#9467bd",
			"st_margarets_college_kwh|St Margarets College|#8c564b",
			"selwyn_college_kwh|Selwyn College|#e377c2",
			"arana_college_main_kwh|Arana College|#7f7f7f",
			"studholm_college_kwh|Studholm College|#bcbd22",
			"carrington_college_kwh|Carrington College|#17becf",
			"aquinas_college_kwh|Aquinas College|#aec7e8",
			"caroline_freeman_college_kwh|Caroline Freeman College|#ffbb78",
			"abbey_college_kwh|Abbey College|#98df8a",
			"colleges_total_kwh|Total|#ff0000",
		),
	},
	{
		id: "science", tab: "Science", title: "Science Stream", total: "science_total_kwh",
		groups: periodGroups(
			kp("D403 Survey & Marine", "survey_marine"),
			kp("E212 Zoology Buildings", "zoology_buildings"),
			kp("F315 Botany Tin Hut", "botany_tin_hut"),
			kp("F325 Physical Education", "physical_education"),
			kp("F812 UOCOE Owheo Building", "owheo_building"),
			kp("G401 Mellor Laboratories", "mellor_laboratories"),
			kp("G404 Microbiology", "microbiology"),
			kp("G413 Science 2", "science_2"),
			kp("J960 Portobello Marine Lab", "portobello_marine_lab"),
			group("G505 Geology", col("geology_north", "North"), col("geology_south", "South")),
			total("science_total_kwh"),
		),
		series: seriesList(
			"survey_marine_kwh|Survey Marine|#1f77b4",
			"zoology_buildings_kwh|Zoology Buildings|#ff7f0e",
			"botany_tin_hut_kwh|Botany Tin Hut|#2ca02c",
			"physical_education_kwh|Physical Education|#d62728",
			"owheo_building_kwh|Owheo Building|#9467bd",
			"mellor_laboratories_kwh|Mellor Laboratories|#8c564b",
			"microbiology_kwh|Microbiology|#e377c2",
			"science_2_kwh|Science 2|#7f7f7f",
			"portobello_marine_lab_kwh|Portobello Marine Lab|#bcbd22",
			"geology_north|Geology North|#17becf",
			"geology_south|Geology South|#aec7e8",
			"science_total_kwh|Total|#ff0000",
		),
	},
	{
		id: "health-science", tab: "Health Science", title: "Health Science Stream", total: "health_science_total_kwh",
		groups: periodGroups(
			kp("A161 Taieri Farm", "taieri_farm"),
			kp("D20X Med School Sub Main", "med_school_sub_main"),
			kp("E214 Otago Dental School", "dental_school"),
			kp("E301 Hunter Centre", "hunter_centre"),
			kp("E305 Physiotherapy", "physiotherapy"),
			kp("E325 Research Support Facility", "research_support_facility"),
			total("health_science_total_kwh"),
		),
		series: seriesList(
			"taieri_farm_kwh|Taieri Farm|#1f77b4",
			"med_school_sub_main_kwh|Medical School|#ff7f0e",
			"dental_school_kwh|Dental School|#2ca02c",
			"hunter_centre_kwh|Hunter Centre|#d62728",
			"physiotherapy_kwh|Physiotherapy|#9467bd",
			"research_support_facility_kwh|Research Support Facility|#8c564b",
			"health_science_total_kwh|Total|#ff0000",
		),
	},
	{
		id: "humanities", tab: "Humanities", title: "Humanities Stream", total: "humanities_total_kwh",
		groups: periodGroups(
			kp("F9XX College of Education main", "education_main_boiler_room"),
			group("F505 Richardson", col("richardson_mains", "Mains")),
			group("F518 Arts 1", col("arts_1_submains_msb", "Submains MSB")),
			group("Albany & Leith Walk", col("albany_leith_walk", "F516 97, F517 99 Albany, F513 262 Leith Walk")),
			group("G506/07 Archway", col("archway_buildings", "Buildings (incl. Allen & Marama Hall)")),
			total("humanities_total_kwh"),
		),
		series: seriesList(
			"education_main_boiler_room_kwh|Education Main|#1f77b4",
			"richardson_mains|Richardson Mains|#ff7f0e",
			"arts_1_submains_msb|Arts 1|#2ca02c",
			"albany_leith_walk|Albany & Leith Walk|#d62728",
			"archway_buildings|Archway Buildings|#9467bd",
			"humanities_total_kwh|Total|#ff0000",
		),
	},
	businessCategory("obs-psychology", "OBS Psychology", "OBS Psychology Stream", "obs_psychology_total_kwh"),
	{
		id: "total-stream", tab: "Total Stream", title: "Total Stream DN Electricity", total: "total_stream_dn_electricity_kwh",
		groups: periodGroups(
			kp("Ring Main #1 MP4889", "ring_main_1_mp4889"),
			kp("Ring Main #2", "ring_main_2"),
			kp("Ring Main #3", "ring_main_3"),
			kp("A161 Taieri Farm", "taieri_farm"),
			kp("C405 192 Castle College", "castle_college"),
			kp("D20X Med School Sub Main", "med_school_sub_main"),
			kp("D402 Hayward College", "hayward_college"),
			kp("D403 Survey & Marine", "survey_marine"),
			kp("D40X Cumberland College", "cumberland_college"),
			kp("E201 School of Dentistry", "school_of_dentistry"),
			kp("E212 Zoology Buildings", "zoology_buildings"),
			kp("E214 Otago Dental School", "dental_school"),
			kp("E301 Hunter Centre", "hunter_centre"),
			kp("E305 Physiotherapy", "physiotherapy"),
			kp("E308 Student Health", "student_health"),
			kp("E325 Research Support Facility", "research_support_facility"),
			kp("E902 Hocken Library", "hocken_library"),
			kp("F204 444 Great King Street", "great_king_street"),
			kp("F315 Botany Tin Hut", "botany_tin_hut"),
			kp("F325 Physical Education", "physical_education"),
			kp("F711 Executive Residence", "executive_residence"),
			kp("F812 UOCOE Owheo Building", "owheo_building"),
			kp("F813 UOCOE Robertson Library", "robertson_library"),
			kp("F940 Plaza Building", "plaza_building"),
			kp("F9XX College of Education main", "education_main_boiler_room"),
			kp("G401 Mellor Laboratories", "mellor_laboratories"),
			kp("G403 Biochemistry", "biochemistry"),
			kp("G404 Microbiology", "microbiology"),
			kp("G413 Science 2", "science_2"),
			kp("G608 St Margarets College", "st_margarets_college"),
			kp("G60X UNICOL", "unicol"),
			kpLabel("H41X Selwyn College", "selwyn_college", "kWh E2"),
			kp("H633 Arana College main", "arana_college_main"),
			kpLabel("H71X Studholm College", "studholm_college", "kWh E2"),
			kp("J126 Carrington College", "carrington_college"),
			kp("J14X Aquinas College", "aquinas_college"),
			kp("J303 Caroline Freeman College", "caroline_freeman_college"),
			kp("J960 Portobello Marine Lab", "portobello_marine_lab"),
			kp("K427 Abbey College", "abbey_college"),
			total("total_stream_dn_electricity_kwh"),
		),
		series: seriesList(
			"ring_main_1_mp4889_kwh|Ring Main #1 MP4889|#1f77b4",
			"ring_main_2_kwh|Ring Main #2|#ff7f0e",
			"ring_main_3_kwh|Ring Main #3|#2ca02c",
			"taieri_farm_kwh|Taieri Farm|#d62728",
			"castle_college_kwh|Castle College|#9467bd",
			"med_school_sub_main_kwh|Medical School|#8c564b",
			"hayward_college_kwh|Hayward College|#e377c2",
			"survey_marine_kwh|Survey Marine|#7f7f7f",
			"cumberland_college_kwh|Cumberland College|#bcbd22",
			"school_of_dentistry_kwh|School of Dentistry|#17becf",
			"zoology_buildings_kwh|Zoology Buildings|#aec7e8",
			"dental_school_kwh|Dental School|#ffbb78",
			"hunter_centre_kwh|Hunter Centre|#98df8a",
			"physiotherapy_kwh|Physiotherapy|#ff9896",
			"student_health_kwh|Student Health|#c5b0d5",
			"research_support_facility_kwh|Research Support Facility|#c49c94",
			"hocken_library_kwh|Hocken Library|#f7b6d2",
			"great_king_street_kwh|Great King Street|#c7c7c7",
			"botany_tin_hut_kwh|Botany Tin Hut|#dbdb8d",
			"physical_education_kwh|Physical Education|#9edae5",
			"executive_residence_kwh|Executive Residence|#393b79",
			"owheo_building_kwh|Owheo Building|#637939",
			"robertson_library_kwh|Robertson Library|#8c6d31",
			"plaza_building_kwh|Plaza Building|#843c39",
			"education_main_boiler_room_kwh|Education Main Boiler Room|#7b4173",
			"mellor_laboratories_kwh|Mellor Laboratories|#5254a3",
			"biochemistry_kwh|Biochemistry|#637939",
			"microbiology_kwh|Microbiology|#8c6d31",
			"science_2_kwh|Science 2|#bd9e39",
			"st_margarets_college_kwh|St Margarets College|#ad494a",
			"unicol_kwh|UNICOL|#a55194",
			"selwyn_college_kwh|Selwyn College|#6b6ecf",
			"arana_college_main_kwh|Arana College|#b5cf6b",
			"studholm_college_kwh|Studholm College|#e7ba52",
			"carrington_college_kwh|Carrington College|#d6616b",
			"aquinas_college_kwh|Aquinas College|#ce6dbd",
			"caroline_freeman_college_kwh|Caroline Freeman College|#9c9ede",
			"portobello_marine_lab_kwh|Portobello Marine Lab|#cedb9c",
			"abbey_college_kwh|Abbey College|#e7cb94",
			"total_stream_dn_electricity_kwh|Total|#ff0000",
		),
	},
	{
		id: "its-servers", tab: "ITS Servers", title: "ITS Servers Stream", total: "its_servers_total_kwh",
		groups: periodGroups(
			kp("F204 444 Great King Street", "great_king_street"),
			group("E305 325 Great King",
				col("great_king_main_meter", "Main Meter"),
				col("great_king_physiotherapy", "Physiotherapy")),
			total("its_servers_total_kwh"),
		),
		series: seriesList(
			"great_king_street_kwh|Great King Street|#1f77b4",
			"great_king_main_meter|Great King Main|#ff7f0e",
			"great_king_physiotherapy|Great King Physiotherapy|#2ca02c",
			"its_servers_total_kwh|Total|#ff0000",
		),
	},
	{
		id: "school-of-medicine", tab: "School of Medicine", title: "School of Medicine Stream",
		groups: periodGroups(
			kp("XC01 UoO School of Medicine ChCh", "school_of_medicine_chch"),
		),
		series: seriesList(
			"school_of_medicine_chch_kwh|School of Medicine ChCh|#1f77b4",
		),
	},
	businessCategory("commerce", "Commerce", "Commerce Stream", "commerce_total_kwh"),
}

// businessCategory covers the two categories sharing the business school
// and psychology meters.
func businessCategory(id, tab, title, totalKey string) streamCategory {
	return streamCategory{
		id: id, tab: tab, title: title, total: totalKey,
		groups: periodGroups(
			group("F614 School of Business",
				col("business_incomer_1_lower", "Incomer 1 (Lower floors)"),
				col("business_incomer_2_upper", "Incomer 2 (Upper floors)")),
			group("F618 Psychology", col("psychology_substation_goddard", "Substation - Goddard")),
			total(totalKey),
		),
		series: seriesList(
			"business_incomer_1_lower|Business Lower Floors|#1f77b4",
			"business_incomer_2_upper|Business Upper Floors|#ff7f0e",
			"psychology_substation_goddard|Psychology Goddard|#2ca02c",
			totalKey+"|Total|#ff0000",
		),
	}
}

// streamDivisions feed the Electricity Graphs tab.
var streamDivisions = []struct {
	category string
	label    string
	color    string
}{
	{"ring-mains", "Ring Mains", "#0066cc"},
	{"libraries", "Libraries", "#00cc66"},
	{"colleges", "Colleges", "#cc6600"},
	{"science", "Science", "#9933cc"},
	{"health-science", "Health Science", "#ff6666"},
	{"humanities", "Humanities", "#66ccff"},
}

func streamCategoryByID(id string) streamCategory {
	for _, c := range streamCategories {
		if c.id == id {
			return c
		}
	}
	panic("views: unknown stream category " + id)
}

func streamLabel(r core.Row) string {
	return r.String("meter_reading_year") + "-" + r.String("meter_reading_month")
}

func periodKey(r core.Row) string {
	return r.String("meter_reading_year") + "|" + r.String("meter_reading_month")
}

// StreamElec is the stream electricity view. Every category is fetched in
// one batch; a failure anywhere fails the view.
func StreamElec() *View {
	v := &View{
		ID:          "stream-elec",
		Label:       "Stream Electricity",
		Title:       "Stream Electricity",
		FailureText: "Failed to fetch data. Please try again later.",
		Period: &Period{
			YearField:  "meter_reading_year",
			MonthField: "meter_reading_month",
			Years:      []int{2022, 2023, 2024, 2025, 2026, 2027},
			AllYears:   "All Years",
			AllMonths:  "All Months",
		},
	}
	for _, c := range streamCategories {
		c := c
		v.Tables = append(v.Tables, &Table{
			ID:       c.id,
			Tab:      c.tab,
			Title:    c.title,
			Endpoint: c.path(),
			Groups:   c.groups,
			Format:   core.FormatTrimmed,
		})
		v.Charts = append(v.Charts, &Chart{
			ID:      c.id,
			Tab:     c.tab,
			Title:   c.title,
			Kind:    core.ChartLine,
			YLabel:  "kWh",
			Sources: []string{c.path()},
			Build: func(in Inputs) (core.ChartData, error) {
				return core.ByColumn(in.Rows[c.path()], streamLabel, c.series, core.PointOptions{ZeroAsGap: true}), nil
			},
		})
	}

	var divisionSources []string
	for _, d := range streamDivisions {
		divisionSources = append(divisionSources, streamCategoryByID(d.category).path())
	}
	v.Charts = append(v.Charts,
		&Chart{
			ID:      "divisions",
			Tab:     streamGraphsTab,
			Title:   "Electricity Consumption by Division",
			Kind:    core.ChartLine,
			YLabel:  "kWh",
			Sources: divisionSources,
			Build:   buildStreamDivisions,
		},
		&Chart{
			ID:      "division-share",
			Tab:     streamGraphsTab,
			Title:   "Total Consumption by Division",
			Kind:    core.ChartPie,
			Sources: divisionSources,
			Build:   buildStreamDivisionShare,
		},
	)
	return v
}

// buildStreamDivisions joins each division total onto the ring mains
// periods by year and month.
func buildStreamDivisions(in Inputs) (core.ChartData, error) {
	base := in.Rows[streamCategoryByID("ring-mains").path()]
	cd := core.ChartData{Kind: core.ChartLine, Labels: make([]string, len(base))}
	for i, r := range base {
		cd.Labels[i] = streamLabel(r)
	}
	for _, d := range streamDivisions {
		c := streamCategoryByID(d.category)
		byPeriod := make(map[string]core.Row)
		for _, r := range in.Rows[c.path()] {
			if _, dup := byPeriod[periodKey(r)]; !dup {
				byPeriod[periodKey(r)] = r
			}
		}
		ds := core.Dataset{Label: d.label, Color: d.color, Values: make([]*float64, len(base))}
		for i, r := range base {
			if match, ok := byPeriod[periodKey(r)]; ok {
				if n, ok := core.Coerce(match[c.total]); ok && n != 0 {
					v := core.Round2(n)
					ds.Values[i] = &v
				}
			}
		}
		cd.Datasets = append(cd.Datasets, ds)
	}
	return cd, nil
}

func buildStreamDivisionShare(in Inputs) (core.ChartData, error) {
	labels := make([]string, len(streamDivisions))
	values := make([]float64, len(streamDivisions))
	colors := make([]string, len(streamDivisions))
	for i, d := range streamDivisions {
		c := streamCategoryByID(d.category)
		for _, r := range in.Rows[c.path()] {
			if n, ok := core.Coerce(r[c.total]); ok {
				values[i] += n
			}
		}
		labels[i], colors[i] = d.label, d.color
	}
	return core.Pie(labels, values, colors), nil
}
