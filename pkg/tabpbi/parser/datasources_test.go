package parser

import (
	"reflect"
	"testing"

	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

func TestExtractDataSources(t *testing.T) {
	doc := parseFixture(t, "")

	sources := ExtractDataSources(doc)
	expected := []models.DataSource{
		{Name: "federated.0abc", Caption: "Orders", Tables: []string{"Orders"}, Files: []string{"Orders"}},
	}
	if !reflect.DeepEqual(sources, expected) {
		t.Errorf("ExtractDataSources = %+v, expected %+v", sources, expected)
	}
}

func TestExtractReferences(t *testing.T) {
	doc := parseFixture(t, "")

	refs, stems := ExtractReferences(doc)
	expected := []models.Reference{{
		DataSource:        "Orders",
		ConnectionType:    "textscan",
		DatabaseName:      "N/A",
		ExternalReference: "Data/Orders.csv",
	}}
	if !reflect.DeepEqual(refs, expected) {
		t.Errorf("ExtractReferences = %+v, expected %+v", refs, expected)
	}
	if stems["federated.0abc"] != "Orders" {
		t.Errorf("stems = %v", stems)
	}
}

func TestExtractCalculations(t *testing.T) {
	doc := parseFixture(t, "")

	calcs, usage := ExtractCalculations(doc, map[string]string{"federated.0abc": "Orders"})
	calc, ok := calcs["[Calculation_123]"]
	if !ok {
		t.Fatalf("calculation not found: %v", calcs)
	}
	if calc.FieldName != "Profit Ratio" || calc.Formula != "SUM([Profit])/SUM([Sales])" || calc.DataSource != "Orders" {
		t.Errorf("calculation = %+v", calc)
	}

	expected := []models.CalculationUsage{{
		Worksheet:   "Box Sheet",
		Calculation: "[Calculation_123]",
		FieldName:   "Profit Ratio",
		DataSource:  "Orders",
	}}
	if !reflect.DeepEqual(usage, expected) {
		t.Errorf("usage = %+v, expected %+v", usage, expected)
	}
}

func TestExtractVisuals(t *testing.T) {
	doc := parseFixture(t, "")

	visuals := ExtractVisuals(doc)
	if len(visuals) != 4 {
		t.Fatalf("Expected 4 visuals, got %d", len(visuals))
	}

	box := visuals[0]
	if box.Type != "Worksheet" || box.Source != "Box Sheet" {
		t.Errorf("visuals[0] = %+v", box)
	}
	if box.Rows != "[federated.0abc].[sum:Sales:qk]" {
		t.Errorf("Rows = %q", box.Rows)
	}
	if box.Columns != "[federated.0abc].[none:Region:nk], [federated.0abc].[none:Customer Name:nk]" {
		t.Errorf("Columns = %q", box.Columns)
	}
	if box.Filters != "[federated.0abc].[none:Region:nk]" {
		t.Errorf("Filters = %q", box.Filters)
	}

	dash := visuals[3]
	if dash.Type != "Dashboard" || dash.Source != "Main" {
		t.Errorf("visuals[3] = %+v", dash)
	}
	if dash.Worksheets != "Box Sheet, Bullet Sheet, Single Bar" {
		t.Errorf("Worksheets = %q", dash.Worksheets)
	}
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Data/Orders.csv", "Orders"},
		{`C:\Users\me\Sample - Superstore.xls`, "Sample - Superstore"},
		{"Data/Extracts/federated_1x.hyper", "federated_1x"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if result := fileStem(tt.input); result != tt.expected {
			t.Errorf("fileStem(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}
