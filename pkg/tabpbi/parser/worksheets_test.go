package parser

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
)

const tableauNamespace = "http://www.tableausoftware.com/xml/user"

const workbookTemplate = `<workbook%s version='18.1'>
  <datasources>
    <datasource caption='Orders' name='federated.0abc'>
      <connection class='federated'>
        <named-connections>
          <named-connection name='textscan.1'>
            <connection class='textscan' directory='.' filename='Data/Orders.csv' />
          </named-connection>
        </named-connections>
        <relation name='Orders' table='[Orders#csv]' type='table' />
      </connection>
      <column caption='Profit Ratio' datatype='real' name='[Calculation_123]' role='measure' type='quantitative'>
        <calculation class='tableau' formula='SUM([Profit])/SUM([Sales])' />
      </column>
    </datasource>
  </datasources>
  <worksheets>
    <worksheet name='Box Sheet'>
      <table>
        <view>
          <datasources>
            <datasource caption='Orders' name='federated.0abc' />
          </datasources>
          <datasource-dependencies datasource='federated.0abc'>
            <column name='[Calculation_123]' role='measure' />
          </datasource-dependencies>
          <filter class='categorical' column='[federated.0abc].[none:Region:nk]' />
        </view>
        <panes>
          <pane>
            <mark class='Gantt Bar' />
            <encodings>
              <lod column='[federated.0abc].[none:Customer Name:nk]' />
            </encodings>
            <reference-line boxplot-whisker-type='standard' id='refline0' />
          </pane>
        </panes>
        <rows>[federated.0abc].[sum:Sales:qk]</rows>
        <cols>[federated.0abc].[none:Region:nk]</cols>
      </table>
    </worksheet>
    <worksheet name='Bullet Sheet'>
      <table>
        <panes>
          <pane id='1' x-axis-name='[federated.0abc].[sum:Sales:qk]'>
            <mark class='Bar' />
            <encodings>
              <color column='[federated.0abc].[sum:Profit:qk]' />
            </encodings>
          </pane>
          <pane id='2' x-axis-name='[federated.0abc].[sum:Quantity:qk]'>
            <mark class='bar' />
            <encodings>
              <text column='[federated.0abc].[sum:Sales:qk]' />
            </encodings>
          </pane>
        </panes>
        <rows>[federated.0abc].[none:Category:nk]</rows>
        <cols>([federated.0abc].[sum:Sales:qk] + [federated.0abc].[sum:Quantity:qk])</cols>
      </table>
    </worksheet>
    <worksheet name='Single Bar'>
      <table>
        <panes>
          <pane>
            <mark class='Bar' />
            <encodings>
              <color column='[federated.0abc].[none:Segment:nk]' />
            </encodings>
          </pane>
        </panes>
        <rows>[federated.0abc].[none:Segment:nk]</rows>
        <cols>[federated.0abc].[sum:Sales:qk]</cols>
      </table>
    </worksheet>
  </worksheets>
  <dashboards>
    <dashboard name='Main'>
      <zones>
        <zone h='100000' id='1' w='100000' x='0' y='0'>
          <zone h='50000' id='3' name='Box Sheet' w='50000' x='10000' y='10000' />
          <zone h='50000' id='4' name='Bullet Sheet' w='40000' x='60000' y='10000' />
          <zone h='50000' id='5' name='Box Sheet' w='50000' x='10000' y='10000' />
          <zone h='20000' id='6' name='Single Bar' w='20000' x='0' y='70000' />
        </zone>
      </zones>
    </dashboard>
  </dashboards>
</workbook>`

func parseFixture(t *testing.T, namespace string) *Document {
	t.Helper()
	attr := ""
	if namespace != "" {
		attr = fmt.Sprintf(" xmlns='%s'", namespace)
	}
	doc, err := ParseDocument(strings.NewReader(fmt.Sprintf(workbookTemplate, attr)))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	return doc
}

func findWorksheet(t *testing.T, doc *Document, name string) *Element {
	t.Helper()
	for _, ws := range doc.FindAll(doc.Root, "worksheet") {
		if ws.Get("name") == name {
			return ws
		}
	}
	t.Fatalf("worksheet %q not found", name)
	return nil
}

func TestParseDocumentNamespace(t *testing.T) {
	plain := parseFixture(t, "")
	if plain.Namespace != "" {
		t.Errorf("Namespace = %q, expected empty", plain.Namespace)
	}

	ns := parseFixture(t, tableauNamespace)
	if ns.Namespace != tableauNamespace {
		t.Errorf("Namespace = %q, expected %q", ns.Namespace, tableauNamespace)
	}
}

func TestParseDocumentMalformed(t *testing.T) {
	tests := []string{
		"",
		"<workbook><worksheets></workbook>",
		"not xml at all <",
	}

	for _, input := range tests {
		_, err := ParseDocument(strings.NewReader(input))
		if !errors.Is(err, ErrMalformedDocument) {
			t.Errorf("ParseDocument(%q) error = %v, expected ErrMalformedDocument", input, err)
		}
	}
}

func TestClassifyBoxWhisker(t *testing.T) {
	doc := parseFixture(t, "")

	records := ClassifyBoxWhisker(doc, findWorksheet(t, doc, "Box Sheet"))
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.ChartType != models.ChartBoxWhisker {
		t.Errorf("ChartType = %q", rec.ChartType)
	}
	if rec.MarkType.First() != "Gantt Bar" {
		t.Errorf("MarkType = %v, expected Gantt Bar", rec.MarkType)
	}
	if rec.XAxis.First() != "Region" || rec.YAxis.First() != "Sales" {
		t.Errorf("axes = (%v, %v), expected (Region, Sales)", rec.XAxis, rec.YAxis)
	}
	if rec.Detail.First() != "Customer Name" {
		t.Errorf("Detail = %v, expected Customer Name", rec.Detail)
	}
	if !rec.Color.IsEmpty() || !rec.Text.IsEmpty() || !rec.Size.IsEmpty() {
		t.Errorf("unexpected encodings: color=%v text=%v size=%v", rec.Color, rec.Text, rec.Size)
	}
	if !reflect.DeepEqual(rec.Measures, []string{"Sum(Sales)"}) {
		t.Errorf("Measures = %v", rec.Measures)
	}
	if !reflect.DeepEqual(rec.Datasources, []string{"federated.0abc"}) {
		t.Errorf("Datasources = %v", rec.Datasources)
	}

	if got := ClassifyBoxWhisker(doc, findWorksheet(t, doc, "Bullet Sheet")); len(got) != 0 {
		t.Errorf("Bullet Sheet classified as box-and-whisker: %v", got)
	}
}

func TestClassifyBulletStrategies(t *testing.T) {
	doc := parseFixture(t, "")

	tests := []struct {
		worksheet string
		strategy  BulletStrategy
		expected  int
	}{
		{"Bullet Sheet", BulletDualPane, 1},
		{"Bullet Sheet", BulletSinglePane, 2},
		{"Single Bar", BulletDualPane, 0},
		{"Single Bar", BulletSinglePane, 1},
		{"Box Sheet", BulletDualPane, 0},
		{"Box Sheet", BulletSinglePane, 0},
	}

	for _, tt := range tests {
		records := ClassifyBullet(doc, findWorksheet(t, doc, tt.worksheet), tt.strategy)
		if len(records) != tt.expected {
			t.Errorf("ClassifyBullet(%q, %s) = %d records, expected %d",
				tt.worksheet, tt.strategy, len(records), tt.expected)
		}
	}
}

func TestClassifyBulletPaneAxes(t *testing.T) {
	doc := parseFixture(t, "")

	records := ClassifyBullet(doc, findWorksheet(t, doc, "Bullet Sheet"), BulletSinglePane)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].XAxis.First() != "Sales" || records[1].XAxis.First() != "Quantity" {
		t.Errorf("pane x axes = (%v, %v), expected (Sales, Quantity)", records[0].XAxis, records[1].XAxis)
	}
	if records[0].YAxis.First() != "Category" {
		t.Errorf("YAxis = %v, expected shelf fallback Category", records[0].YAxis)
	}
	if records[0].Color.First() != "Profit" || records[1].Text.First() != "Sales" {
		t.Errorf("encodings = (%v, %v)", records[0].Color, records[1].Text)
	}
	// mark class is kept as written
	if records[1].MarkType.First() != "bar" {
		t.Errorf("MarkType = %v, expected bar", records[1].MarkType)
	}
}

func TestExtractCharts(t *testing.T) {
	doc := parseFixture(t, "")
	set := ExtractCharts(doc, MergeCollect, DefaultCanvas())

	if len(set.Charts) != 3 {
		t.Fatalf("Expected 3 charts, got %d: %+v", len(set.Charts), set.Charts)
	}

	expectedKeys := []models.Key{
		{Worksheet: "Box Sheet", ChartType: models.ChartBoxWhisker},
		{Worksheet: "Bullet Sheet", ChartType: models.ChartBullet},
		{Worksheet: "Single Bar", ChartType: models.ChartBullet},
	}
	for i, key := range expectedKeys {
		if set.Charts[i].Key() != key {
			t.Errorf("Charts[%d].Key() = %v, expected %v", i, set.Charts[i].Key(), key)
		}
	}

	bullet := set.Charts[1]
	if !reflect.DeepEqual([]string(bullet.XAxis), []string{"Sales", "Quantity"}) {
		t.Errorf("merged XAxis = %v", bullet.XAxis)
	}
	if !reflect.DeepEqual([]string(bullet.MarkType), []string{"Bar", "bar"}) {
		t.Errorf("merged MarkType = %v", bullet.MarkType)
	}
	if !reflect.DeepEqual(bullet.Measures, []string{"Sum(Sales)", "Sum(Profit)", "Sum(Quantity)"}) {
		t.Errorf("merged Measures = %v", bullet.Measures)
	}

	// Single Bar fails the dual-pane strategy, so it gets no position.
	expectedPositions := []models.PositionRecord{
		{Dashboard: "Main", Worksheet: "Box Sheet", X: 128, Y: 72, W: 640, H: 360},
		{Dashboard: "Main", Worksheet: "Bullet Sheet", X: 768, Y: 72, W: 512, H: 360},
	}
	if !reflect.DeepEqual(set.Positions, expectedPositions) {
		t.Errorf("Positions = %+v, expected %+v", set.Positions, expectedPositions)
	}
}

func TestExtractChartsNamespaceEquivalence(t *testing.T) {
	plain := ExtractCharts(parseFixture(t, ""), MergeCollect, DefaultCanvas())
	ns := ExtractCharts(parseFixture(t, tableauNamespace), MergeCollect, DefaultCanvas())

	if !reflect.DeepEqual(plain, ns) {
		t.Errorf("namespace-free and namespaced results differ:\n%+v\n%+v", plain, ns)
	}

	plainData := ExtractData(parseFixture(t, ""))
	nsData := ExtractData(parseFixture(t, tableauNamespace))
	if !reflect.DeepEqual(plainData, nsData) {
		t.Errorf("extracted data differs:\n%+v\n%+v", plainData, nsData)
	}
}

func TestExtractChartsBoxScenario(t *testing.T) {
	xml := `<workbook>
  <worksheets>
    <worksheet name='Sheet 1'>
      <table>
        <panes>
          <pane>
            <mark class='Gantt Bar' />
            <reference-line boxplot-whisker-type='standard' />
          </pane>
        </panes>
        <rows>[federated.1].[sum:Sales:qk]</rows>
        <cols>[federated.1].[none:Segment:nk]</cols>
      </table>
    </worksheet>
  </worksheets>
  <dashboards>
    <dashboard name='Dashboard 1'>
      <zones>
        <zone name='Sheet 1' x='10000' y='10000' w='50000' h='50000' />
      </zones>
    </dashboard>
  </dashboards>
</workbook>`

	doc, err := ParseDocument(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	set := ExtractCharts(doc, MergeFirstWins, DefaultCanvas())
	if len(set.Charts) != 1 || set.Charts[0].ChartType != models.ChartBoxWhisker {
		t.Fatalf("Expected one box-and-whisker chart, got %+v", set.Charts)
	}
	if len(set.Positions) != 1 {
		t.Fatalf("Expected one position, got %+v", set.Positions)
	}

	pos := set.Positions[0]
	if pos.X != 128 || pos.Y != 72 || pos.W != 640 || pos.H != 360 {
		t.Errorf("position = (%v, %v, %v, %v), expected (128, 72, 640, 360)", pos.X, pos.Y, pos.W, pos.H)
	}
}

func TestExtractPositionsDefaults(t *testing.T) {
	xml := `<workbook><dashboards><dashboard name='D'><zones>
  <zone name='A' x='abc' />
  <zone name='B' x='50000' y='50000' w='50000' h='50000' />
</zones></dashboard></dashboards></workbook>`

	doc, err := ParseDocument(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	positions := ExtractPositions(doc, map[string]bool{"A": true}, DefaultCanvas())
	expected := []models.PositionRecord{{Dashboard: "D", Worksheet: "A"}}
	if !reflect.DeepEqual(positions, expected) {
		t.Errorf("ExtractPositions = %+v, expected %+v", positions, expected)
	}
}
