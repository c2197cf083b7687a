package testsupport

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"ecomigrate/internal/config"
)

// Dataset describes one ecoSpold2 fixture. An empty Volume omits the
// production volume attribute.
type Dataset struct {
	Activity  string
	Geography string
	Product   string
	Unit      string
	Volume    string
}

// Flow describes one elementary exchange fixture.
type Flow struct {
	UUID    string
	Name    string
	Formula string
	Unit    string
}

// Sheet is a named grid of cell values; empty strings leave the cell blank.
type Sheet struct {
	Name string
	Rows [][]string
}

// WriteFile writes data below the config's base directory, creating parents.
func WriteFile(t testing.TB, cfg *config.Config, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(BaseDir(cfg), rel)
	mustWrite(t, path, data)
	return path
}

// WriteRelease lays out datasets and flows for version under the config's
// releases_dir using the configured system model.
func WriteRelease(t testing.TB, cfg *config.Config, version string, datasets []Dataset, flows []Flow) {
	t.Helper()
	model := cfg.Migration.SystemModel
	dir := cfg.DatasetsDir(version, model)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for i, ds := range datasets {
		mustWrite(t, filepath.Join(dir, fmt.Sprintf("%04d.spold", i)), datasetXML(ds))
	}
	if flows != nil {
		mustWrite(t, cfg.FlowsPath(version, model), flowsXML(flows))
	}
}

// WriteWorkbook saves an xlsx file with the given sheets.
func WriteWorkbook(t testing.TB, path string, sheets ...Sheet) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			t.Fatalf("new sheet %s: %v", sheet.Name, err)
		}
		for r, row := range sheet.Rows {
			for c, value := range row {
				if value == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatalf("cell name: %v", err)
				}
				if err := f.SetCellStr(sheet.Name, cell, value); err != nil {
					t.Fatalf("set %s!%s: %v", sheet.Name, cell, err)
				}
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook %s: %v", path, err)
	}
}

// ChangeReportPath returns the conventional change report location for a
// version pair inside reports_dir.
func ChangeReportPath(cfg *config.Config, source, target string) string {
	return filepath.Join(cfg.Paths.ReportsDir, fmt.Sprintf("Change Report Annex v%s - v%s.xlsx", source, target))
}

func mustWrite(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func datasetXML(ds Dataset) []byte {
	volume := ""
	if ds.Volume != "" {
		volume = fmt.Sprintf(` productionVolumeAmount="%s"`, escape(ds.Volume))
	}
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ecoSpold xmlns="http://www.EcoInvent.org/EcoSpold02">
  <activityDataset>
    <activityDescription>
      <activity id="a"><activityName xml:lang="en">%s</activityName></activity>
      <geography><shortname xml:lang="en">%s</shortname></geography>
    </activityDescription>
    <flowData>
      <intermediateExchange id="x"%s>
        <name xml:lang="en">%s</name>
        <unitName xml:lang="en">%s</unitName>
        <outputGroup>0</outputGroup>
      </intermediateExchange>
    </flowData>
  </activityDataset>
</ecoSpold>
`, escape(ds.Activity), escape(ds.Geography), volume, escape(ds.Product), escape(ds.Unit)))
}

func flowsXML(flows []Flow) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<validElementaryExchanges xmlns="http://www.EcoInvent.org/EcoSpold02">` + "\n")
	for _, f := range flows {
		formula := ""
		if f.Formula != "" {
			formula = fmt.Sprintf(` formula="%s"`, escape(f.Formula))
		}
		fmt.Fprintf(&buf, "  <elementaryExchange id=%q%s>\n", f.UUID, formula)
		fmt.Fprintf(&buf, "    <name xml:lang=\"en\">%s</name>\n", escape(f.Name))
		fmt.Fprintf(&buf, "    <unitName xml:lang=\"en\">%s</unitName>\n", escape(f.Unit))
		buf.WriteString("  </elementaryExchange>\n")
	}
	buf.WriteString("</validElementaryExchanges>\n")
	return buf.Bytes()
}
