package parser

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writePackage(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create package: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close package: %v", err)
	}
}

func TestLoadDocumentPackage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.twbx")
	writePackage(t, path, map[string]string{
		"book.twb":         "<workbook><worksheets><worksheet name='A' /></worksheets></workbook>",
		"Data/Orders.csv":  "Region,Sales\nEast,1\n",
		"Data/Extract.txt": "ignored",
	})

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if got := doc.FindAll(doc.Root, "worksheet"); len(got) != 1 || got[0].Get("name") != "A" {
		t.Errorf("worksheets = %v", got)
	}
}

func TestLoadDocumentPackageWithoutWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.twbx")
	writePackage(t, path, map[string]string{"Data/Orders.csv": "a,b\n"})

	if _, err := LoadDocument(path); !errors.Is(err, ErrNoWorkbook) {
		t.Errorf("LoadDocument error = %v, expected ErrNoWorkbook", err)
	}
}

func TestLoadDocumentPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.twb")
	if err := os.WriteFile(path, []byte("<workbook><dashboards /></workbook>"), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if doc.Find(doc.Root, "dashboards") == nil {
		t.Error("dashboards element not found")
	}
}

func TestExtractPackage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.twbx")
	writePackage(t, path, map[string]string{
		"book.twb":        "<workbook />",
		"Data/Orders.csv": "Region,Sales\n",
	})

	out := filepath.Join(dir, "out")
	written, err := ExtractPackage(path, out)
	if err != nil {
		t.Fatalf("ExtractPackage failed: %v", err)
	}
	if len(written) != 2 {
		t.Errorf("Expected 2 files, got %v", written)
	}
	if _, err := os.Stat(filepath.Join(out, "Data", "Orders.csv")); err != nil {
		t.Errorf("csv not extracted: %v", err)
	}
}

func TestExtractPackageRejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evil.twbx")
	writePackage(t, path, map[string]string{"../escape.txt": "x"})

	if _, err := ExtractPackage(path, filepath.Join(dir, "out")); err == nil {
		t.Error("Expected error for entry escaping target directory")
	}
}
