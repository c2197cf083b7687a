package datapackage_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"ecomigrate/internal/biosphere"
	"ecomigrate/internal/catalog"
	"ecomigrate/internal/config"
	"ecomigrate/internal/datapackage"
	"ecomigrate/internal/reconcile"
	"ecomigrate/internal/testsupport"
)

func technosphereResult() reconcile.Result {
	src := reconcile.Record{ActivityName: "a", Geography: "GLO", ProductName: "p", Unit: "kg"}
	return reconcile.Result{
		Disaggregate: []reconcile.Disaggregation{{
			Source: src,
			Targets: []reconcile.AllocatedTarget{
				{Record: reconcile.Record{ActivityName: "b1", Geography: "GLO", ProductName: "p", Unit: "kg"}, Allocation: 0.75},
				{Record: reconcile.Record{ActivityName: "b2", Geography: "GLO", ProductName: "p", Unit: "kg"}, Allocation: 0.25},
			},
		}},
	}
}

func metadata() datapackage.Metadata {
	return datapackage.Metadata{
		SourceID:   "ecoinvent-3.9.1-cutoff",
		TargetID:   "ecoinvent-3.10-cutoff",
		Output:     config.Default().Output,
		AppVersion: "1.2.3",
		Created:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestTechnospherePackageDocument(t *testing.T) {
	pkg, err := datapackage.NewTechnosphere(metadata(), technosphereResult())
	if err != nil {
		t.Fatalf("NewTechnosphere: %v", err)
	}
	data, err := pkg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := doc["replace"]; ok {
		t.Fatal("empty replace section must be omitted")
	}
	if doc["name"] != "ecoinvent-3.9.1-cutoff-ecoinvent-3.10-cutoff" || doc["version"] != "2.0.0" {
		t.Fatalf("unexpected header %v %v", doc["name"], doc["version"])
	}
	if doc["created"] != "2026-01-02T03:04:05Z" {
		t.Fatalf("created = %v", doc["created"])
	}
	want := "Data migration file from ecoinvent-3.9.1-cutoff to ecoinvent-3.10-cutoff generated with ecomigrate version 1.2.3"
	if doc["description"] != want {
		t.Fatalf("description = %v", doc["description"])
	}
	contributors := doc["contributors"].([]any)
	first := contributors[0].(map[string]any)
	if first["title"] != "ecoinvent association" || first["roles"].([]any)[0] != "author" {
		t.Fatalf("unexpected contributor %v", first)
	}
	disagg := doc["disaggregate"].([]any)[0].(map[string]any)
	target := disagg["targets"].([]any)[0].(map[string]any)
	if target["name"] != "b1" || target["reference product"] != "p" || target["allocation"] != 0.75 {
		t.Fatalf("unexpected target %v", target)
	}
	if pkg.Counts()["disaggregate"] != 1 || pkg.Filename() != "ecoinvent-3.9.1-cutoff-ecoinvent-3.10-cutoff.json" {
		t.Fatalf("counts=%v filename=%s", pkg.Counts(), pkg.Filename())
	}
}

func TestBiospherePackageSections(t *testing.T) {
	factor := 1000.0
	res := biosphere.Result{
		Replace: []biosphere.Replacement{{
			Source:           catalog.Flow{UUID: "u1", Name: "a"},
			Target:           catalog.Flow{UUID: "u2", Name: "b"},
			ConversionFactor: &factor,
		}},
		Delete: []biosphere.Deletion{{Source: catalog.Flow{UUID: "u3", Name: "c"}, Comment: biosphere.CommentDeletedFlow}},
	}
	meta := metadata()
	meta.SourceID = "ecoinvent-3.9.1-biosphere"
	meta.TargetID = "ecoinvent-3.10-biosphere"
	meta.Description = "custom"
	pkg, err := datapackage.NewBiosphere(meta, res)
	if err != nil {
		t.Fatalf("NewBiosphere: %v", err)
	}
	data, err := pkg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	text := string(data)
	for _, want := range []string{`"conversion_factor": 1000`, `"delete": [`, `"description": "custom"`, `"uuid": "//*:elementaryExchange/@elementaryExchangeId"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("document missing %s:\n%s", want, text)
		}
	}
	if strings.Contains(text, `"disaggregate"`) {
		t.Fatal("biosphere package must not carry a disaggregate section")
	}
}

func TestFileSink(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sink := datapackage.NewFileSink(cfg.Paths.OutputDir, nil)
	ctx := context.Background()

	empty, err := datapackage.NewTechnosphere(metadata(), reconcile.Result{})
	if err != nil {
		t.Fatalf("NewTechnosphere: %v", err)
	}
	if _, err := sink.Write(ctx, empty); !errors.Is(err, datapackage.ErrNothingToWrite) {
		t.Fatalf("expected ErrNothingToWrite, got %v", err)
	}
	entries, _ := os.ReadDir(cfg.Paths.OutputDir)
	if len(entries) != 0 {
		t.Fatalf("empty package must not be written: %v", entries)
	}

	pkg, err := datapackage.NewTechnosphere(metadata(), technosphereResult())
	if err != nil {
		t.Fatalf("NewTechnosphere: %v", err)
	}
	path, err := sink.Write(ctx, pkg)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if path != filepath.Join(cfg.Paths.OutputDir, "ecoinvent-3.9.1-cutoff-ecoinvent-3.10-cutoff.json") {
		t.Fatalf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || !bytes.Contains(data, []byte(`"allocation": 0.25`)) {
		t.Fatalf("unexpected file contents %s (%v)", data, err)
	}

	missing := datapackage.NewFileSink(filepath.Join(cfg.Paths.OutputDir, "nope"), nil)
	if _, err := missing.Write(ctx, pkg); err == nil {
		t.Fatal("expected error for missing output directory")
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Method != http.MethodPut {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	body, _ := io.ReadAll(req.Body)
	key := strings.TrimPrefix(req.URL.Path, "/")
	f.objects[key] = body
	f.types[key] = req.Header.Get("Content-Type")
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
}

func newFakeS3Client(t *testing.T, rt http.RoundTripper) *s3.Client {
	t.Helper()
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	if err != nil {
		t.Fatalf("aws config: %v", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
}

func TestS3Sink(t *testing.T) {
	rt := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	sink := datapackage.NewS3SinkWithClient(newFakeS3Client(t, rt), "migrations", "ecoinvent", nil)

	pkg, err := datapackage.NewTechnosphere(metadata(), technosphereResult())
	if err != nil {
		t.Fatalf("NewTechnosphere: %v", err)
	}
	location, err := sink.Write(context.Background(), pkg)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if location != "s3://migrations/ecoinvent/ecoinvent-3.9.1-cutoff-ecoinvent-3.10-cutoff.json" {
		t.Fatalf("location = %s", location)
	}
	key := "migrations/ecoinvent/ecoinvent-3.9.1-cutoff-ecoinvent-3.10-cutoff.json"
	body, ok := rt.objects[key]
	if !ok {
		t.Fatalf("object not uploaded; have %v", rt.objects)
	}
	if !bytes.Contains(body, []byte(`"disaggregate"`)) || rt.types[key] != "application/json" {
		t.Fatalf("unexpected upload %q (%s)", body, rt.types[key])
	}

	empty, _ := datapackage.NewTechnosphere(metadata(), reconcile.Result{})
	if _, err := sink.Write(context.Background(), empty); !errors.Is(err, datapackage.ErrNothingToWrite) {
		t.Fatalf("expected ErrNothingToWrite, got %v", err)
	}
}

func TestNewSinkSelectsDriver(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sink, err := datapackage.NewSink(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	if _, ok := sink.(*datapackage.FileSink); !ok {
		t.Fatalf("expected FileSink, got %T", sink)
	}
	cfg.Output.Driver = "ftp"
	if _, err := datapackage.NewSink(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
