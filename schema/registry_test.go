package schema_test

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rlad78/gocucm/schema"
)

func fixtureSource(t *testing.T, hits *atomic.Int64) schema.Source {
	t.Helper()
	src, err := os.ReadFile("../testdata/axlsoap-14.0.xsd")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return schema.SourceFunc(func(version string) ([]byte, error) {
		hits.Add(1)
		if version != "14.0" {
			return nil, fmt.Errorf("no schema shipped for %s", version)
		}
		return src, nil
	})
}

func TestRegistryLoadsOnce(t *testing.T) {
	var hits atomic.Int64
	r := schema.NewRegistry(fixtureSource(t, &hits))

	first, err := r.Index("14.0")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	second, err := r.Index("14.0")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if first != second {
		t.Error("repeated lookups should observe the same index")
	}
	if hits.Load() != 1 {
		t.Errorf("source hit %d times", hits.Load())
	}
	if got := r.Versions(); len(got) != 1 || got[0] != "14.0" {
		t.Errorf("versions = %v", got)
	}
}

func TestRegistryConcurrentFirstLoad(t *testing.T) {
	var hits atomic.Int64
	r := schema.NewRegistry(fixtureSource(t, &hits))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Index("14.0"); err != nil {
				t.Errorf("index: %v", err)
			}
		}()
	}
	wg.Wait()
	if hits.Load() != 1 {
		t.Errorf("exactly one loader should win, source hit %d times", hits.Load())
	}
}

func TestRegistryRefreshRebuilds(t *testing.T) {
	var hits atomic.Int64
	r := schema.NewRegistry(fixtureSource(t, &hits))

	if _, err := r.Index("14.0"); err != nil {
		t.Fatalf("index: %v", err)
	}
	if _, err := r.Refresh("14.0"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("refresh must go back to the source, hit %d times", hits.Load())
	}
}

func TestRegistrySourceFailure(t *testing.T) {
	var hits atomic.Int64
	r := schema.NewRegistry(fixtureSource(t, &hits))

	if _, err := r.Index("12.5"); err == nil {
		t.Fatal("expected source failure")
	}
	if got := r.Versions(); len(got) != 0 {
		t.Errorf("failed load must not leave residue: %v", got)
	}
}

func TestRegistryMalformedSchemaLeavesNoPartialState(t *testing.T) {
	r := schema.NewRegistry(schema.SourceFunc(func(string) ([]byte, error) {
		return []byte(`<xsd:schema xmlns:xsd="http://www.w3.org/2001/XMLSchema">
<xsd:element name="getThing" type="axlapi:XMissing"/>
</xsd:schema>`), nil
	}))

	_, err := r.Index("14.0")
	var pe *schema.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ParseError, got %T: %v", err, err)
	}
	if got := r.Versions(); len(got) != 0 {
		t.Errorf("failed parse must not leave residue: %v", got)
	}
}
