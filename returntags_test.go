package gocucm_test

import (
	"testing"

	gocucm "github.com/rlad78/gocucm"
)

func TestReturnTagsAll(t *testing.T) {
	ix := loadIndex(t)

	tags := gocucm.ReturnTagsAll(mustOp(t, ix, "getPhone"))
	if tags == nil {
		t.Fatal("getPhone takes returnedTags")
	}
	if v, ok := tags["name"]; !ok || v != "" {
		t.Errorf("name tag = %v, want empty leaf", v)
	}
	lines, ok := tags["lines"].(map[string]any)
	if !ok {
		t.Fatalf("lines tag = %T, want nested structure", tags["lines"])
	}
	if _, ok := lines["directoryNumber"]; !ok {
		t.Error("nested tag structure should descend into lines")
	}
	if _, ok := tags["ownerUserName"]; !ok {
		t.Error("choice group should contribute its first member")
	}
	if _, ok := tags["ownerUserUuid"]; ok {
		t.Error("only one choice member may appear")
	}
}

func TestReturnTagsAllWithoutReturnedTags(t *testing.T) {
	if tags := gocucm.ReturnTagsAll(mustOp(t, loadIndex(t), "addPhone")); tags != nil {
		t.Errorf("addPhone takes no returnedTags, got %v", tags)
	}
}

func TestExpandReturnTags(t *testing.T) {
	op := mustOp(t, loadIndex(t), "getPhone")

	tags, err := gocucm.ExpandReturnTags(op, []string{"name", "model", "uuid"})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("tags = %v, want uuid skipped", tags)
	}
}

func TestExpandReturnTagsUnknown(t *testing.T) {
	op := mustOp(t, loadIndex(t), "getPhone")

	_, err := gocucm.ExpandReturnTags(op, []string{"name", "nonsense"})
	iss := mustIssues(t, err)
	it, ok := iss.At("returnedTags.nonsense")
	if !ok || it.Code != gocucm.CodeUnexpectedField {
		t.Fatalf("want unexpected_field at returnedTags.nonsense, got %v", iss)
	}
	known, _ := it.Params["known"].([]string)
	if len(known) == 0 {
		t.Error("issue should list the legal tags")
	}
}

func TestExpandReturnTagsOperationWithoutTags(t *testing.T) {
	op := mustOp(t, loadIndex(t), "addPhone")

	_, err := gocucm.ExpandReturnTags(op, []string{"name"})
	iss := mustIssues(t, err)
	if !iss.HasCode(gocucm.CodeUnexpectedField) {
		t.Errorf("want unexpected_field, got %v", iss)
	}
}
