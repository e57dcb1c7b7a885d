package contentdiff

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLedgerImportedPostsRoundTrip(t *testing.T) {
	ledger, err := NewLedger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}

	records := []ImportedPost{
		{PostType: "post", IDOld: 10, IDNew: 110},
		{PostType: "attachment", IDOld: 20, IDNew: 120},
	}
	for _, r := range records {
		if err := ledger.AppendJSON(LogImportedPostIDs, r); err != nil {
			t.Fatalf("AppendJSON() error = %v", err)
		}
	}

	got, err := ledger.ReadImportedPosts()
	if err != nil {
		t.Fatalf("ReadImportedPosts() error = %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("ReadImportedPosts() = %v, want %v", got, records)
	}
}

func TestLedgerSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	ledger, err := NewLedger(dir)
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}

	content := `{"post_type":"post","id_old":10,"id_new":110}
{"post_type":"post","id_old":20,
not json at all
{"post_type":"attachment","id_old":30,"id_new":130}
`
	if err := os.WriteFile(filepath.Join(dir, LogImportedPostIDs), []byte(content), 0o644); err != nil {
		t.Fatalf("writing log: %v", err)
	}

	got, err := ledger.ReadImportedPosts()
	if err != nil {
		t.Fatalf("ReadImportedPosts() error = %v", err)
	}
	want := []ImportedPost{
		{PostType: "post", IDOld: 10, IDNew: 110},
		{PostType: "attachment", IDOld: 30, IDNew: 130},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadImportedPosts() = %v, want %v", got, want)
	}
}

func TestLedgerMissingFilesYieldEmptySets(t *testing.T) {
	ledger, err := NewLedger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}

	imported, err := ledger.ImportedOldIDs()
	if err != nil {
		t.Fatalf("ImportedOldIDs() error = %v", err)
	}
	if len(imported) != 0 {
		t.Errorf("ImportedOldIDs() = %v, want empty", imported)
	}

	ids, err := ledger.ReadNewIDsCSV()
	if err != nil {
		t.Fatalf("ReadNewIDsCSV() error = %v", err)
	}
	if ids != nil {
		t.Errorf("ReadNewIDsCSV() = %v, want nil", ids)
	}
}

func TestLedgerAtMostOnceAcrossReplay(t *testing.T) {
	ledger, err := NewLedger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}

	// First run imports 10 and 20, then "crashes".
	for _, r := range []ImportedPost{
		{PostType: "post", IDOld: 10, IDNew: 110},
		{PostType: "post", IDOld: 20, IDNew: 120},
	} {
		if err := ledger.AppendJSON(LogImportedPostIDs, r); err != nil {
			t.Fatalf("AppendJSON() error = %v", err)
		}
	}

	// Second run replays the ledger and only imports what is missing.
	done, err := ledger.ImportedOldIDs()
	if err != nil {
		t.Fatalf("ImportedOldIDs() error = %v", err)
	}
	worklist := []int64{10, 20, 30}
	var imported []int64
	for _, id := range worklist {
		if done[id] {
			continue
		}
		imported = append(imported, id)
		if err := ledger.AppendJSON(LogImportedPostIDs, ImportedPost{PostType: "post", IDOld: id, IDNew: id + 100}); err != nil {
			t.Fatalf("AppendJSON() error = %v", err)
		}
	}
	if !reflect.DeepEqual(imported, []int64{30}) {
		t.Errorf("second run imported %v, want [30]", imported)
	}

	// Every old ID appears exactly once across both runs.
	all, err := ledger.ReadImportedPosts()
	if err != nil {
		t.Fatalf("ReadImportedPosts() error = %v", err)
	}
	seen := map[int64]int{}
	for _, p := range all {
		seen[p.IDOld]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("old ID %d imported %d times, want 1", id, n)
		}
	}
}

func TestLedgerNewIDsCSVRoundTrip(t *testing.T) {
	ledger, err := NewLedger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}

	ids := []int64{5, 9, 12}
	if err := ledger.WriteNewIDsCSV(ids); err != nil {
		t.Fatalf("WriteNewIDsCSV() error = %v", err)
	}
	got, err := ledger.ReadNewIDsCSV()
	if err != nil {
		t.Fatalf("ReadNewIDsCSV() error = %v", err)
	}
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("ReadNewIDsCSV() = %v, want %v", got, ids)
	}

	// A rerun's diff replaces the previous one.
	if err := ledger.WriteNewIDsCSV([]int64{7}); err != nil {
		t.Fatalf("WriteNewIDsCSV() error = %v", err)
	}
	got, err = ledger.ReadNewIDsCSV()
	if err != nil {
		t.Fatalf("ReadNewIDsCSV() error = %v", err)
	}
	if !reflect.DeepEqual(got, []int64{7}) {
		t.Errorf("ReadNewIDsCSV() = %v, want [7]", got)
	}
}

func TestLedgerDeletedModifiedIDs(t *testing.T) {
	ledger, err := NewLedger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}

	for _, id := range []int64{3, 8} {
		if err := ledger.AppendDeletedModifiedID(id); err != nil {
			t.Fatalf("AppendDeletedModifiedID() error = %v", err)
		}
	}
	done, err := ledger.ReadDeletedModifiedIDs()
	if err != nil {
		t.Fatalf("ReadDeletedModifiedIDs() error = %v", err)
	}
	if !done[3] || !done[8] || done[5] {
		t.Errorf("ReadDeletedModifiedIDs() = %v, want {3, 8}", done)
	}
}
