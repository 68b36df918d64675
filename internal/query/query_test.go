package query

import (
	"encoding/json"
	"testing"
)

func TestExecutionResultJSONSuccess(t *testing.T) {
	result := Succeeded([]string{"total_customers"}, [][]any{{int64(42)}})

	raw, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body["success"] != true || body["row_count"] != float64(1) || body["error"] != nil {
		t.Fatalf("body = %s", raw)
	}
	data := body["data"].([]any)
	if data[0].(map[string]any)["total_customers"] != float64(42) {
		t.Fatalf("data = %#v", data)
	}
}

func TestExecutionResultJSONEmptySuccessUsesEmptyArray(t *testing.T) {
	raw, err := json.Marshal(Succeeded([]string{"id"}, nil))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"success":true,"columns":["id"],"data":[],"row_count":0,"error":null}`
	if string(raw) != want {
		t.Fatalf("json = %s, want %s", raw, want)
	}
}

func TestExecutionResultJSONFailure(t *testing.T) {
	raw, err := json.Marshal(Failed("Dangerous operation 'DROP' not allowed"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"success":false,"columns":null,"data":null,"row_count":null,"error":"Dangerous operation 'DROP' not allowed"}`
	if string(raw) != want {
		t.Fatalf("json = %s, want %s", raw, want)
	}
}

func TestRowCount(t *testing.T) {
	if n, ok := Succeeded(nil, [][]any{{1}, {2}}).RowCount(); !ok || n != 2 {
		t.Fatalf("RowCount() = %d, %v", n, ok)
	}
	if _, ok := Failed("x").RowCount(); ok {
		t.Fatal("RowCount() on failure should report ok=false")
	}
}

func TestExecutionResultJSONKeepsRepeatedColumns(t *testing.T) {
	raw, err := json.Marshal(Succeeded([]string{"a", "a"}, [][]any{{int64(1), int64(2)}}))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"success":true,"columns":["a","a_1"],"data":[{"a":1,"a_1":2}],"row_count":1,"error":null}`
	if string(raw) != want {
		t.Fatalf("json = %s, want %s", raw, want)
	}
}

func TestRecordKeysSkipsTakenSuffixes(t *testing.T) {
	result := Succeeded([]string{"a", "a", "a_1", "a"}, nil)
	got := result.RecordKeys()
	want := []string{"a", "a_2", "a_1", "a_3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RecordKeys() = %#v, want %#v", got, want)
		}
	}
}
