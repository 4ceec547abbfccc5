package rule

import "testing"

func TestParseTimeUnit(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    int64
		wantErr bool
	}{
		{name: "int milliseconds", input: 86400000, want: 86400000},
		{name: "int64 milliseconds", input: int64(5000), want: 5000},
		{name: "float milliseconds", input: float64(1500), want: 1500},
		{name: "digit string", input: "60000", want: 60000},
		{name: "duration hours", input: "24h", want: 86400000},
		{name: "duration minutes", input: "90m", want: 5400000},
		{name: "day suffix", input: "7d", want: 7 * 86400000},
		{name: "single day", input: "1d", want: 86400000},
		{name: "nil", input: nil, wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "garbage string", input: "yesterday", wantErr: true},
		{name: "bad day count", input: "xd", wantErr: true},
		{name: "unsupported type", input: []int{1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeUnit(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTimeUnit(%v) expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeUnit(%v) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeUnit(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsConsecutive(t *testing.T) {
	truth := true
	falsth := false

	if !(Definition{}).IsConsecutive(true) {
		t.Error("nil consecutive should take the default true")
	}
	if (Definition{}).IsConsecutive(false) {
		t.Error("nil consecutive should take the default false")
	}
	if !(Definition{Consecutive: &truth}).IsConsecutive(false) {
		t.Error("explicit true should override the default")
	}
	if (Definition{Consecutive: &falsth}).IsConsecutive(true) {
		t.Error("explicit false should override the default")
	}
}
