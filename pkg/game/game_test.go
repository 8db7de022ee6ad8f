package game

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Type
		wantErr bool
	}{
		{name: "tes5", input: "tes5", want: TES5},
		{name: "tesv alias", input: "tesv", want: TES5},
		{name: "sse", input: "sse", want: SSE},
		{name: "fo4", input: "fo4", want: FO4},
		{name: "mixed case", input: "SSE", want: SSE},
		{name: "surrounding space", input: " fo4 ", want: FO4},
		{name: "unknown", input: "oblivion", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTypeAttributes(t *testing.T) {
	tests := []struct {
		game     Type
		wantExt  string
		wantFlag string
	}{
		{game: TES5, wantExt: ".bsa", wantFlag: "-tes5"},
		{game: SSE, wantExt: ".bsa", wantFlag: "-sse"},
		{game: FO4, wantExt: ".ba2", wantFlag: "-fo4"},
	}

	for _, tt := range tests {
		t.Run(tt.game.String(), func(t *testing.T) {
			if got := tt.game.ArchiveExt(); got != tt.wantExt {
				t.Errorf("ArchiveExt() = %v, want %v", got, tt.wantExt)
			}
			if got := tt.game.ArchiverFlag(); got != tt.wantFlag {
				t.Errorf("ArchiverFlag() = %v, want %v", got, tt.wantFlag)
			}
		})
	}
}
