package model

import "testing"

func TestOutputFormat_Extension(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatFLAC, ".flac"},
		{FormatVorbis, ".ogg"},
	}

	for _, tt := range tests {
		if got := tt.format.Extension(); got != tt.want {
			t.Errorf("%v.Extension() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"flac", FormatFLAC, false},
		{"FLAC", FormatFLAC, false},
		{" ogg ", FormatVorbis, false},
		{"vorbis", FormatVorbis, false},
		{"mp3", FormatVorbis, true},
		{"", FormatVorbis, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatForProgram(t *testing.T) {
	tests := []struct {
		program string
		want    OutputFormat
	}{
		{"h2n2flac", FormatFLAC},
		{"/usr/local/bin/h2n2flac", FormatFLAC},
		{`C:\tools\h2n2flac.exe`, FormatFLAC},
		{"h2n2ogg", FormatVorbis},
		{"h2n", FormatVorbis},
		{"flac-h2n", FormatVorbis},
	}

	for _, tt := range tests {
		t.Run(tt.program, func(t *testing.T) {
			if got := FormatForProgram(tt.program); got != tt.want {
				t.Errorf("FormatForProgram(%q) = %v, want %v", tt.program, got, tt.want)
			}
		})
	}
}
