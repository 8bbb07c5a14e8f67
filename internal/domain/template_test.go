package domain

import (
	"reflect"
	"testing"
)

func TestParseQuestionData(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want QuestionText
	}{
		{
			name: "four fields with options",
			raw:  `Will it rain?␟"Yes","No"␟weather␟en_US`,
			want: QuestionText{
				Title:       "Will it rain?",
				Description: `Options: "Yes","No"`,
				Category:    "weather",
				Language:    "en_US",
				Type:        TypeSingleSelect,
				Options:     []string{"Yes", "No"},
			},
		},
		{
			name: "three fields without options",
			raw:  "Did the launch happen?␟space␟en",
			want: QuestionText{
				Title:    "Did the launch happen?",
				Category: "space",
				Language: "en",
			},
		},
		{
			name: "unquoted options stay in the description only",
			raw:  "Pick one␟a, b␟misc␟en",
			want: QuestionText{
				Title:       "Pick one",
				Description: "Options: a, b",
				Category:    "misc",
				Language:    "en",
			},
		},
		{
			name: "json template",
			raw:  `{"title":"Who wins?","type":"single-select","category":"sports","lang":"en","outcomes":["Home","Away"]}`,
			want: QuestionText{
				Title:       "Who wins?",
				Description: "Options: Home, Away",
				Category:    "sports",
				Language:    "en",
				Type:        TypeSingleSelect,
				Options:     []string{"Home", "Away"},
			},
		},
		{
			name: "plain text",
			raw:  "just a title",
			want: QuestionText{Title: "just a title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuestionData(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseQuestionData() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
