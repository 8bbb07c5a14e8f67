package domain

import (
	"strings"
	"testing"
)

func TestDecodeAnswer(t *testing.T) {
	yesNo := []string{"Yes", "No"}
	idx := func(n string) string {
		return "0x" + strings.Repeat("0", 64-len(n)) + n
	}

	tests := []struct {
		name    string
		hex     string
		typ     QuestionType
		options []string
		want    string
	}{
		{"unresolved", AnswerUnresolved, TypeBool, yesNo, LabelUnanswered},
		{"answered too soon", AnswerAnsweredTooSoon, TypeUint, yesNo, LabelAnsweredTooSoon},
		{"invalid", AnswerInvalid, "", nil, LabelInvalid},
		{"missing prefix is returned raw", strings.ToUpper(AnswerInvalid[2:]), "", nil, strings.ToUpper(AnswerInvalid[2:])},
		{"zero index reads as unanswered", idx("0"), TypeSingleSelect, yesNo, LabelUnanswered},
		{"second option", idx("1"), TypeSingleSelect, yesNo, "No"},
		{"untyped indexes options", idx("1"), "", yesNo, "No"},
		{"out of range option", idx("5"), TypeSingleSelect, yesNo, idx("5")},
		{"no options returns raw", idx("1"), "", nil, idx("1")},
		{"bool yes", idx("1"), TypeBool, nil, "Yes"},
		{"bool out of range", idx("2"), TypeBool, nil, idx("2")},
		{"uint decimal", idx("3e8"), TypeUint, nil, "1000"},
		{"datetime", idx("6553f100"), TypeDatetime, nil, "2023-11-14T22:13:20Z"},
		{"multiple select bitmask", idx("5"), TypeMultipleSelect, []string{"Red", "Green", "Blue"}, "Red, Blue"},
		{"multiple select empty mask", idx("8"), TypeMultipleSelect, []string{"Red", "Green", "Blue"}, idx("8")},
		{"garbage", "0xzz", TypeSingleSelect, yesNo, "0xzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeAnswer(tt.hex, tt.typ, tt.options); got != tt.want {
				t.Errorf("DecodeAnswer(%q) = %q, want %q", tt.hex, got, tt.want)
			}
		})
	}
}

func TestIsTooSoonAnswer(t *testing.T) {
	if !IsTooSoonAnswer(strings.ToUpper(AnswerAnsweredTooSoon[:2]) + AnswerAnsweredTooSoon[2:]) {
		t.Error("expected answered-too-soon to match regardless of prefix case")
	}
	if IsTooSoonAnswer(AnswerInvalid) {
		t.Error("invalid answer must not count as too soon")
	}
}
